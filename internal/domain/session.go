package domain

import (
	"time"
)

// Session holds the full state of one assessment conversation.
type Session struct {
	ID                  string         `json:"id"`
	Stage               Stage          `json:"stage"`
	UserName            string         `json:"user_name,omitempty"`
	UserLocation        string         `json:"user_location,omitempty"`
	UserEducation       string         `json:"user_education,omitempty"`
	SelectedDomain      string         `json:"selected_domain,omitempty"`
	QuestionSet         []Question     `json:"question_set,omitempty"`
	QuestionIndex       int            `json:"question_index"`
	Score               int            `json:"score"`
	AnswerLog           []AnswerRecord `json:"answer_log,omitempty"`
	PendingSwitchDomain string         `json:"pending_switch_domain,omitempty"`
	Level               Level          `json:"level,omitempty"`
	Summary             string         `json:"summary,omitempty"`
	DocsShown           bool           `json:"docs_shown,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// NewSession returns a session at the first stage.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Stage:     StageAskName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MaxScore returns the sum of weights of the selected question set.
func (s *Session) MaxScore() int {
	total := 0
	for _, q := range s.QuestionSet {
		total += q.Weight
	}
	return total
}

// CurrentQuestion returns the question under the cursor, if any.
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.QuestionSet) {
		return Question{}, false
	}
	return s.QuestionSet[s.QuestionIndex], true
}

// Progress returns completion as a percentage in [0, 100].
func (s *Session) Progress() float64 {
	switch {
	case s.Stage == StageResult:
		return 100
	case s.Stage != StageDomainEvaluation || len(s.QuestionSet) == 0:
		return 0
	}
	return float64(s.QuestionIndex) / float64(len(s.QuestionSet)) * 100
}

// ResetAssessment replaces the domain and question set and clears progress.
func (s *Session) ResetAssessment(domainName string, questions []Question) {
	s.SelectedDomain = domainName
	s.QuestionSet = questions
	s.QuestionIndex = 0
	s.Score = 0
	s.AnswerLog = nil
	s.Level = ""
	s.Summary = ""
	s.DocsShown = false
	s.PendingSwitchDomain = ""
}

// ExpiresIn returns the time left before the session is idle for ttl.
// Returns 0 if the session has already expired.
func (s *Session) ExpiresIn(ttl time.Duration, now time.Time) time.Duration {
	left := s.UpdatedAt.Add(ttl).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Clone returns a deep copy safe to hand across goroutines.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.QuestionSet != nil {
		c.QuestionSet = append([]Question(nil), s.QuestionSet...)
	}
	if s.AnswerLog != nil {
		c.AnswerLog = append([]AnswerRecord(nil), s.AnswerLog...)
	}
	return &c
}
