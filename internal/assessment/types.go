// Package assessment implements the conversation state machine: personal
// info, domain selection, the yes/no evaluation and the post-assessment chat.
package assessment

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/textgen"
)

// ErrInvariantViolation is returned in strict mode when a step would leave a
// session in an inconsistent state.
var ErrInvariantViolation = errors.New("session invariant violated")

// Outcome tells the caller how a message was handled.
type Outcome string

const (
	OutcomeAdvanced            Outcome = "advanced"
	OutcomeCompleted           Outcome = "completed"
	OutcomeInterrupted         Outcome = "interrupted"
	OutcomeInvalidPersonalInfo Outcome = "invalid_personal_info"
	OutcomeInvalidDomain       Outcome = "invalid_domain"
	OutcomeUnclearAnswer       Outcome = "unclear_answer"
	OutcomeNoChange            Outcome = "no_change"
)

// Config configures an Engine.
type Config struct {
	// Rephraser supplies cosmetic wording. Nil uses static fallbacks.
	Rephraser textgen.Rephraser
	// QuestionsPerSession is the size of each question set. Zero means 6.
	QuestionsPerSession int
	// StrictInvariants turns invariant violations into errors instead of
	// logging them and recovering.
	StrictInvariants bool
	// SessionTTL is the idle expiry reported by Status. Zero omits it.
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// StartResult is returned when a session is created.
type StartResult struct {
	SessionID  string       `json:"session_id"`
	Message    string       `json:"message"`
	NextPrompt string       `json:"next_prompt"`
	Stage      domain.Stage `json:"stage"`
}

// Reply is the response to a submitted message.
type Reply struct {
	Reply           string                  `json:"reply"`
	NextPrompt      string                  `json:"next_prompt,omitempty"`
	Stage           domain.Stage            `json:"stage"`
	Progress        float64                 `json:"progress"`
	Completed       bool                    `json:"completed"`
	Recommendations *domain.Recommendations `json:"recommendations,omitempty"`
	Summary         string                  `json:"summary,omitempty"`
	Outcome         Outcome                 `json:"outcome"`
	Intent          string                  `json:"intent,omitempty"`
	QuestionNumber  int                     `json:"question_number,omitempty"`
	TotalQuestions  int                     `json:"total_questions,omitempty"`
}

// Profile is a bulk personal-info submission.
type Profile struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Education string `json:"education"`
}

// ChatReply is the response to a post-assessment chat message.
type ChatReply struct {
	Reply string `json:"reply"`
	// SwitchDomain is set when the reply offers to restart with another domain.
	SwitchDomain string `json:"switch_domain,omitempty"`
	// Switched is set when a previously offered switch was confirmed.
	Switched   bool             `json:"switched,omitempty"`
	NextPrompt string           `json:"next_prompt,omitempty"`
	Docs       []domain.DocLink `json:"docs,omitempty"`
	Stage      domain.Stage     `json:"stage"`
}

// Status is a read-only snapshot of a session.
type Status struct {
	SessionID      string       `json:"session_id"`
	Stage          domain.Stage `json:"stage"`
	StageName      string       `json:"stage_name"`
	Progress       float64      `json:"progress"`
	Score          int          `json:"score"`
	MaxScore       int          `json:"max_score"`
	Domain         string       `json:"domain,omitempty"`
	UserName       string       `json:"user_name,omitempty"`
	QuestionNumber int          `json:"question_number,omitempty"`
	TotalQuestions int          `json:"total_questions,omitempty"`
	Completed      bool         `json:"completed"`
	Level          domain.Level `json:"level,omitempty"`
	// ExpiresIn is the number of seconds left before the session expires.
	ExpiresIn int `json:"expires_in,omitempty"`
}

// FeedbackReply thanks the user and points at further reading.
type FeedbackReply struct {
	Reply string           `json:"reply"`
	Docs  []domain.DocLink `json:"docs,omitempty"`
}

// Roadmap is a learning plan for one domain.
type Roadmap struct {
	Domain      string           `json:"domain"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Steps       []RoadmapStep    `json:"steps"`
	Topics      []string         `json:"topics"`
	Projects    []string         `json:"projects"`
	Docs        []domain.DocLink `json:"docs"`
}

// RoadmapStep is one level of a roadmap.
type RoadmapStep struct {
	Step   int          `json:"step"`
	Level  domain.Level `json:"level"`
	Title  string       `json:"title"`
	Topics []string     `json:"topics"`
}
