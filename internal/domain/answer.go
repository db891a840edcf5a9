package domain

// AnswerClass is the content classification of an assessment answer.
type AnswerClass string

const (
	AnswerPositive AnswerClass = "positive"
	AnswerNegative AnswerClass = "negative"
	AnswerPartial  AnswerClass = "partial"
	AnswerNumeric  AnswerClass = "numeric"
	AnswerUnclear  AnswerClass = "unclear"
)

// Advances reports whether an answer of this class moves the question pointer.
func (c AnswerClass) Advances() bool {
	return c != AnswerUnclear && c != ""
}

// Level is the final skill tier.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Description returns the canned explanation for a level.
func (l Level) Description() string {
	switch l {
	case LevelAdvanced:
		return "You have strong expertise in this domain with comprehensive knowledge across multiple areas."
	case LevelIntermediate:
		return "You have solid foundational knowledge with room to grow in some areas."
	default:
		return "You're starting your journey in this domain. Focus on building fundamental skills."
	}
}

// Question is a single weighted yes/no assessment question.
type Question struct {
	ID          string `json:"id" yaml:"id"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	Explanation string `json:"explanation" yaml:"explanation"`
	Weight      int    `json:"weight" yaml:"weight"`
}

// AnswerRecord is one entry of the answer log.
type AnswerRecord struct {
	QuestionID  string      `json:"question_id"`
	Prompt      string      `json:"prompt"`
	Answer      string      `json:"answer"`
	Class       AnswerClass `json:"class"`
	Explanation string      `json:"explanation,omitempty"`
}

// DocLink is a titled documentation URL.
type DocLink struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// ImprovementArea pairs a missed question with the explanation to study.
type ImprovementArea struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// Recommendations is the final report of an assessment.
type Recommendations struct {
	Level            Level             `json:"level"`
	Domain           string            `json:"domain"`
	Score            string            `json:"score"`
	Percentage       string            `json:"percentage"`
	LevelDescription string            `json:"level_description"`
	AreasToImprove   []ImprovementArea `json:"areas_to_improve"`
	Topics           []string          `json:"topics"`
	Projects         []string          `json:"projects"`
	Docs             []DocLink         `json:"docs,omitempty"`
	Explanation      string            `json:"explanation"`
}
