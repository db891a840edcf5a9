// Package intent classifies free-text messages with fixed keyword patterns.
//
// Two independent axes are covered: the conversational intent of a message
// (answer, question, confusion, off-topic remark, greeting) and the content of
// an assessment answer (positive, negative, partial, numeric, unclear).
package intent

import "fmt"

// Intent is the conversational purpose of a message.
type Intent int

const (
	IntentAnswer                Intent = iota // A direct reply to the current prompt
	IntentClarificationQuestion               // A question about the topic being assessed
	IntentOffTopic                            // A question unrelated to the assessment
	IntentConfused                            // The user did not understand the prompt
	IntentGreeting                            // Small talk such as "hi" or "how are you"
)

// String returns the wire name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentAnswer:
		return "answer"
	case IntentClarificationQuestion:
		return "clarification_question"
	case IntentOffTopic:
		return "off_topic"
	case IntentConfused:
		return "confused"
	case IntentGreeting:
		return "greeting"
	default:
		return fmt.Sprintf("unknown(%d)", int(i))
	}
}

// IsInterruption reports whether the intent is anything other than an answer.
func (i Intent) IsInterruption() bool {
	return i != IntentAnswer
}
