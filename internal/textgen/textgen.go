// Package textgen provides the optional text rephrasing collaborator.
//
// Generated text is cosmetic only: every operation has a deterministic
// fallback that is used when no generator is configured, the call fails or
// times out, or the output fails the length guard.
package textgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/skillpath/internal/domain"
)

// ErrEmptyResponse is returned by generators that produced no text.
var ErrEmptyResponse = errors.New("empty response")

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Rephraser is the wording layer consumed by the assessment engine.
// Implementations never return an error; they fall back to static text.
type Rephraser interface {
	Rephrase(ctx context.Context, prompt, domainName string) string
	Explain(ctx context.Context, question, scope string) string
	Acknowledge(ctx context.Context, answer string, class domain.AnswerClass) string
	Summarize(ctx context.Context, req SummaryRequest) string
}

// SummaryRequest carries the inputs of a final recommendation summary.
type SummaryRequest struct {
	UserName string
	Domain   string
	Level    domain.Level
	Topics   []string
	Projects []string
}

// ContinueSuffix is appended to explanations that do not already steer back
// to the assessment.
const ContinueSuffix = " Now, let's continue with the assessment question."

// Static fallback texts.
const (
	FallbackExplain    = "That's a great question! Let me continue with the assessment and we can discuss this more at the end."
	fallbackAckDefault = "Got it, thanks for sharing!"
)

var fallbackAcks = map[domain.AnswerClass]string{
	domain.AnswerPositive: "Great! That's excellent knowledge to have.",
	domain.AnswerNegative: "No worries, everyone starts somewhere!",
	domain.AnswerPartial:  "That's a good start! Having some familiarity is valuable.",
	domain.AnswerUnclear:  "Thank you for your response.",
}

// FallbackAcknowledgment returns the static acknowledgment for a class.
func FallbackAcknowledgment(class domain.AnswerClass) string {
	if ack, ok := fallbackAcks[class]; ok {
		return ack
	}
	return fallbackAckDefault
}

// FallbackSummary returns the static completion summary.
func FallbackSummary(name, domainName string, level domain.Level) string {
	return fmt.Sprintf("Congratulations %s on completing your %s assessment! "+
		"Based on your %s level results, I've identified specific areas for your growth. "+
		"Focus on the recommended topics to strengthen your foundation, and use the suggested "+
		"projects to build practical experience. Remember, consistent practice and hands-on "+
		"projects are key to advancing your skills. Keep learning and building!",
		name, domainName, level)
}

// Fallback is a Rephraser that only ever returns static text.
type Fallback struct{}

var _ Rephraser = Fallback{}

// Rephrase returns the prompt unchanged.
func (Fallback) Rephrase(_ context.Context, prompt, _ string) string { return prompt }

// Explain returns the static clarification reply.
func (Fallback) Explain(context.Context, string, string) string { return FallbackExplain }

// Acknowledge returns the static acknowledgment for class.
func (Fallback) Acknowledge(_ context.Context, _ string, class domain.AnswerClass) string {
	return FallbackAcknowledgment(class)
}

// Summarize returns the static summary.
func (Fallback) Summarize(_ context.Context, req SummaryRequest) string {
	return FallbackSummary(req.UserName, req.Domain, req.Level)
}
