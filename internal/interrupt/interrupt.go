// Package interrupt decides whether a message is a genuine answer that may
// advance the conversation, or an interruption that only gets a side reply.
package interrupt

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/intent"
	"github.com/ashureev/skillpath/internal/textgen"
	"github.com/sahilm/fuzzy"
)

// Fixed replies.
const (
	OffTopicReply     = "That's interesting! Let's focus on completing your assessment first, and we can chat more afterward."
	GreetingReply     = "Hello! Let's continue with your assessment."
	RephrasePrefix    = "Let me rephrase that: "
	DomainRefocus     = "Let's focus on selecting your tech domain first. Which area interests you most?"
	PersonalRefocus   = "Let's get your basic information first, then we can chat more!"
	EmptyReply        = "Please provide a response."
	TooLongReply      = "That seems a bit long. Could you give me a shorter response?"
	maxPersonalLength = 100
)

// Field identifies a personal-info field.
type Field string

const (
	FieldName      Field = "name"
	FieldLocation  Field = "location"
	FieldEducation Field = "education"
)

var fieldExamples = map[Field]string{
	FieldName:      "Just tell me what you'd like me to call you - your first name is fine!",
	FieldLocation:  "Where are you based? City and country, or just country is fine.",
	FieldEducation: "What's your educational background? For example: Computer Science degree, self-taught, bootcamp, etc.",
}

// Decision is the outcome of handling a message during the assessment.
type Decision struct {
	Reply   string
	Advance bool
	Intent  intent.Intent
}

// DomainDecision is the outcome of handling a domain-selection message.
type DomainDecision struct {
	Reply  string
	Valid  bool
	Domain string
	Intent intent.Intent
}

// Handler routes interruptions. Only wording is delegated to the rephraser;
// the advance decision is always made here.
type Handler struct {
	rephraser textgen.Rephraser
}

// New creates a handler. A nil rephraser uses static fallbacks.
func New(r textgen.Rephraser) *Handler {
	if r == nil {
		r = textgen.Fallback{}
	}
	return &Handler{rephraser: r}
}

// Handle classifies text against the current question.
func (h *Handler) Handle(ctx context.Context, text string, sess *domain.Session, currentPrompt string) Decision {
	in := intent.Classify(text, currentPrompt)
	d := Decision{Intent: in}

	switch in {
	case intent.IntentAnswer:
		d.Advance = true
	case intent.IntentClarificationQuestion:
		scope := fmt.Sprintf("Current assessment question: %s. Domain: %s", currentPrompt, sess.SelectedDomain)
		d.Reply = h.rephraser.Explain(ctx, text, scope)
	case intent.IntentConfused:
		d.Reply = RephrasePrefix + h.rephraser.Rephrase(ctx, currentPrompt, sess.SelectedDomain)
	case intent.IntentOffTopic:
		d.Reply = OffTopicReply
	case intent.IntentGreeting:
		d.Reply = GreetingReply
	}
	return d
}

// HandleDomainSelection resolves a domain choice against the catalog.
func (h *Handler) HandleDomainSelection(text string, c *content.Catalog) DomainDecision {
	in := intent.Classify(text, "")
	d := DomainDecision{Intent: in}

	switch in {
	case intent.IntentConfused:
		d.Reply = DomainMenu(c)
		return d
	case intent.IntentOffTopic, intent.IntentClarificationQuestion:
		d.Reply = DomainRefocus
		return d
	}

	if name, ok := intent.SelectDomain(text, c); ok {
		d.Valid = true
		d.Domain = name
		return d
	}

	d.Reply = notRecognized(text, c)
	return d
}

// HandlePersonalInfo screens a personal-info answer before extraction.
// Greetings pass through so "hi, I'm Ana" can still yield a name.
func (h *Handler) HandlePersonalInfo(text string, field Field) (string, bool) {
	switch intent.Classify(text, "") {
	case intent.IntentConfused:
		if example, ok := fieldExamples[field]; ok {
			return example, false
		}
		return "Please provide the requested information.", false
	case intent.IntentOffTopic, intent.IntentClarificationQuestion:
		return PersonalRefocus, false
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return EmptyReply, false
	}
	if len([]rune(trimmed)) > maxPersonalLength {
		return TooLongReply, false
	}
	return "", true
}

// FieldExample returns the example prompt for a field.
func FieldExample(field Field) string {
	return fieldExamples[field]
}

// DomainMenu lists the catalog domains with their short summaries.
func DomainMenu(c *content.Catalog) string {
	domains := c.Domains()
	parts := make([]string, len(domains))
	for i, d := range domains {
		parts[i] = d.Title
		if d.Summary != "" {
			parts[i] += " (" + d.Summary + ")"
		}
	}
	return "Let me help you choose! We have these domains: " + joinList(parts, "and") + "."
}

func notRecognized(text string, c *content.Catalog) string {
	msg := "I didn't recognize that domain. Please choose from: " + joinList(c.Names(), "or") + "."
	if s := suggest(text, c); s != "" {
		msg += " Did you mean " + s + "?"
	}
	return msg
}

// suggest returns the closest domain name or alias for a typo such as "fronted".
func suggest(text string, c *content.Catalog) string {
	pattern := intent.Normalize(text)
	if len(pattern) < 3 {
		return ""
	}

	var terms []string
	owner := map[int]string{}
	for _, d := range c.Domains() {
		for _, term := range append([]string{d.Name}, d.Aliases...) {
			owner[len(terms)] = d.Name
			terms = append(terms, term)
		}
	}

	matches := fuzzy.Find(pattern, terms)
	if len(matches) == 0 {
		return ""
	}
	return owner[matches[0].Index]
}

func joinList(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + conj + " " + items[len(items)-1]
}
