package interrupt

import (
	"context"
	"strings"
	"testing"

	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/intent"
	"github.com/ashureev/skillpath/internal/textgen"
)

type recordingRephraser struct {
	textgen.Fallback
	rephrased string
	explained string
}

func (r *recordingRephraser) Rephrase(_ context.Context, prompt, _ string) string {
	r.rephrased = prompt
	return "Have you worked with " + prompt
}

func (r *recordingRephraser) Explain(_ context.Context, question, _ string) string {
	r.explained = question
	return "Short answer." + textgen.ContinueSuffix
}

func TestHandle(t *testing.T) {
	t.Parallel()

	sess := &domain.Session{SelectedDomain: "backend"}
	prompt := "Do you have experience with RESTful API design?"

	tests := []struct {
		name        string
		input       string
		wantAdvance bool
		wantIntent  intent.Intent
		wantReply   string
	}{
		{name: "answer", input: "yes", wantAdvance: true, wantIntent: intent.IntentAnswer},
		{name: "clarification", input: "what is REST?", wantIntent: intent.IntentClarificationQuestion, wantReply: "Short answer." + textgen.ContinueSuffix},
		{name: "confused", input: "huh?", wantIntent: intent.IntentConfused, wantReply: RephrasePrefix + "Have you worked with " + prompt},
		{name: "off topic", input: "what's for lunch?", wantIntent: intent.IntentOffTopic, wantReply: OffTopicReply},
		{name: "greeting", input: "hello", wantIntent: intent.IntentGreeting, wantReply: GreetingReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := New(&recordingRephraser{})
			d := h.Handle(context.Background(), tt.input, sess, prompt)
			if d.Advance != tt.wantAdvance {
				t.Fatalf("Advance = %v, want %v", d.Advance, tt.wantAdvance)
			}
			if d.Intent != tt.wantIntent {
				t.Fatalf("Intent = %s, want %s", d.Intent, tt.wantIntent)
			}
			if d.Reply != tt.wantReply {
				t.Fatalf("Reply = %q, want %q", d.Reply, tt.wantReply)
			}
		})
	}
}

func TestHandleFallbacks(t *testing.T) {
	t.Parallel()

	h := New(nil)
	sess := &domain.Session{SelectedDomain: "backend"}
	prompt := "Do you know SQL?"

	if d := h.Handle(context.Background(), "what", sess, prompt); d.Reply != RephrasePrefix+prompt {
		t.Fatalf("confused fallback = %q", d.Reply)
	}
	if d := h.Handle(context.Background(), "can you explain sql joins", sess, prompt); d.Reply != textgen.FallbackExplain {
		t.Fatalf("clarification fallback = %q", d.Reply)
	}
}

func TestHandleDomainSelection(t *testing.T) {
	t.Parallel()

	c := content.MustDefault()
	h := New(nil)

	d := h.HandleDomainSelection("I love frontend stuff", c)
	if !d.Valid || d.Domain != "frontend" {
		t.Fatalf("expected frontend, got %+v", d)
	}

	d = h.HandleDomainSelection("ML", c)
	if !d.Valid || d.Domain != "machine learning" {
		t.Fatalf("expected alias match, got %+v", d)
	}

	d = h.HandleDomainSelection("I'm confused", c)
	if d.Valid || !strings.HasPrefix(d.Reply, "Let me help you choose! We have these domains: Backend (servers/APIs), Frontend (websites/apps)") {
		t.Fatalf("unexpected menu: %+v", d)
	}
	if !strings.HasSuffix(d.Reply, "and Algorithms (problem solving).") {
		t.Fatalf("unexpected menu ending: %q", d.Reply)
	}

	d = h.HandleDomainSelection("what's the weather like?", c)
	if d.Valid || d.Reply != DomainRefocus {
		t.Fatalf("expected refocus, got %+v", d)
	}

	d = h.HandleDomainSelection("fronted", c)
	if d.Valid {
		t.Fatalf("typo must not be accepted: %+v", d)
	}
	if !strings.HasPrefix(d.Reply, "I didn't recognize that domain. Please choose from: backend, frontend") {
		t.Fatalf("unexpected reply: %q", d.Reply)
	}
	if !strings.Contains(d.Reply, "or algorithms.") || !strings.Contains(d.Reply, "Did you mean frontend?") {
		t.Fatalf("expected suggestion, got %q", d.Reply)
	}
}

func TestHandlePersonalInfo(t *testing.T) {
	t.Parallel()

	h := New(nil)

	tests := []struct {
		name      string
		input     string
		field     Field
		wantReply string
		wantOK    bool
	}{
		{name: "valid", input: "John", field: FieldName, wantOK: true},
		{name: "greeting passes", input: "Hi, I'm John", field: FieldName, wantOK: true},
		{name: "confused name", input: "I don't understand", field: FieldName, wantReply: FieldExample(FieldName)},
		{name: "confused education", input: "huh", field: FieldEducation, wantReply: FieldExample(FieldEducation)},
		{name: "off topic", input: "what time is it?", field: FieldLocation, wantReply: PersonalRefocus},
		{name: "empty", input: "  ", field: FieldLocation, wantReply: EmptyReply},
		{name: "too long", input: strings.Repeat("a", 101), field: FieldEducation, wantReply: TooLongReply},
	}

	for _, tt := range tests {
		reply, ok := h.HandlePersonalInfo(tt.input, tt.field)
		if ok != tt.wantOK || reply != tt.wantReply {
			t.Errorf("%s: HandlePersonalInfo(%q) = %q, %v; want %q, %v", tt.name, tt.input, reply, ok, tt.wantReply, tt.wantOK)
		}
	}
}
