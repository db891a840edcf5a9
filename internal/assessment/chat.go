package assessment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/intent"
)

var (
	thanksPattern  = regexp.MustCompile(`\b(thanks?|thank you|thx|appreciate\w*|helpful)\b`)
	improvePattern = regexp.MustCompile(`\b(improve|better|learn|study|focus|next|recommend\w*)\b`)
	helpPattern    = regexp.MustCompile(`\b(how|what|why|when|where|help|guide|tutorial)\b`)
	okPattern      = regexp.MustCompile(`^(ok|okay|let's go|lets go)[.!]*$`)
)

// Chat answers a post-assessment message. Mentioning another domain offers a
// restart with that domain; confirming the offer restarts the evaluation.
func (e *Engine) Chat(ctx context.Context, id, text string) (ChatReply, error) {
	var reply ChatReply
	err := e.mutate(ctx, "assessment.Chat", id, func(ctx context.Context, sess *domain.Session) error {
		reply = e.chat(sess, text)
		reply.Stage = sess.Stage
		return nil
	})
	return reply, err
}

func (e *Engine) chat(sess *domain.Session, text string) ChatReply {
	if sess.Stage != domain.StageResult {
		return ChatReply{Reply: chatNotReady}
	}

	cat := e.content.Catalog()
	msg := intent.Normalize(text)
	current := e.domainFor(sess.SelectedDomain)

	if sess.PendingSwitchDomain != "" {
		switch {
		case okPattern.MatchString(msg) || intent.ClassifyAnswer(msg) == domain.AnswerPositive:
			d, ok := cat.Domain(sess.PendingSwitchDomain)
			sess.PendingSwitchDomain = ""
			if !ok {
				return ChatReply{Reply: "That domain is no longer available."}
			}
			e.startAssessment(sess, d)
			return ChatReply{
				Reply:      switched(d.Title),
				Switched:   true,
				NextPrompt: promptFor(sess),
			}
		case intent.ClassifyAnswer(msg) == domain.AnswerNegative:
			sess.PendingSwitchDomain = ""
			return ChatReply{Reply: switchDeclined(current.Title)}
		}
	}

	if name, ok := intent.MentionedDomain(msg, cat); ok && name != sess.SelectedDomain {
		d, _ := cat.Domain(name)
		sess.PendingSwitchDomain = name
		return ChatReply{Reply: switchOffer(d.Title), SwitchDomain: name}
	}

	switch {
	case thanksPattern.MatchString(msg):
		return ChatReply{Reply: thanksReply}
	case improvePattern.MatchString(msg):
		return ChatReply{
			Reply: improveReply(current.Title, current.TipsFor(sess.Level)),
			Docs:  current.Docs,
		}
	case helpPattern.MatchString(msg):
		if sess.DocsShown {
			return ChatReply{Reply: docsAgainReply}
		}
		sess.DocsShown = true
		return ChatReply{Reply: docsFirstReply, Docs: current.Docs}
	}
	return ChatReply{Reply: defaultReply}
}

// Feedback thanks the user for free-text feedback and returns the docs of
// the assessed domain.
func (e *Engine) Feedback(ctx context.Context, id, text string) (FeedbackReply, error) {
	ctx, span := e.tracer.Start(ctx, "assessment.Feedback")
	defer span.End()

	sess, err := e.store.Get(ctx, id)
	if err != nil {
		return FeedbackReply{}, fmt.Errorf("get session: %w", err)
	}

	e.logger.Info("feedback received",
		"session_id", id,
		"domain", sess.SelectedDomain,
		"length", len(strings.TrimSpace(text)),
	)

	if sess.SelectedDomain == "" {
		return FeedbackReply{Reply: feedbackPlain}, nil
	}
	name := sess.UserName
	if name == "" {
		name = "there"
	}
	return FeedbackReply{
		Reply: feedbackThanks(name),
		Docs:  e.domainFor(sess.SelectedDomain).Docs,
	}, nil
}

var roadmapLevels = []domain.Level{domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced}

// Roadmap builds a learning plan for a catalog domain.
func (e *Engine) Roadmap(name string) (Roadmap, error) {
	catalog := e.content.Catalog()
	d, ok := catalog.Domain(name)
	if !ok {
		// Accept slugs ("data-analytics") and aliases.
		resolved, matched := intent.SelectDomain(strings.ReplaceAll(name, "-", " "), catalog)
		if matched {
			d, ok = catalog.Domain(resolved)
		}
	}
	if !ok {
		return Roadmap{}, fmt.Errorf("%w: %q", domain.ErrUnknownDomain, name)
	}

	steps := make([]RoadmapStep, len(roadmapLevels))
	for i, level := range roadmapLevels {
		steps[i] = RoadmapStep{
			Step:   i + 1,
			Level:  level,
			Title:  fmt.Sprintf("%s %s", level, d.Title),
			Topics: d.TipsFor(level),
		}
	}

	return Roadmap{
		Domain:      d.Name,
		Title:       d.Title + " Roadmap",
		Description: fmt.Sprintf("A step-by-step path through %s: %s.", d.Title, d.Summary),
		Steps:       steps,
		Topics:      d.Topics,
		Projects:    d.Projects,
		Docs:        d.Docs,
	}, nil
}
