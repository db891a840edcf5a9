package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/intent"
	"github.com/ashureev/skillpath/internal/scoring"
	"github.com/ashureev/skillpath/internal/textgen"
)

func (e *Engine) selectDomain(sess *domain.Session, text string) Reply {
	cat := e.content.Catalog()
	dec := e.interrupts.HandleDomainSelection(text, cat)
	if !dec.Valid {
		outcome := OutcomeInvalidDomain
		if dec.Intent.IsInterruption() {
			outcome = OutcomeInterrupted
		}
		r := e.reply(sess, dec.Reply, outcome)
		r.Intent = dec.Intent.String()
		return r
	}

	d, ok := cat.Domain(dec.Domain)
	if !ok {
		return e.reply(sess, "I didn't recognize that domain.", OutcomeInvalidDomain)
	}
	e.startAssessment(sess, d)
	return e.reply(sess, domainChosen(sess.UserName, d.Title), OutcomeAdvanced)
}

// startAssessment draws the question set for d and moves to evaluation.
func (e *Engine) startAssessment(sess *domain.Session, d *content.Domain) {
	questions := scoring.SelectQuestions(sess.ID, d.Name, d.Questions, e.questions)
	sess.ResetAssessment(d.Name, questions)
	sess.Stage = domain.StageDomainEvaluation
	e.logger.Info("assessment started",
		"session_id", sess.ID,
		"domain", d.Name,
		"questions", len(questions),
	)
}

func (e *Engine) answer(ctx context.Context, sess *domain.Session, text string) (Reply, error) {
	q, ok := sess.CurrentQuestion()
	if !ok {
		return e.exhausted(ctx, sess)
	}

	dec := e.interrupts.Handle(ctx, text, sess, q.Prompt)
	if !dec.Advance {
		e.logger.Debug("assessment interrupted", "session_id", sess.ID, "intent", dec.Intent.String())
		r := e.reply(sess, dec.Reply, OutcomeInterrupted)
		r.Intent = dec.Intent.String()
		return r, nil
	}

	class := intent.ClassifyAnswer(text)
	if !class.Advances() {
		r := e.reply(sess, unclearAnswer, OutcomeUnclearAnswer)
		r.Intent = dec.Intent.String()
		return r, nil
	}

	rec := domain.AnswerRecord{
		QuestionID: q.ID,
		Prompt:     q.Prompt,
		Answer:     strings.TrimSpace(text),
		Class:      class,
	}
	if class == domain.AnswerNegative {
		rec.Explanation = q.Explanation
	}
	sess.Score += scoring.ScoreAnswer(class, q.Weight)
	sess.AnswerLog = append(sess.AnswerLog, rec)
	sess.QuestionIndex++

	ack := e.rephraser.Acknowledge(ctx, rec.Answer, class)
	if rec.Explanation != "" {
		ack += " " + rec.Explanation
	}

	if sess.QuestionIndex >= len(sess.QuestionSet) {
		r := e.complete(ctx, sess)
		r.Reply = ack + " " + r.Reply
		return r, nil
	}

	r := e.reply(sess, ack, OutcomeAdvanced)
	r.Intent = dec.Intent.String()
	return r, nil
}

// exhausted handles a cursor that already points past the question set.
func (e *Engine) exhausted(ctx context.Context, sess *domain.Session) (Reply, error) {
	e.logger.Error("question bank exhausted",
		"session_id", sess.ID,
		"domain", sess.SelectedDomain,
		"question_index", sess.QuestionIndex,
		"questions", len(sess.QuestionSet),
	)
	if e.strict {
		return Reply{}, fmt.Errorf("session %s: %w", sess.ID, domain.ErrQuestionBankExhausted)
	}
	if sess.QuestionIndex > len(sess.QuestionSet) {
		sess.QuestionIndex = len(sess.QuestionSet)
	}
	if len(sess.AnswerLog) > sess.QuestionIndex {
		sess.AnswerLog = sess.AnswerLog[:sess.QuestionIndex]
	}
	return e.complete(ctx, sess), nil
}

// complete moves the session to RESULT and builds the report.
func (e *Engine) complete(ctx context.Context, sess *domain.Session) Reply {
	d := e.domainFor(sess.SelectedDomain)
	recs := scoring.BuildRecommendations(d, sess.Score, sess.MaxScore(), sess.AnswerLog)

	sess.Stage = domain.StageResult
	sess.Level = recs.Level
	sess.Summary = e.rephraser.Summarize(ctx, textgen.SummaryRequest{
		UserName: sess.UserName,
		Domain:   d.Title,
		Level:    recs.Level,
		Topics:   recs.Topics,
		Projects: recs.Projects,
	})

	e.logger.Info("assessment completed",
		"session_id", sess.ID,
		"domain", sess.SelectedDomain,
		"score", sess.Score,
		"max_score", sess.MaxScore(),
		"level", recs.Level,
	)

	r := e.reply(sess, completedReply, OutcomeCompleted)
	r.Completed = true
	r.Recommendations = &recs
	r.Summary = sess.Summary
	return r
}

// result replays the report of a finished session.
func (e *Engine) result(sess *domain.Session, text string) Reply {
	d := e.domainFor(sess.SelectedDomain)
	recs := scoring.BuildRecommendations(d, sess.Score, sess.MaxScore(), sess.AnswerLog)
	r := e.reply(sess, text, OutcomeCompleted)
	r.Completed = true
	r.Recommendations = &recs
	r.Summary = sess.Summary
	return r
}

// domainFor looks a domain up in the current catalog. A domain removed by a
// content reload still yields a usable, content-free entry.
func (e *Engine) domainFor(name string) *content.Domain {
	if d, ok := e.content.Catalog().Domain(name); ok {
		return d
	}
	title := name
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return &content.Domain{Name: name, Title: title}
}
