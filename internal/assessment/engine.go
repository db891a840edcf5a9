package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/extract"
	"github.com/ashureev/skillpath/internal/interrupt"
	"github.com/ashureev/skillpath/internal/store"
	"github.com/ashureev/skillpath/internal/textgen"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "skillpath/assessment"

// Engine drives assessment sessions. It is safe for concurrent use; calls
// that mutate the same session are serialized.
type Engine struct {
	store      store.Store
	content    content.Source
	rephraser  textgen.Rephraser
	interrupts *interrupt.Handler
	locks      *keyedMutex
	questions  int
	strict     bool
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates an engine over a session store and a content source.
func New(st store.Store, src content.Source, cfg Config) *Engine {
	r := cfg.Rephraser
	if r == nil {
		r = textgen.Fallback{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      st,
		content:    src,
		rephraser:  r,
		interrupts: interrupt.New(r),
		locks:      newKeyedMutex(),
		questions:  cfg.QuestionsPerSession,
		strict:     cfg.StrictInvariants,
		ttl:        cfg.SessionTTL,
		now:        time.Now,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Catalog returns the current content catalog.
func (e *Engine) Catalog() *content.Catalog {
	return e.content.Catalog()
}

// Start creates a session at the first stage.
func (e *Engine) Start(ctx context.Context) (StartResult, error) {
	ctx, span := e.tracer.Start(ctx, "assessment.Start")
	defer span.End()

	sess, err := e.store.Create(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return StartResult{}, fmt.Errorf("create session: %w", err)
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))
	e.logger.Info("session started", "session_id", sess.ID)

	return StartResult{
		SessionID:  sess.ID,
		Message:    greeting,
		NextPrompt: promptFor(sess),
		Stage:      sess.Stage,
	}, nil
}

// SubmitPersonalInfo fills the field asked by the current personal-info
// stage. Once all fields are set it leaves the session unchanged.
func (e *Engine) SubmitPersonalInfo(ctx context.Context, id, text string) (Reply, error) {
	var reply Reply
	err := e.mutate(ctx, "assessment.SubmitPersonalInfo", id, func(ctx context.Context, sess *domain.Session) error {
		if !sess.Stage.IsPersonalInfo() {
			reply = e.reply(sess, infoComplete, OutcomeNoChange)
			return nil
		}
		reply = e.personalInfo(sess, text)
		return nil
	})
	return reply, err
}

// SubmitProfile fills name, location and education in one call. Fields are
// applied in order and processing stops at the first rejected value.
func (e *Engine) SubmitProfile(ctx context.Context, id string, p Profile) (Reply, error) {
	var reply Reply
	err := e.mutate(ctx, "assessment.SubmitProfile", id, func(ctx context.Context, sess *domain.Session) error {
		reply = e.reply(sess, infoComplete, OutcomeNoChange)
		values := map[domain.Stage]string{
			domain.StageAskName:      p.Name,
			domain.StageAskLocation:  p.Location,
			domain.StageAskEducation: p.Education,
		}
		for sess.Stage.IsPersonalInfo() {
			reply = e.personalInfo(sess, values[sess.Stage])
			if reply.Outcome != OutcomeAdvanced {
				break
			}
		}
		return nil
	})
	return reply, err
}

// SubmitAnswer handles a message according to the session's stage.
func (e *Engine) SubmitAnswer(ctx context.Context, id, text string) (Reply, error) {
	var reply Reply
	err := e.mutate(ctx, "assessment.SubmitAnswer", id, func(ctx context.Context, sess *domain.Session) error {
		var err error
		switch sess.Stage {
		case domain.StageAskName, domain.StageAskLocation, domain.StageAskEducation:
			reply = e.personalInfo(sess, text)
		case domain.StageDomainSelection:
			reply = e.selectDomain(sess, text)
		case domain.StageDomainEvaluation:
			reply, err = e.answer(ctx, sess, text)
		case domain.StageResult:
			reply = e.result(sess, alreadyComplete)
			reply.Outcome = OutcomeNoChange
		default:
			err = fmt.Errorf("%w: unknown stage %q", ErrInvariantViolation, sess.Stage)
		}
		return err
	})
	return reply, err
}

// Status returns a snapshot of a session.
func (e *Engine) Status(ctx context.Context, id string) (Status, error) {
	ctx, span := e.tracer.Start(ctx, "assessment.Status", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	sess, err := e.store.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Status{}, fmt.Errorf("get session: %w", err)
	}

	st := Status{
		SessionID:      sess.ID,
		Stage:          sess.Stage,
		StageName:      sess.Stage.Name(),
		Progress:       sess.Progress(),
		Score:          sess.Score,
		MaxScore:       sess.MaxScore(),
		Domain:         sess.SelectedDomain,
		UserName:       sess.UserName,
		TotalQuestions: len(sess.QuestionSet),
		Completed:      sess.Stage == domain.StageResult,
		Level:          sess.Level,
	}
	if sess.Stage == domain.StageDomainEvaluation {
		st.QuestionNumber = sess.QuestionIndex + 1
	}
	if e.ttl > 0 {
		st.ExpiresIn = int(sess.ExpiresIn(e.ttl, e.now()).Seconds())
	}
	return st, nil
}

// mutate loads a session under its lock, applies fn, checks invariants and
// stores the result.
func (e *Engine) mutate(ctx context.Context, op, id string, fn func(context.Context, *domain.Session) error) error {
	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	unlock := e.locks.Lock(id)
	defer unlock()

	sess, err := e.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("get session: %w", err)
	}
	before := sess.Clone()

	if err := fn(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := e.checkInvariants(before, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(
		attribute.String("session.stage.from", string(before.Stage)),
		attribute.String("session.stage.to", string(sess.Stage)),
	)
	if before.Stage != sess.Stage {
		e.logger.Info("session stage changed", "session_id", id, "from", before.Stage, "to", sess.Stage)
	}

	if err := e.store.Put(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// checkInvariants verifies a step. In strict mode a violation aborts the
// step before it is stored; otherwise it is logged and the step proceeds.
func (e *Engine) checkInvariants(before, after *domain.Session) error {
	var problem string
	switch {
	case before.Stage != after.Stage && !before.Stage.CanTransition(after.Stage):
		problem = fmt.Sprintf("illegal transition %s -> %s", before.Stage, after.Stage)
	case after.QuestionIndex != len(after.AnswerLog):
		problem = fmt.Sprintf("question index %d != answer log length %d", after.QuestionIndex, len(after.AnswerLog))
	case after.QuestionIndex > len(after.QuestionSet):
		problem = fmt.Sprintf("question index %d past question set of %d", after.QuestionIndex, len(after.QuestionSet))
	case after.Score > positiveWeight(after):
		problem = fmt.Sprintf("score %d exceeds positive answer weight %d", after.Score, positiveWeight(after))
	case before.UserName != "" && after.UserName != before.UserName,
		before.UserLocation != "" && after.UserLocation != before.UserLocation,
		before.UserEducation != "" && after.UserEducation != before.UserEducation:
		problem = "personal info overwritten"
	case (after.Stage == domain.StageDomainEvaluation || after.Stage == domain.StageResult) != (after.SelectedDomain != ""):
		problem = fmt.Sprintf("selected domain %q inconsistent with stage %s", after.SelectedDomain, after.Stage)
	default:
		return nil
	}

	e.logger.Error("session invariant violated", "session_id", after.ID, "stage", after.Stage, "problem", problem)
	if e.strict {
		return fmt.Errorf("%w: %s", ErrInvariantViolation, problem)
	}
	return nil
}

func positiveWeight(sess *domain.Session) int {
	weights := make(map[string]int, len(sess.QuestionSet))
	for _, q := range sess.QuestionSet {
		weights[q.ID] = q.Weight
	}
	total := 0
	for _, rec := range sess.AnswerLog {
		if rec.Class == domain.AnswerPositive {
			total += weights[rec.QuestionID]
		}
	}
	return total
}

// reply fills the stage-derived fields of a Reply.
func (e *Engine) reply(sess *domain.Session, text string, outcome Outcome) Reply {
	r := Reply{
		Reply:    text,
		Stage:    sess.Stage,
		Progress: sess.Progress(),
		Outcome:  outcome,
	}
	if sess.Stage != domain.StageResult {
		r.NextPrompt = promptFor(sess)
	}
	if sess.Stage == domain.StageDomainEvaluation {
		r.QuestionNumber = sess.QuestionIndex + 1
		r.TotalQuestions = len(sess.QuestionSet)
	}
	return r
}

func (e *Engine) personalInfo(sess *domain.Session, text string) Reply {
	field := fieldFor(sess.Stage)
	if msg, ok := e.interrupts.HandlePersonalInfo(text, field); !ok {
		return e.reply(sess, msg, OutcomeInvalidPersonalInfo)
	}

	switch sess.Stage {
	case domain.StageAskName:
		name, ok := extract.Name(text)
		if !ok {
			return e.reply(sess, invalidName, OutcomeInvalidPersonalInfo)
		}
		sess.UserName = name
		sess.Stage = domain.StageAskLocation
	case domain.StageAskLocation:
		loc, ok := extract.Location(text)
		if !ok {
			return e.reply(sess, invalidLocation, OutcomeInvalidPersonalInfo)
		}
		sess.UserLocation = loc
		sess.Stage = domain.StageAskEducation
	case domain.StageAskEducation:
		edu, ok := extract.Education(text)
		if !ok {
			return e.reply(sess, invalidEdu, OutcomeInvalidPersonalInfo)
		}
		sess.UserEducation = edu
		sess.Stage = domain.StageDomainSelection
	}
	return e.reply(sess, "", OutcomeAdvanced)
}
