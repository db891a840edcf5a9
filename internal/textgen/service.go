package textgen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/skillpath/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout = 4 * time.Second

	// Minimum length allowances for short inputs such as "yes".
	minAckLimit     = 100
	minExplainLimit = 400
	minSummaryLimit = 1200
)

var errTooLong = errors.New("response exceeds length guard")

// Service wraps a Generator with a timeout, a length guard and static
// fallbacks. A nil generator makes every call return its fallback.
type Service struct {
	gen     Generator
	timeout time.Duration
	group   singleflight.Group
	logger  *slog.Logger
}

var _ Rephraser = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for degraded calls.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a guarded rephrasing service.
func NewService(gen Generator, opts ...Option) *Service {
	s := &Service{
		gen:     gen,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

// Rephrase returns a conversational version of a question, or the question
// itself when generation is unavailable or the output is more than twice as long.
func (s *Service) Rephrase(ctx context.Context, prompt, domainName string) string {
	if s.gen == nil {
		return prompt
	}
	key := domainName + "\x00" + prompt
	// The shared call outlives any single caller; generate bounds it with
	// the service timeout.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		out, err := s.generate(shared, "rephrase", buildRephrase(prompt, domainName), 2*len(prompt))
		if err != nil {
			return prompt, nil
		}
		return out, nil
	})
	select {
	case res := <-ch:
		return res.Val.(string)
	case <-ctx.Done():
		return prompt
	}
}

// Explain answers a clarification question and always steers back to the assessment.
func (s *Service) Explain(ctx context.Context, question, scope string) string {
	if s.gen == nil {
		return FallbackExplain
	}
	limit := max(2*(len(question)+len(scope)), minExplainLimit)
	out, err := s.generate(ctx, "explain", buildExplain(question, scope), limit)
	if err != nil {
		return FallbackExplain
	}
	if !strings.Contains(strings.ToLower(out), "continue with the assessment") {
		out += ContinueSuffix
	}
	return out
}

// Acknowledge returns a one-sentence reaction to an answer.
func (s *Service) Acknowledge(ctx context.Context, answer string, class domain.AnswerClass) string {
	if s.gen == nil {
		return FallbackAcknowledgment(class)
	}
	limit := max(2*len(answer), minAckLimit)
	out, err := s.generate(ctx, "acknowledge", buildAcknowledge(answer, class), limit)
	if err != nil {
		return FallbackAcknowledgment(class)
	}
	return out
}

// Summarize writes the personalized completion message.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) string {
	if s.gen == nil {
		return FallbackSummary(req.UserName, req.Domain, req.Level)
	}
	input := len(req.UserName) + len(req.Domain) + len(strings.Join(req.Topics, ", ")) + len(strings.Join(req.Projects, ", "))
	out, err := s.generate(ctx, "summarize", buildSummary(req), max(2*input, minSummaryLimit))
	if err != nil {
		return FallbackSummary(req.UserName, req.Domain, req.Level)
	}
	return out
}

// generate runs one guarded generator call. Any error means the caller
// should use its fallback.
func (s *Service) generate(ctx context.Context, op, prompt string, limit int) (string, error) {
	ctx, span := otel.Tracer("skillpath/textgen").Start(ctx, "textgen."+op)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.gen.Generate(ctx, prompt)
	out = strings.TrimSpace(out)
	switch {
	case err != nil:
	case out == "":
		err = ErrEmptyResponse
	case len(out) > limit:
		err = errTooLong
	}

	span.SetAttributes(
		attribute.String("textgen.op", op),
		attribute.Int("textgen.output_len", len(out)),
		attribute.Int("textgen.limit", limit),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("text generation degraded to fallback",
			"op", op,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", err
	}
	return out, nil
}
