package assessment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/store"
	"github.com/ashureev/skillpath/internal/textgen"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	return New(st, content.NewStatic(content.MustDefault()), cfg), st
}

// startAt runs the personal-info stages and selects domainText.
func startAt(t *testing.T, e *Engine, domainText string) string {
	t.Helper()
	ctx := context.Background()

	start, err := e.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if start.Stage != domain.StageAskName || start.NextPrompt == "" {
		t.Fatalf("unexpected start: %+v", start)
	}

	for _, in := range []string{"John", "Boston", "Computer Science"} {
		r, err := e.SubmitPersonalInfo(ctx, start.SessionID, in)
		if err != nil {
			t.Fatalf("SubmitPersonalInfo(%q) failed: %v", in, err)
		}
		if r.Outcome != OutcomeAdvanced {
			t.Fatalf("SubmitPersonalInfo(%q) outcome = %s (%q)", in, r.Outcome, r.Reply)
		}
	}

	r, err := e.SubmitAnswer(ctx, start.SessionID, domainText)
	if err != nil {
		t.Fatalf("domain selection failed: %v", err)
	}
	if r.Stage != domain.StageDomainEvaluation || r.Outcome != OutcomeAdvanced {
		t.Fatalf("domain selection did not advance: %+v", r)
	}
	return start.SessionID
}

func mustSession(t *testing.T, st store.Store, id string) *domain.Session {
	t.Helper()
	sess, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", id, err)
	}
	return sess
}

func answerAll(t *testing.T, e *Engine, id, text string) Reply {
	t.Helper()
	var last Reply
	for i := 0; i < 20; i++ {
		r, err := e.SubmitAnswer(context.Background(), id, text)
		if err != nil {
			t.Fatalf("SubmitAnswer(%q) failed: %v", text, err)
		}
		last = r
		if r.Completed {
			return last
		}
	}
	t.Fatalf("assessment did not complete, last reply %+v", last)
	return last
}

func TestAllPositiveAnswersReachAdvanced(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")

	sess := mustSession(t, st, id)
	if len(sess.QuestionSet) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(sess.QuestionSet))
	}
	if sess.UserName != "John" || sess.UserLocation != "Boston" || sess.UserEducation != "Computer Science" {
		t.Fatalf("unexpected personal info: %+v", sess)
	}

	final := answerAll(t, e, id, "yes")
	if final.Stage != domain.StageResult || final.Outcome != OutcomeCompleted {
		t.Fatalf("unexpected final reply: %+v", final)
	}
	if final.Recommendations == nil || final.Recommendations.Level != domain.LevelAdvanced {
		t.Fatalf("expected Advanced, got %+v", final.Recommendations)
	}
	if final.Recommendations.Score != "6/6" || final.Progress != 100 || final.NextPrompt != "" {
		t.Fatalf("unexpected result fields: %+v", final)
	}

	sess = mustSession(t, st, id)
	if sess.Score != 6 || sess.Stage != domain.StageResult || sess.Level != domain.LevelAdvanced {
		t.Fatalf("unexpected session: score=%d stage=%s level=%s", sess.Score, sess.Stage, sess.Level)
	}
	if sess.Summary == "" {
		t.Fatal("expected a summary")
	}
}

func TestAllNegativeAnswersReachBeginner(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")
	final := answerAll(t, e, id, "no")

	recs := final.Recommendations
	if recs == nil || recs.Level != domain.LevelBeginner {
		t.Fatalf("expected Beginner, got %+v", recs)
	}

	sess := mustSession(t, st, id)
	if sess.Score != 0 {
		t.Fatalf("expected score 0, got %d", sess.Score)
	}
	if len(recs.AreasToImprove) != 6 {
		t.Fatalf("expected 6 areas to improve, got %d", len(recs.AreasToImprove))
	}
	for i, area := range recs.AreasToImprove {
		q := sess.QuestionSet[i]
		if area.Question != q.Prompt || area.Explanation != q.Explanation || area.Explanation == "" {
			t.Fatalf("area %d = %+v, want question %+v", i, area, q)
		}
	}
}

func TestNegativeAnswerRepliesWithExplanation(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")
	q, _ := mustSession(t, st, id).CurrentQuestion()

	r, err := e.SubmitAnswer(context.Background(), id, "nope")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if !strings.HasSuffix(r.Reply, q.Explanation) {
		t.Fatalf("reply %q does not end with explanation %q", r.Reply, q.Explanation)
	}
	if r.QuestionNumber != 2 || r.TotalQuestions != 6 {
		t.Fatalf("unexpected question counters: %d/%d", r.QuestionNumber, r.TotalQuestions)
	}
}

func TestClarificationDoesNotAdvance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")

	r, err := e.SubmitAnswer(ctx, id, "what is REST?")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if r.Outcome != OutcomeInterrupted || r.Intent != "clarification_question" {
		t.Fatalf("expected clarification, got %+v", r)
	}
	if r.Reply != textgen.FallbackExplain {
		t.Fatalf("unexpected clarification reply %q", r.Reply)
	}
	if got := mustSession(t, st, id).QuestionIndex; got != 0 {
		t.Fatalf("question index moved to %d", got)
	}

	r, err = e.SubmitAnswer(ctx, id, "yes")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	sess := mustSession(t, st, id)
	if r.Outcome != OutcomeAdvanced || sess.QuestionIndex != 1 || sess.Score != 1 {
		t.Fatalf("yes did not advance: outcome=%s index=%d score=%d", r.Outcome, sess.QuestionIndex, sess.Score)
	}
}

func TestInterruptionsDoNotAdvance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		intent string
	}{
		{"hello there", "greeting"},
		{"huh?", "confused"},
		{"I don't understand", "confused"},
		{"what's the weather like today?", "off_topic"},
		{"can you explain what a cache is?", "clarification_question"},
	}

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "frontend")

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			before := mustSession(t, st, id)
			r, err := e.SubmitAnswer(context.Background(), id, tt.input)
			if err != nil {
				t.Fatalf("SubmitAnswer failed: %v", err)
			}
			after := mustSession(t, st, id)
			if after.QuestionIndex != before.QuestionIndex || after.Score != before.Score {
				t.Fatalf("interruption advanced: %d -> %d", before.QuestionIndex, after.QuestionIndex)
			}
			if r.Intent != tt.intent || r.Outcome != OutcomeInterrupted {
				t.Fatalf("got intent %q outcome %s, want %q", r.Intent, r.Outcome, tt.intent)
			}
			if r.NextPrompt != before.QuestionSet[before.QuestionIndex].Prompt {
				t.Fatalf("next prompt %q is not the current question", r.NextPrompt)
			}
		})
	}
}

func TestUnclearAnswerRepeatsQuestion(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "devops")

	r, err := e.SubmitAnswer(context.Background(), id, "pizza")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if r.Outcome != OutcomeUnclearAnswer || r.Reply != unclearAnswer {
		t.Fatalf("unexpected reply: %+v", r)
	}
	if got := mustSession(t, st, id).QuestionIndex; got != 0 {
		t.Fatalf("question index moved to %d", got)
	}
}

func TestNegatedPositiveCountsAsNo(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "devops")

	r, err := e.SubmitAnswer(context.Background(), id, "that's not true")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if r.Outcome == OutcomeUnclearAnswer {
		t.Fatalf("negated positive treated as unclear: %+v", r)
	}
	sess := mustSession(t, st, id)
	if sess.QuestionIndex != 1 || sess.Score != 0 {
		t.Fatalf("unexpected progress: index=%d score=%d", sess.QuestionIndex, sess.Score)
	}
	if len(sess.AnswerLog) != 1 || sess.AnswerLog[0].Class != domain.AnswerNegative {
		t.Fatalf("unexpected answer log: %+v", sess.AnswerLog)
	}
}

func TestPartialAnswerAdvancesWithoutScore(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "devops")

	if _, err := e.SubmitAnswer(context.Background(), id, "kind of"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	sess := mustSession(t, st, id)
	if sess.QuestionIndex != 1 || sess.Score != 0 {
		t.Fatalf("unexpected progress: index=%d score=%d", sess.QuestionIndex, sess.Score)
	}
	if rec := sess.AnswerLog[0]; rec.Class != domain.AnswerPartial || rec.Explanation != "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})

	if _, err := e.SubmitAnswer(ctx, "no-such-session", "yes"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("SubmitAnswer: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := e.Chat(ctx, "no-such-session", "hi"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Chat: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := e.Status(ctx, "no-such-session"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Status: expected ErrSessionNotFound, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("unknown session id created %d sessions", st.Len())
	}
	if e.locks.size() != 0 {
		t.Fatalf("lock entries leaked: %d", e.locks.size())
	}
}

func TestDomainSelectionBySubstring(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "I love frontend stuff")

	if got := mustSession(t, st, id).SelectedDomain; got != "frontend" {
		t.Fatalf("selected domain = %q, want frontend", got)
	}
}

func TestDomainSelectionRejectsUnknown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})
	start, _ := e.Start(ctx)
	for _, in := range []string{"Ana", "Lisbon", "Self-taught"} {
		if _, err := e.SubmitPersonalInfo(ctx, start.SessionID, in); err != nil {
			t.Fatalf("SubmitPersonalInfo failed: %v", err)
		}
	}

	r, err := e.SubmitAnswer(ctx, start.SessionID, "gardening")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if r.Outcome != OutcomeInvalidDomain || r.Stage != domain.StageDomainSelection {
		t.Fatalf("unexpected reply: %+v", r)
	}

	r, _ = e.SubmitAnswer(ctx, start.SessionID, "I'm confused")
	if r.Outcome != OutcomeInterrupted || !strings.HasPrefix(r.Reply, "Let me help you choose!") {
		t.Fatalf("expected domain menu, got %+v", r)
	}

	if sess := mustSession(t, st, start.SessionID); sess.SelectedDomain != "" {
		t.Fatalf("domain set on invalid input: %q", sess.SelectedDomain)
	}
}

func TestInvalidPersonalInfoReprompts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		reply string
	}{
		{"", "Please provide a response."},
		{"r2d2", invalidName},
		{"hi", invalidName},
		{"what do you mean?", "Just tell me what you'd like me to call you - your first name is fine!"},
		{"can you tell me a joke?", "Let's get your basic information first, then we can chat more!"},
	}

	e, st := newTestEngine(t, Config{})
	start, _ := e.Start(context.Background())

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := e.SubmitPersonalInfo(context.Background(), start.SessionID, tt.input)
			if err != nil {
				t.Fatalf("SubmitPersonalInfo failed: %v", err)
			}
			if r.Outcome != OutcomeInvalidPersonalInfo || r.Reply != tt.reply {
				t.Fatalf("got %s %q, want %q", r.Outcome, r.Reply, tt.reply)
			}
			if r.NextPrompt != askName {
				t.Fatalf("next prompt = %q", r.NextPrompt)
			}
		})
	}

	if sess := mustSession(t, st, start.SessionID); sess.Stage != domain.StageAskName || sess.UserName != "" {
		t.Fatalf("session changed: %+v", sess)
	}
}

func TestPersonalInfoIsSetOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")

	for _, in := range []string{"Bob", "Paris", "History"} {
		r, err := e.SubmitPersonalInfo(ctx, id, in)
		if err != nil {
			t.Fatalf("SubmitPersonalInfo failed: %v", err)
		}
		if r.Outcome != OutcomeNoChange {
			t.Fatalf("expected no change, got %+v", r)
		}
	}

	_, err := e.SubmitProfile(ctx, id, Profile{Name: "Bob", Location: "Paris", Education: "History"})
	if err != nil {
		t.Fatalf("SubmitProfile failed: %v", err)
	}

	sess := mustSession(t, st, id)
	if sess.UserName != "John" || sess.UserLocation != "Boston" || sess.UserEducation != "Computer Science" {
		t.Fatalf("personal info changed: %+v", sess)
	}
	if sess.QuestionIndex != 0 || sess.Stage != domain.StageDomainEvaluation {
		t.Fatalf("personal info resubmission moved the session: %+v", sess)
	}
}

func TestSubmitProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})
	start, _ := e.Start(ctx)

	r, err := e.SubmitProfile(ctx, start.SessionID, Profile{Name: "my name is maria", Location: "42"})
	if err != nil {
		t.Fatalf("SubmitProfile failed: %v", err)
	}
	if r.Outcome != OutcomeInvalidPersonalInfo || r.Stage != domain.StageAskLocation {
		t.Fatalf("expected to stop at location, got %+v", r)
	}

	r, err = e.SubmitProfile(ctx, start.SessionID, Profile{Location: "Madrid, Spain", Education: "Mathematics"})
	if err != nil {
		t.Fatalf("SubmitProfile failed: %v", err)
	}
	if r.Stage != domain.StageDomainSelection || r.NextPrompt != askDomain {
		t.Fatalf("expected domain selection, got %+v", r)
	}

	sess := mustSession(t, st, start.SessionID)
	if sess.UserName != "Maria" || sess.UserLocation != "Madrid, Spain" || sess.UserEducation != "Mathematics" {
		t.Fatalf("unexpected profile: %+v", sess)
	}
}

func TestStageOrderIsMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{StrictInvariants: true})
	start, _ := e.Start(ctx)

	inputs := []string{
		"", "hi", "John", "???", "huh", "Boston", "what?", "a", "CS degree",
		"pizza", "backend", "how are you", "yes", "maybe", "no", "what is an api?",
		"3", "yes", "no", "yes", "no", "yes",
	}

	last := -1
	for _, in := range inputs {
		if _, err := e.SubmitAnswer(ctx, start.SessionID, in); err != nil {
			t.Fatalf("SubmitAnswer(%q) failed: %v", in, err)
		}
		sess := mustSession(t, st, start.SessionID)
		idx := sess.Stage.Index()
		if idx < last {
			t.Fatalf("stage moved backwards to %s after %q", sess.Stage, in)
		}
		if sess.QuestionIndex != len(sess.AnswerLog) {
			t.Fatalf("index %d != log %d after %q", sess.QuestionIndex, len(sess.AnswerLog), in)
		}
		last = idx
	}
}

func TestQuestionSetIsDeterministicAcrossSwitches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")
	first := mustSession(t, st, id).QuestionSet
	answerAll(t, e, id, "yes")

	cr, err := e.Chat(ctx, id, "I'm also curious about frontend")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if cr.SwitchDomain != "frontend" || cr.Switched {
		t.Fatalf("expected a switch offer, got %+v", cr)
	}
	cr, err = e.Chat(ctx, id, "yes")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !cr.Switched || cr.Stage != domain.StageDomainEvaluation || cr.NextPrompt == "" {
		t.Fatalf("expected switch, got %+v", cr)
	}

	sess := mustSession(t, st, id)
	if sess.SelectedDomain != "frontend" || sess.QuestionIndex != 0 || sess.Score != 0 || len(sess.AnswerLog) != 0 {
		t.Fatalf("switch did not reset: %+v", sess)
	}
	if sess.UserName != "John" {
		t.Fatalf("switch lost personal info: %+v", sess)
	}
	answerAll(t, e, id, "no")

	if _, err := e.Chat(ctx, id, "actually back end please"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if _, err := e.Chat(ctx, id, "ok"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	again := mustSession(t, st, id).QuestionSet
	if len(again) != len(first) {
		t.Fatalf("question set size changed: %d vs %d", len(again), len(first))
	}
	for i := range first {
		if first[i].ID != again[i].ID {
			t.Fatalf("question %d differs: %s vs %s", i, first[i].ID, again[i].ID)
		}
	}
}

func TestSwitchOfferCanBeDeclined(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")
	answerAll(t, e, id, "yes")

	if _, err := e.Chat(ctx, id, "what about devops?"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if got := mustSession(t, st, id).PendingSwitchDomain; got != "devops" {
		t.Fatalf("pending switch = %q", got)
	}

	cr, err := e.Chat(ctx, id, "no thanks")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	sess := mustSession(t, st, id)
	if cr.Switched || sess.PendingSwitchDomain != "" || sess.Stage != domain.StageResult {
		t.Fatalf("decline did not clear offer: %+v, %+v", cr, sess)
	}
}

func TestChatReplies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newTestEngine(t, Config{})
	id := startAt(t, e, "backend")

	cr, err := e.Chat(ctx, id, "hello?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if cr.Reply != chatNotReady {
		t.Fatalf("expected not-ready reply, got %q", cr.Reply)
	}

	answerAll(t, e, id, "yes")

	tests := []struct {
		input    string
		reply    string
		wantDocs bool
	}{
		{"thank you so much", thanksReply, false},
		{"how do I get started?", docsFirstReply, true},
		{"where can I read more?", docsAgainReply, false},
		{"ok cool", defaultReply, false},
	}
	for _, tt := range tests {
		cr, err := e.Chat(ctx, id, tt.input)
		if err != nil {
			t.Fatalf("Chat(%q) failed: %v", tt.input, err)
		}
		if cr.Reply != tt.reply {
			t.Fatalf("Chat(%q) = %q, want %q", tt.input, cr.Reply, tt.reply)
		}
		if (len(cr.Docs) > 0) != tt.wantDocs {
			t.Fatalf("Chat(%q) docs = %v", tt.input, cr.Docs)
		}
	}

	cr, err = e.Chat(ctx, id, "what should I study next?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !strings.HasPrefix(cr.Reply, "To improve your Backend skills, I recommend focusing on: System design") || len(cr.Docs) == 0 {
		t.Fatalf("unexpected improvement reply: %+v", cr)
	}
}

func TestResultReplay(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{})
	id := startAt(t, e, "algorithms")
	answerAll(t, e, id, "yes")
	before := mustSession(t, st, id)

	r, err := e.SubmitAnswer(context.Background(), id, "no")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if !r.Completed || r.Outcome != OutcomeNoChange || r.Recommendations == nil {
		t.Fatalf("unexpected replay: %+v", r)
	}
	if after := mustSession(t, st, id); after.Score != before.Score || len(after.AnswerLog) != len(before.AnswerLog) {
		t.Fatal("replay changed the session")
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newTestEngine(t, Config{})
	id := startAt(t, e, "cybersecurity")
	for range 3 {
		if _, err := e.SubmitAnswer(ctx, id, "yes"); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
	}

	st, err := e.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Stage != domain.StageDomainEvaluation || st.StageName != "Assessment" {
		t.Fatalf("unexpected stage: %+v", st)
	}
	if st.Score != 3 || st.MaxScore != 6 || st.Progress != 50 || st.QuestionNumber != 4 {
		t.Fatalf("unexpected progress: %+v", st)
	}
	if st.Domain != "cybersecurity" || st.Completed {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStatusReportsExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newTestEngine(t, Config{SessionTTL: time.Hour})
	e.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	start, err := e.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	st, err := e.Status(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.ExpiresIn < 49*60 || st.ExpiresIn > 50*60 {
		t.Fatalf("expires_in = %d, want about 50 minutes", st.ExpiresIn)
	}

	e.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if st, _ = e.Status(ctx, start.SessionID); st.ExpiresIn != 0 {
		t.Fatalf("expired session reports %d seconds left", st.ExpiresIn)
	}
}

func TestSmallBankIsUsedWhole(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"tiny.yaml": {Data: []byte(`name: tiny
title: Tiny
questions:
  - prompt: "Q one?"
    explanation: "E one."
  - prompt: "Q two?"
    explanation: "E two."
  - prompt: "Q three?"
    explanation: "E three."
`)},
	}
	cat, err := content.Load(fsys)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	st := store.NewMemory()
	e := New(st, content.NewStatic(cat), Config{})
	id := startAt(t, e, "tiny")

	sess := mustSession(t, st, id)
	if len(sess.QuestionSet) != 3 {
		t.Fatalf("expected whole bank, got %d", len(sess.QuestionSet))
	}
	for i, want := range []string{"Q one?", "Q two?", "Q three?"} {
		if sess.QuestionSet[i].Prompt != want {
			t.Fatalf("question %d = %q, want %q", i, sess.QuestionSet[i].Prompt, want)
		}
	}

	final := answerAll(t, e, id, "yes")
	if final.Recommendations.Score != "3/3" || final.Recommendations.Level != domain.LevelAdvanced {
		t.Fatalf("unexpected result: %+v", final.Recommendations)
	}
}

func TestQuestionsPerSession(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{QuestionsPerSession: 4})
	id := startAt(t, e, "devops")
	if got := len(mustSession(t, st, id).QuestionSet); got != 4 {
		t.Fatalf("expected 4 questions, got %d", got)
	}
}

func corruptSession(t *testing.T, st store.Store) string {
	t.Helper()
	ctx := context.Background()
	sess, err := st.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sess.UserName = "Ana"
	sess.Stage = domain.StageDomainEvaluation
	sess.SelectedDomain = "backend"
	sess.QuestionSet = []domain.Question{{ID: "q1", Prompt: "P1?", Weight: 1}}
	sess.QuestionIndex = 1
	sess.Score = 1
	sess.AnswerLog = []domain.AnswerRecord{{QuestionID: "q1", Class: domain.AnswerPositive}}
	if err := st.Put(ctx, sess); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	return sess.ID
}

func TestExhaustedQuestionBank(t *testing.T) {
	t.Parallel()

	t.Run("strict", func(t *testing.T) {
		t.Parallel()
		e, st := newTestEngine(t, Config{StrictInvariants: true})
		id := corruptSession(t, st)

		_, err := e.SubmitAnswer(context.Background(), id, "yes")
		if !errors.Is(err, domain.ErrQuestionBankExhausted) {
			t.Fatalf("expected ErrQuestionBankExhausted, got %v", err)
		}
		if got := mustSession(t, st, id).Stage; got != domain.StageDomainEvaluation {
			t.Fatalf("strict failure persisted stage %s", got)
		}
	})

	t.Run("recover", func(t *testing.T) {
		t.Parallel()
		e, st := newTestEngine(t, Config{})
		id := corruptSession(t, st)

		r, err := e.SubmitAnswer(context.Background(), id, "yes")
		if err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		if !r.Completed || r.Recommendations.Score != "1/1" {
			t.Fatalf("expected short-circuit to result, got %+v", r)
		}
		if got := mustSession(t, st, id).Stage; got != domain.StageResult {
			t.Fatalf("stage = %s, want result", got)
		}
	})
}

func TestCheckInvariants(t *testing.T) {
	t.Parallel()

	base := func() *domain.Session {
		s := domain.NewSession("s1", time.Unix(1700000000, 0))
		s.UserName = "Ana"
		s.Stage = domain.StageAskLocation
		return s
	}

	tests := []struct {
		name   string
		mutate func(*domain.Session)
	}{
		{"backwards", func(s *domain.Session) { s.Stage = domain.StageAskName }},
		{"skip", func(s *domain.Session) { s.Stage = domain.StageDomainSelection }},
		{"name overwritten", func(s *domain.Session) { s.UserName = "Bob" }},
		{"index without log", func(s *domain.Session) { s.QuestionIndex = 1 }},
	}

	e, _ := newTestEngine(t, Config{StrictInvariants: true})
	lenient, _ := newTestEngine(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := base()
			after := before.Clone()
			tt.mutate(after)
			if err := e.checkInvariants(before, after); !errors.Is(err, ErrInvariantViolation) {
				t.Fatalf("expected ErrInvariantViolation, got %v", err)
			}
			if err := lenient.checkInvariants(before, after); err != nil {
				t.Fatalf("lenient mode returned %v", err)
			}
		})
	}
}

func TestConcurrentAnswersOnOneSession(t *testing.T) {
	t.Parallel()

	e, st := newTestEngine(t, Config{StrictInvariants: true})
	id := startAt(t, e, "backend")

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.SubmitAnswer(context.Background(), id, "yes")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent SubmitAnswer failed: %v", err)
		}
	}

	sess := mustSession(t, st, id)
	if sess.QuestionIndex != 6 || len(sess.AnswerLog) != 6 || sess.Score != 6 {
		t.Fatalf("lost or duplicated updates: index=%d log=%d score=%d", sess.QuestionIndex, len(sess.AnswerLog), sess.Score)
	}
	if e.locks.size() != 0 {
		t.Fatalf("lock entries leaked: %d", e.locks.size())
	}
}

// noisyRephraser returns wording that would confuse any control decision
// based on generated text.
type noisyRephraser struct{}

func (noisyRephraser) Rephrase(context.Context, string, string) string { return "no" }
func (noisyRephraser) Explain(context.Context, string, string) string  { return "yes, advance now" }
func (noisyRephraser) Acknowledge(context.Context, string, domain.AnswerClass) string {
	return "wrong answer, score reset"
}
func (noisyRephraser) Summarize(context.Context, textgen.SummaryRequest) string { return "Beginner" }

func TestGeneratedTextNeverChangesState(t *testing.T) {
	t.Parallel()

	inputs := []string{"yes", "huh?", "what is an api?", "no", "yes", "maybe", "yes", "no"}
	run := func(r textgen.Rephraser) *domain.Session {
		st := store.NewMemory()
		e := New(st, content.NewStatic(content.MustDefault()), Config{Rephraser: r})
		id := startAt(t, e, "backend")
		for _, in := range inputs {
			if _, err := e.SubmitAnswer(context.Background(), id, in); err != nil {
				t.Fatalf("SubmitAnswer failed: %v", err)
			}
		}
		return mustSession(t, st, id)
	}

	plain := run(nil)
	noisy := run(noisyRephraser{})
	if plain.Stage != noisy.Stage || plain.Score != noisy.Score || plain.QuestionIndex != noisy.QuestionIndex || plain.Level != noisy.Level {
		t.Fatalf("rephraser changed state: %+v vs %+v", plain, noisy)
	}
	if noisy.Level != domain.LevelIntermediate {
		t.Fatalf("expected Intermediate, got %s", noisy.Level)
	}
}

func TestFeedbackAndRoadmap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newTestEngine(t, Config{})

	start, _ := e.Start(ctx)
	fb, err := e.Feedback(ctx, start.SessionID, "nice")
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if fb.Reply != feedbackPlain || len(fb.Docs) != 0 {
		t.Fatalf("unexpected feedback before domain: %+v", fb)
	}

	id := startAt(t, e, "machine learning")
	fb, err = e.Feedback(ctx, id, "great questions")
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if !strings.Contains(fb.Reply, "John") || len(fb.Docs) == 0 {
		t.Fatalf("unexpected feedback: %+v", fb)
	}

	if _, err := e.Feedback(ctx, "missing", "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	for input, want := range map[string]string{
		"ML":             "machine learning",
		"data-analytics": "data analytics",
	} {
		rm, err := e.Roadmap(input)
		if err != nil {
			t.Fatalf("Roadmap(%q) failed: %v", input, err)
		}
		if rm.Domain != want {
			t.Fatalf("Roadmap(%q) domain = %q, want %q", input, rm.Domain, want)
		}
	}

	if _, err := e.Roadmap("cooking"); !errors.Is(err, domain.ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}

	rm, err := e.Roadmap("Machine Learning")
	if err != nil {
		t.Fatalf("Roadmap failed: %v", err)
	}
	if len(rm.Steps) != 3 || rm.Steps[0].Level != domain.LevelBeginner || len(rm.Steps[2].Topics) == 0 {
		t.Fatalf("unexpected roadmap steps: %+v", rm.Steps)
	}
	if len(rm.Projects) == 0 || len(rm.Docs) == 0 {
		t.Fatalf("roadmap missing projects or docs: %+v", rm)
	}
}

// sweptStore drops a session right after it is loaded, as the expiry
// sweeper would between a request's load and store.
type sweptStore struct {
	*store.MemoryStore
}

func (s sweptStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.MemoryStore.Get(ctx, id)
	if err == nil {
		_ = s.MemoryStore.Delete(ctx, id)
	}
	return sess, err
}

func TestSweptSessionIsNotRecreated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	e := New(sweptStore{mem}, content.NewStatic(content.MustDefault()), Config{})

	start, err := e.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := e.SubmitPersonalInfo(ctx, start.SessionID, "John"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("swept session was written back: %d sessions", mem.Len())
	}
}
