package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/store"
	"github.com/ashureev/skillpath/internal/transcript"
	"github.com/go-chi/chi/v5"
)

const channelHTTP = "http"

// AssessmentHandler serves the REST assessment endpoints.
type AssessmentHandler struct {
	*Handler
}

// NewAssessmentHandler creates the REST handler.
func NewAssessmentHandler(base *Handler) *AssessmentHandler {
	return &AssessmentHandler{Handler: base}
}

// RegisterRoutes registers assessment routes.
func (h *AssessmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/personal-info", h.PersonalInfo)
		r.Post("/answer", h.Answer)
		r.Post("/chat", h.Chat)
		r.Post("/feedback", h.Feedback)
		r.Get("/session/{id}", h.Session)
		r.Get("/domains", h.Domains)
		r.Get("/roadmap/{domain}", h.Roadmap)
	})
}

type personalInfoRequest struct {
	SessionID string `json:"session_id"`
	// Message answers the current personal-info prompt.
	Message string `json:"message"`
	// Name, Location and Education submit the whole profile at once.
	Name      string `json:"name"`
	Location  string `json:"location"`
	Education string `json:"education"`
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	Feedback  string `json:"feedback"`
}

type domainSummary struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Health reports liveness and backend reachability.
func (h *AssessmentHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", "error", err)
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	resp := healthResponse{Status: "ok"}
	if counter, ok := h.health.(store.StageCounter); ok {
		counts, err := counter.CountByStage(r.Context())
		if err != nil {
			h.logger.Warn("Counting sessions failed", "error", err)
		} else {
			resp.Sessions = make(map[string]int, len(counts))
			for stage, n := range counts {
				resp.Sessions[string(stage)] = n
			}
		}
	}
	JSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string `json:"status"`
	// Sessions counts stored sessions per stage when the store supports it.
	Sessions map[string]int `json:"sessions,omitempty"`
}

// Start creates a session and returns the greeting and first prompt.
func (h *AssessmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Start(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	h.record(r.Context(), channelHTTP, transcript.Outbound, "start", res.SessionID, res.Message+" "+res.NextPrompt, string(res.Stage), nil)
	JSON(w, http.StatusOK, res)
}

// PersonalInfo accepts either one message for the current field or the
// full profile.
func (h *AssessmentHandler) PersonalInfo(w http.ResponseWriter, r *http.Request) {
	var req personalInfoRequest
	if err := decode(r, w, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := requireSession(req.SessionID); err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	var (
		reply assessment.Reply
		err   error
	)
	if req.Message != "" {
		h.record(ctx, channelHTTP, transcript.Inbound, "personal_info", req.SessionID, req.Message, "", nil)
		reply, err = h.svc.SubmitPersonalInfo(ctx, req.SessionID, req.Message)
	} else {
		profile := assessment.Profile{Name: req.Name, Location: req.Location, Education: req.Education}
		h.record(ctx, channelHTTP, transcript.Inbound, "personal_info", req.SessionID, profile.Name+" | "+profile.Location+" | "+profile.Education, "", nil)
		reply, err = h.svc.SubmitProfile(ctx, req.SessionID, profile)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	h.recordReply(ctx, "personal_info", req.SessionID, reply)
	JSON(w, http.StatusOK, reply)
}

// Answer handles domain selection and assessment answers.
func (h *AssessmentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, w, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := requireSession(req.SessionID); err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	h.record(ctx, channelHTTP, transcript.Inbound, "answer", req.SessionID, req.Answer, "", nil)
	reply, err := h.svc.SubmitAnswer(ctx, req.SessionID, req.Answer)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.recordReply(ctx, "answer", req.SessionID, reply)
	JSON(w, http.StatusOK, reply)
}

// Chat handles post-assessment conversation.
func (h *AssessmentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, w, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := requireSession(req.SessionID); err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	h.record(ctx, channelHTTP, transcript.Inbound, "chat", req.SessionID, req.Message, "", nil)
	reply, err := h.svc.Chat(ctx, req.SessionID, req.Message)
	if err != nil {
		WriteError(w, err)
		return
	}
	var meta map[string]any
	if reply.SwitchDomain != "" {
		meta = map[string]any{"switch_domain": reply.SwitchDomain}
	}
	h.record(ctx, channelHTTP, transcript.Outbound, "chat", req.SessionID, reply.Reply, string(reply.Stage), meta)
	JSON(w, http.StatusOK, reply)
}

// Feedback stores free-form feedback and returns further reading.
func (h *AssessmentHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decode(r, w, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := requireSession(req.SessionID); err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	h.record(ctx, channelHTTP, transcript.Inbound, "feedback", req.SessionID, req.Feedback, "", nil)
	reply, err := h.svc.Feedback(ctx, req.SessionID, req.Feedback)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.record(ctx, channelHTTP, transcript.Outbound, "feedback", req.SessionID, reply.Reply, "", nil)
	JSON(w, http.StatusOK, reply)
}

// Session returns a read-only status snapshot.
func (h *AssessmentHandler) Session(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// Domains lists the catalog.
func (h *AssessmentHandler) Domains(w http.ResponseWriter, _ *http.Request) {
	domains := h.svc.Catalog().Domains()
	out := make([]domainSummary, 0, len(domains))
	for _, d := range domains {
		out = append(out, domainSummary{Name: d.Name, Title: d.Title, Summary: d.Summary})
	}
	JSON(w, http.StatusOK, map[string]any{"domains": out})
}

// Roadmap returns the learning plan for one domain.
func (h *AssessmentHandler) Roadmap(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "domain"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid domain")
		return
	}
	rm, err := h.svc.Roadmap(name)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, rm)
}

func (h *AssessmentHandler) recordReply(ctx context.Context, eventType, sessionID string, reply assessment.Reply) {
	text := reply.Reply
	if reply.NextPrompt != "" {
		text += "\n" + reply.NextPrompt
	}
	h.record(ctx, channelHTTP, transcript.Outbound, eventType, sessionID, text, string(reply.Stage), map[string]any{
		"outcome":  string(reply.Outcome),
		"progress": reply.Progress,
	})
}
