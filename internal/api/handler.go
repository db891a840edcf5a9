// Package api provides HTTP handlers for the skillpath API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/skillpath/internal/apierr"
	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/identity"
	"github.com/ashureev/skillpath/internal/transcript"
)

const maxBodyBytes = 64 << 10

// Service is the assessment surface the handlers drive.
type Service interface {
	Start(ctx context.Context) (assessment.StartResult, error)
	SubmitPersonalInfo(ctx context.Context, id, text string) (assessment.Reply, error)
	SubmitProfile(ctx context.Context, id string, p assessment.Profile) (assessment.Reply, error)
	SubmitAnswer(ctx context.Context, id, text string) (assessment.Reply, error)
	Chat(ctx context.Context, id, text string) (assessment.ChatReply, error)
	Feedback(ctx context.Context, id, text string) (assessment.FeedbackReply, error)
	Status(ctx context.Context, id string) (assessment.Status, error)
	Respond(ctx context.Context, id, text string) (assessment.Turn, error)
	Roadmap(name string) (assessment.Roadmap, error)
	Catalog() *content.Catalog
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides common handler utilities.
type Handler struct {
	svc         Service
	health      Pinger
	transcripts transcript.Logger
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a new Handler. transcripts may be nil.
func NewHandler(svc Service, health Pinger, transcripts transcript.Logger) *Handler {
	if transcripts == nil {
		transcripts = transcript.Nop{}
	}
	return &Handler{
		svc:         svc,
		health:      health,
		transcripts: transcripts,
		logger:      slog.Default(),
		now:         time.Now,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// WriteError maps err to a status and stable code and writes it.
func WriteError(w http.ResponseWriter, err error) {
	ae := apierr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	JSON(w, ae.Status, errorBody{Error: ae.Public(), Code: ae.Code})
}

// decode reads a JSON body into v.
func decode(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apierr.New(http.StatusRequestEntityTooLarge, apierr.CodeBadRequest, errors.New("request body too large"))
		case errors.Is(err, io.EOF):
			return apierr.BadRequest("request body is required")
		default:
			return apierr.BadRequest("invalid JSON body")
		}
	}
	return nil
}

func requireSession(id string) error {
	if strings.TrimSpace(id) == "" {
		return apierr.BadRequest("session_id is required")
	}
	return nil
}

// record writes one transcript event for the request's client.
func (h *Handler) record(ctx context.Context, channel, direction, eventType, sessionID, text string, stage string, meta map[string]any) {
	h.transcripts.Log(transcript.Event{
		Timestamp:  h.now().UTC(),
		ClientID:   identity.ClientIDFromContext(ctx),
		SessionID:  sessionID,
		Channel:    channel,
		Direction:  direction,
		EventType:  eventType,
		Stage:      stage,
		ContentRaw: text,
		Meta:       meta,
	})
}
