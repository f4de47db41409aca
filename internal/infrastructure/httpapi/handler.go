package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/notewise/pkg/application"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// maxBodyBytes bounds request bodies; notes are plain text.
const maxBodyBytes = 4 << 20

// Assistant is the application surface the HTTP host drives.
type Assistant interface {
	Run(ctx context.Context, op ai.Operation, note, prompt string) (ai.Result, error)
	Actions(note string) application.Availability
}

type Handler struct {
	svc    Assistant
	logger *slog.Logger
}

func NewHandler(svc Assistant, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type assistRequest struct {
	Note   string `json:"note"`
	Prompt string `json:"prompt"`
}

type assistResponse struct {
	Operation string `json:"operation"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HandleAssist runs one operation. A client that disconnects tears the
// interaction down.
func (h *Handler) HandleAssist(w http.ResponseWriter, r *http.Request) {
	op, ok := ai.ParseOperation(chi.URLParam(r, "operation"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown operation"})
		return
	}

	var payload assistRequest
	if !h.decode(w, r, assistSchemaLoader, &payload) {
		return
	}

	res, err := h.svc.Run(r.Context(), op, payload.Note, payload.Prompt)
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}

	writeJSON(w, http.StatusOK, assistResponse{
		Operation: string(res.Operation),
		Text:      res.Text,
		Source:    string(res.Source),
	})
}

// HandleActions reports which actions a note enables.
func (h *Handler) HandleActions(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Note string `json:"note"`
	}
	if !h.decode(w, r, actionsSchemaLoader, &payload) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Actions(payload.Note))
}

// decode reads a bounded body, checks it against schema and unmarshals it
// into v. It writes the error response itself and reports whether to go on.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema gojsonschema.JSONLoader, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return false
	}
	if len(body) > maxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := validateBody(schema, body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	return true
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, op ai.Operation, err error) {
	var f *ai.Failure
	switch {
	case errors.As(err, &f) && f.Kind == ai.KindValidation:
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: f.Message, Kind: f.Kind.String()})
	case errors.As(err, &f):
		h.logger.Warn("assist request failed",
			"operation", op,
			"kind", f.Kind.String(),
			"remote", r.RemoteAddr,
			"error", err,
		)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: remoteMessage(f), Kind: f.Kind.String()})
	case errors.Is(err, application.ErrInFlight), errors.Is(err, application.ErrInteractionClosed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("assist request failed", "operation", op, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// remoteMessage hides response bodies and transport detail from callers.
func remoteMessage(f *ai.Failure) string {
	switch f.Kind {
	case ai.KindServer:
		return fmt.Sprintf("completion service returned HTTP %d", f.StatusCode)
	case ai.KindProtocol:
		return "completion service returned no text"
	default:
		return "completion service unreachable"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
