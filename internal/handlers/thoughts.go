package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/happythoughts/apiserver/internal/auth"
	"github.com/happythoughts/apiserver/internal/services"
	"go.uber.org/zap"
)

// ThoughtHandler provides HTTP handlers for thoughts.
type ThoughtHandler struct {
	thoughts *services.ThoughtService
	logger   *zap.Logger
}

func NewThoughtHandler(thoughts *services.ThoughtService, logger *zap.Logger) *ThoughtHandler {
	return &ThoughtHandler{thoughts: thoughts, logger: logger}
}

// ThoughtRouter registers thought routes on the given router, wrapping
// each one in the gate for its operation.
func ThoughtRouter(r chi.Router, thoughts *services.ThoughtService, gate *auth.Gate, logger *zap.Logger) {
	handler := NewThoughtHandler(thoughts, logger)
	guard := func(op auth.Operation) func(http.Handler) http.Handler {
		return RequireAuth(gate, op, logger)
	}

	r.With(guard(auth.OperationList)).Get("/", handler.ListThoughts)
	r.With(guard(auth.OperationCreate)).Post("/", handler.CreateThought)
	r.Route("/{thoughtID}", func(r chi.Router) {
		r.With(guard(auth.OperationGet)).Get("/", handler.GetThought)
		r.With(guard(auth.OperationDelete)).Delete("/", handler.DeleteThought)
		r.With(guard(auth.OperationLike)).Post("/like", handler.LikeThought)
	})
}

type CreateThoughtRequest struct {
	Message string `json:"message"`
}

// ListThoughts returns the most recent thoughts, newest first. An optional
// limit query parameter narrows the window.
func (h *ThoughtHandler) ListThoughts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	thoughts, err := h.thoughts.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err, msgThoughtNotFound)
		return
	}

	writeJSON(w, http.StatusOK, thoughts)
}

func (h *ThoughtHandler) GetThought(w http.ResponseWriter, r *http.Request) {
	thought, err := h.thoughts.Get(r.Context(), chi.URLParam(r, "thoughtID"))
	if err != nil {
		writeServiceError(w, h.logger, err, msgThoughtNotFound)
		return
	}

	writeJSON(w, http.StatusOK, thought)
}

func (h *ThoughtHandler) CreateThought(w http.ResponseWriter, r *http.Request) {
	var req CreateThoughtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	thought, err := h.thoughts.Create(r.Context(), req.Message)
	if err != nil {
		writeServiceError(w, h.logger, err, msgThoughtNotFound)
		return
	}

	h.logger.Info("thought posted", zap.String("thought_id", thought.ID), actorField(r))
	writeJSON(w, http.StatusCreated, thought)
}

// DeleteThought removes a thought. Deleting nothing is reported as 404.
func (h *ThoughtHandler) DeleteThought(w http.ResponseWriter, r *http.Request) {
	result, err := h.thoughts.Delete(r.Context(), chi.URLParam(r, "thoughtID"))
	if err != nil {
		writeServiceError(w, h.logger, err, msgThoughtNotFound)
		return
	}
	if result.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, msgThoughtNotFound)
		return
	}

	h.logger.Info("thought removed", zap.String("thought_id", chi.URLParam(r, "thoughtID")), actorField(r))
	writeJSON(w, http.StatusOK, result)
}

func (h *ThoughtHandler) LikeThought(w http.ResponseWriter, r *http.Request) {
	thought, err := h.thoughts.Like(r.Context(), chi.URLParam(r, "thoughtID"))
	if err != nil {
		writeServiceError(w, h.logger, err, msgThoughtNotFound)
		return
	}

	h.logger.Info("thought liked", zap.String("thought_id", thought.ID), zap.Int("hearts", thought.Hearts), actorField(r))
	writeJSON(w, http.StatusCreated, thought)
}

// actorField names the authenticated caller, or "anonymous" when the
// operation is not gated.
func actorField(r *http.Request) zap.Field {
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		return zap.String("user_id", principal.UserID)
	}
	return zap.String("user_id", "anonymous")
}
