package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/happythoughts/apiserver/internal/services"
	"go.uber.org/zap"
)

// UserHandler provides registration and login endpoints.
type UserHandler struct {
	identity *services.IdentityService
	logger   *zap.Logger
}

func NewUserHandler(identity *services.IdentityService, logger *zap.Logger) *UserHandler {
	return &UserHandler{identity: identity, logger: logger}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, identity *services.IdentityService, logger *zap.Logger) {
	handler := NewUserHandler(identity, logger)

	r.Post("/", handler.Register)
	r.Post("/{userName}", handler.Login)
}

type RegisterRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

// LoginFailedResponse is returned with status 200 for an unknown user and
// for a wrong password alike.
type LoginFailedResponse struct {
	NotFound bool `json:"notFound"`
}

// Register creates an account and returns it with its access token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.identity.Register(r.Context(), req.User, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, msgInternal)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login exchanges a name and password for the account's access token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	name, err := userNameParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user name")
		return
	}

	creds, found, err := h.identity.Login(r.Context(), name, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, msgInternal)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, LoginFailedResponse{NotFound: true})
		return
	}

	writeJSON(w, http.StatusOK, creds)
}

// userNameParam returns the decoded {userName} segment. chi routes on
// RawPath when the request carries one, so a name containing "/" arrives
// still escaped as %2F.
func userNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "userName")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}
