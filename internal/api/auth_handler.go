package api

import (
	"net/http"

	"github.com/rs/zerolog"
)

type AuthHandler struct {
	Service AuthService
	Logger  *zerolog.Logger
}

func NewAuthHandler(svc AuthService, logger *zerolog.Logger) *AuthHandler {
	return &AuthHandler{Service: svc, Logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	u, err := h.Service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, MeResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Verify(r.Context(), r.URL.Query().Get("code")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Email verified. You can now log in."})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	res, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), identity(r)); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out."})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context(), identity(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	})
}
