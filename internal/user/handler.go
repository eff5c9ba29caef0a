package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
)

const AdminKeyHeader = "X-Admin-Key"

// Handler exposes the gateway's HTTP endpoints (login and account admin).
type Handler struct {
	gw       *LocalGateway
	adminKey string
	logger   *zap.SugaredLogger
}

func NewHandler(gw *LocalGateway, adminKey string, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{gw: gw, adminKey: adminKey, logger: logger}
}

// Routes mounts the handler on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/auth/accounts", h.Signup)
		r.Post("/auth/accounts/{id}/disable", h.setDisabled(true))
		r.Post("/auth/accounts/{id}/enable", h.setDisabled(false))
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req gateway.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, gateway.LoginResponse{Error: "invalid payload"})
		return
	}
	sess, err := h.gw.authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		msg, ok := rejection(err)
		switch {
		case !ok:
			h.logger.Errorw("login error", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, gateway.LoginResponse{Error: "login failed"})
		case errors.Is(err, ErrBadCredentials):
			h.writeJSON(w, http.StatusUnauthorized, gateway.LoginResponse{Error: msg})
		default:
			h.writeJSON(w, http.StatusForbidden, gateway.LoginResponse{Error: msg})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, gateway.LoginResponse{Success: true, Session: sess})
}

// SignupRequest request body for account creation.
type SignupRequest struct {
	Role           string `json:"role"`
	IdentifierKind string `json:"identifier_kind"`
	Identifier     string `json:"identifier"`
	DisplayName    string `json:"display_name"`
	Password       string `json:"password"`
}

// SignupResponse describes the created account.
type SignupResponse struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Identifier string `json:"identifier"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	kind, err := credential.ParseKind(req.IdentifierKind)
	if err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	a, err := h.gw.svc.Signup(r.Context(), SignupInput{
		Role:        req.Role,
		Kind:        kind,
		Identifier:  req.Identifier,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, SignupResponse{ID: strconv.FormatInt(a.ID, 10), Role: a.Role, Identifier: a.Identifier})
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInvalidAccount):
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrAccountExists):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Warnw("signup failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "signup failed"})
	}
}

func (h *Handler) setDisabled(disabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
			return
		}
		switch err := h.gw.svc.SetDisabled(r.Context(), id, disabled); {
		case err == nil:
			h.logger.Infow("account status changed", "account_id", id, "disabled", disabled)
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		default:
			h.logger.Warnw("set account status", "account_id", id, "err", err)
			h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "update failed"})
		}
	}
}

// requireAdmin rejects requests without the configured admin key. With no key
// configured the admin endpoints are closed.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminKey == "" || !ConstantTimeCompare(r.Header.Get(AdminKeyHeader), h.adminKey) {
			h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
