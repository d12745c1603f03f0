package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	Profile(ctx context.Context, userID int64) (*models.ProfileResponse, error)
}

// Sessions issues and clears session cookies.
type Sessions interface {
	Issue(w http.ResponseWriter, userID int64) (string, error)
	Clear(w http.ResponseWriter)
}

type AccountHandler struct {
	accounts AccountService
	sessions Sessions
	log      logging.Logger
}

func NewAccountHandler(accounts AccountService, sessions Sessions, log logging.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, sessions: sessions, log: log.With("module", "accounts")}
}

// Register handles POST /register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	user, err := h.accounts.Register(ctx, req)
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	h.startSession(ctx, w, user.ID, http.StatusCreated)
}

// Login handles POST /login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	user, err := h.accounts.Login(ctx, req)
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	h.startSession(ctx, w, user.ID, http.StatusOK)
}

func (h *AccountHandler) startSession(ctx context.Context, w http.ResponseWriter, userID int64, status int) {
	token, err := h.sessions.Issue(w, userID)
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}
	JSONResponse(w, status, models.AuthResponse{UserID: userID, Token: token})
}

// Logout handles POST /logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	JSONResponse(w, http.StatusOK, models.LogoutResponse{Logout: true})
}

// Profile handles GET /profile.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		ErrorResponse(w, http.StatusUnauthorized, "login required")
		return
	}

	profile, err := h.accounts.Profile(ctx, userID)
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	JSONResponse(w, http.StatusOK, profile)
}
