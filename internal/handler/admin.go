package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sritampatnaik/sritam-chatbot/internal/gcal"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
)

// AdminHandler handles the admin calendar connect flow.
type AdminHandler struct {
	tokens     *gcal.TokenManager
	store      *store.Store
	adminEmail string
	logger     *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(tokens *gcal.TokenManager, st *store.Store, adminEmail string, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		tokens:     tokens,
		store:      st,
		adminEmail: adminEmail,
		logger:     log,
	}
}

// Connect handles GET /admin/auth/google. Redirects the admin to the
// Google consent screen.
func (h *AdminHandler) Connect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.tokens.AuthURL("state"), http.StatusFound)
}

// Callback handles GET /admin/auth/google/callback. Exchanges the
// authorization code and persists the credential on the admin record.
func (h *AdminHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Error("google oauth error", zap.String("error", errParam))
		http.Redirect(w, r, "/admin/dashboard?error=oauth_failed", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/admin/dashboard?error=no_code", http.StatusFound)
		return
	}

	cred, err := h.tokens.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Error("token exchange failed", zap.Error(err))
		http.Redirect(w, r, "/admin/dashboard?error=token_exchange_failed", http.StatusFound)
		return
	}

	if _, err := h.store.GetAdminByEmail(ctx, h.adminEmail); errors.Is(err, store.ErrNotFound) {
		if _, err := h.store.CreateAdmin(ctx, h.adminEmail, ""); err != nil {
			h.logger.Error("failed to create admin record", zap.Error(err))
			http.Redirect(w, r, "/admin/dashboard?error=token_exchange_failed", http.StatusFound)
			return
		}
	}

	if err := h.store.UpdateAdminTokens(ctx, h.adminEmail, cred); err != nil {
		h.logger.Error("failed to persist admin tokens", zap.Error(err))
		http.Redirect(w, r, "/admin/dashboard?error=token_exchange_failed", http.StatusFound)
		return
	}

	h.logger.Info("calendar connected", zap.String("admin_email", h.adminEmail))
	http.Redirect(w, r, "/admin/dashboard?success=true", http.StatusFound)
}
