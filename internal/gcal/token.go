package gcal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sritampatnaik/sritam-chatbot/internal/model"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/metrics"
)

// refreshMargin is how long an access token must remain valid to be handed
// out without refreshing first.
const refreshMargin = 5 * time.Minute

var calendarScopes = []string{"https://www.googleapis.com/auth/calendar"}

// CredentialStore is the persistence surface the token manager needs.
type CredentialStore interface {
	GetAdminByEmail(ctx context.Context, email string) (model.Admin, error)
	UpdateAdminTokens(ctx context.Context, email string, cred model.Credential) error
}

// TokenManager owns the admin's calendar credential lifecycle: exchange,
// refresh and expiry checks. Tokens are mutated only here.
type TokenManager struct {
	conf   *oauth2.Config
	store  CredentialStore
	logger *logger.Logger

	// Overridable for tests.
	now      func() time.Time
	exchange func(ctx context.Context, code string) (*oauth2.Token, error)
	refresh  func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthConfig describes the Google OAuth application.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewTokenManager creates a token manager backed by the given store.
func NewTokenManager(cfg OAuthConfig, store CredentialStore, log *logger.Logger) *TokenManager {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       calendarScopes,
	}

	m := &TokenManager{
		conf:   conf,
		store:  store,
		logger: log,
		now:    time.Now,
	}
	m.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return conf.Exchange(ctx, code)
	}
	m.refresh = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return src.Token()
	}

	return m
}

// AuthURL returns the consent URL for the admin connect flow. Offline
// access with a forced consent prompt so a refresh token is always issued.
func (m *TokenManager) AuthURL(state string) string {
	return m.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode performs the one-time exchange of an authorization grant for
// a credential pair.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (model.Credential, error) {
	tok, err := m.exchange(ctx, code)
	if err != nil {
		return model.Credential{}, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}

	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return model.Credential{}, fmt.Errorf("%w: provider returned incomplete token pair", ErrAuthExchange)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = m.now().Add(time.Hour)
	}

	return model.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry,
	}, nil
}

// ValidAccessToken returns an access token guaranteed valid for at least
// five minutes, refreshing first when the stored token is absent or about
// to expire.
func (m *TokenManager) ValidAccessToken(ctx context.Context, adminEmail string) (string, error) {
	admin, err := m.store.GetAdminByEmail(ctx, adminEmail)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredential, err)
	}

	if admin.Tokens.Valid(m.now(), refreshMargin) {
		return admin.Tokens.AccessToken, nil
	}

	return m.Refresh(ctx, adminEmail)
}

// Refresh unconditionally refreshes the admin's access token and persists
// the new credential. The stored refresh token is retained across refresh
// cycles; a rejected refresh (revoked grant) is terminal until the admin
// re-authorizes.
func (m *TokenManager) Refresh(ctx context.Context, adminEmail string) (string, error) {
	admin, err := m.store.GetAdminByEmail(ctx, adminEmail)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredential, err)
	}

	if admin.Tokens.RefreshToken == "" {
		return "", fmt.Errorf("%w: refresh token missing for %s", ErrNoCredential, adminEmail)
	}

	tok, err := m.refresh(ctx, admin.Tokens.RefreshToken)
	if err != nil {
		metrics.RecordTokenRefresh("rejected")
		m.logger.Error("calendar token refresh rejected",
			zap.String("admin_email", adminEmail),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: refresh rejected: %v", ErrNoCredential, err)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = m.now().Add(time.Hour)
	}

	// Some providers omit the refresh token on refresh responses; keep the
	// one already issued.
	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = admin.Tokens.RefreshToken
	}

	cred := model.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		Expiry:       expiry,
	}
	if err := m.store.UpdateAdminTokens(ctx, adminEmail, cred); err != nil {
		metrics.RecordTokenRefresh("persist_failed")
		return "", fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	metrics.RecordTokenRefresh("success")
	m.logger.Info("calendar token refreshed",
		zap.String("admin_email", adminEmail),
		zap.Time("expiry", expiry),
	)

	return tok.AccessToken, nil
}
