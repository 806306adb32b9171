package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/tokenstore"
)

const (
	registerPath = "/auth/user/register/"
	profilePath  = "/auth/user/"
)

// SessionStatus is the authentication state of the session
type SessionStatus string

const (
	StatusAnonymous      SessionStatus = "anonymous"
	StatusAuthenticating SessionStatus = "authenticating"
	StatusAuthenticated  SessionStatus = "authenticated"
)

// Session is a point-in-time copy of the session store
type Session struct {
	Status  SessionStatus
	User    *models.User
	Loading bool
	Error   string
}

// SessionService holds authentication status and the user profile
type SessionService struct {
	api API

	mu     sync.RWMutex
	st     status
	state  SessionStatus
	user   *models.User
	tokens tokenstore.Store
}

// NewSessionService creates a new session service
func NewSessionService(api API) *SessionService {
	return &SessionService{
		api:    api,
		state:  StatusAnonymous,
		tokens: api.Tokens(),
	}
}

// Restore marks the session authenticated when a persisted access token
// exists. It does not contact the server.
func (s *SessionService) Restore(ctx context.Context) (bool, error) {
	pair, err := s.tokens.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load tokens: %w", err)
	}
	if pair.Access == "" {
		return false, nil
	}

	s.mu.Lock()
	s.state = StatusAuthenticated
	s.mu.Unlock()
	return true, nil
}

// Login exchanges credentials for a token pair
func (s *SessionService) Login(ctx context.Context, email, password string) error {
	s.st.begin(&s.mu)
	s.mu.Lock()
	prev := s.state
	s.state = StatusAuthenticating
	s.mu.Unlock()

	err := s.login(ctx, email, password)

	s.mu.Lock()
	if err != nil {
		s.state = prev
		if prev == StatusAuthenticating {
			s.state = StatusAnonymous
		}
	} else {
		s.state = StatusAuthenticated
	}
	s.mu.Unlock()

	return s.st.end(ctx, &s.mu, "session", "login", err)
}

func (s *SessionService) login(ctx context.Context, email, password string) error {
	req := models.LoginRequest{Email: email, Password: password}
	if err := models.ValidateRequest(req); err != nil {
		return err
	}

	var pair models.TokenPair
	if err := s.api.SendJSON(ctx, http.MethodPost, httpclient.TokenPath, req, &pair, httpclient.WithoutAuth()); err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, pair); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}

// Register creates an account. It does not log the session in.
func (s *SessionService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	s.st.begin(&s.mu)

	var user models.User
	err := func() error {
		if req.ConfirmPassword != req.Password {
			return fmt.Errorf("%w: Passwords do not match", apperrors.ErrValidation)
		}
		if err := models.ValidateRequest(req); err != nil {
			return err
		}
		return s.api.SendJSON(ctx, http.MethodPost, registerPath, req, &user, httpclient.WithoutAuth())
	}()

	return user, s.st.end(ctx, &s.mu, "session", "register", err)
}

// FetchProfile loads the user profile. A failure leaves the previous
// authentication state as it was.
func (s *SessionService) FetchProfile(ctx context.Context) (models.User, error) {
	s.st.begin(&s.mu)

	var user models.User
	err := func() error {
		pair, err := s.tokens.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load tokens: %w", err)
		}
		if pair.Access == "" {
			return apperrors.ErrNoToken
		}
		return s.api.GetJSON(ctx, profilePath, &user)
	}()

	if err == nil {
		s.mu.Lock()
		s.user = &user
		s.state = StatusAuthenticated
		s.mu.Unlock()
	}
	return user, s.st.end(ctx, &s.mu, "session", "fetch_profile", err)
}

// UpdateProfile submits the non-nil fields and an optional picture as
// multipart form data and replaces the stored user.
func (s *SessionService) UpdateProfile(ctx context.Context, update models.ProfileUpdate, picture *httpclient.FilePart) (models.User, error) {
	s.st.begin(&s.mu)

	fields := map[string]string{}
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
	}
	if update.PhoneNumber != nil {
		fields["phone_number"] = *update.PhoneNumber
	}
	if picture != nil && picture.Field == "" {
		picture.Field = "profile_picture"
	}

	var user models.User
	err := s.api.PatchMultipart(ctx, profilePath, fields, picture, &user)
	if err == nil {
		s.mu.Lock()
		s.user = &user
		s.mu.Unlock()
	}
	return user, s.st.end(ctx, &s.mu, "session", "update_profile", err)
}

// Logout clears both tokens and resets the session. There is no server
// round trip.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = StatusAnonymous
	s.user = nil
	s.st.lastErr = ""
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// ExpiresAt reports when the stored access token expires.
func (s *SessionService) ExpiresAt(ctx context.Context) (time.Time, bool) {
	pair, err := s.tokens.Load(ctx)
	if err != nil {
		return time.Time{}, false
	}
	return tokenstore.ExpiresAt(pair.Access)
}

func (s *SessionService) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Session{Status: s.state, Loading: s.st.loading(), Error: s.st.lastErr}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StatusAuthenticated
}
