package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAuthenticates(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	assert.Equal(t, StatusAnonymous, e.session.Snapshot().Status)
	require.NoError(t, e.session.Login(ctx, testEmail, testPassword))

	snap := e.session.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.Empty(t, snap.Error)

	pair, _ := e.client.Tokens().Load(ctx)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	exp, ok := e.session.ExpiresAt(ctx)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	e := newEnv(t, false)

	err := e.session.Login(context.Background(), testEmail, "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	snap := e.session.Snapshot()
	assert.Equal(t, StatusAnonymous, snap.Status)
	assert.Equal(t, "No active account found with the given credentials", snap.Error)
	assert.False(t, snap.Loading)
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	e := newEnv(t, false)

	user, err := e.session.Register(context.Background(), models.RegisterRequest{
		Email: "grace@example.com", Password: "cobol60", ConfirmPassword: "cobol60", FirstName: "Grace",
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Equal(t, StatusAnonymous, e.session.Snapshot().Status)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	e := newEnv(t, false)

	_, err := e.session.Register(context.Background(), models.RegisterRequest{
		Email: "grace@example.com", Password: "cobol60", ConfirmPassword: "cobol61",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, e.session.Snapshot().Error, "Passwords do not match")
}

func TestRegisterDuplicateEmailSurfacesFieldError(t *testing.T) {
	e := newEnv(t, false)

	_, err := e.session.Register(context.Background(), models.RegisterRequest{
		Email: testEmail, Password: "another", ConfirmPassword: "another",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, e.session.Snapshot().Error, "email")
}

func TestFetchProfileRequiresToken(t *testing.T) {
	e := newEnv(t, false)

	_, err := e.session.FetchProfile(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoToken)
	assert.Equal(t, StatusAnonymous, e.session.Snapshot().Status)
}

func TestFetchProfile(t *testing.T) {
	e := newEnv(t, true)

	user, err := e.session.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)

	snap := e.session.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, testEmail, snap.User.Email)
}

func TestFetchProfileFailureKeepsAuthState(t *testing.T) {
	e := newEnv(t, true)
	e.server.RevokeAccessTokens()
	e.server.FailRefresh(true)

	_, err := e.session.FetchProfile(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	snap := e.session.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.NotEmpty(t, snap.Error)

	pair, _ := e.client.Tokens().Load(context.Background())
	assert.Empty(t, pair.Access)
	assert.Empty(t, pair.Refresh)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t, true)

	phone := "555-0100"
	user, err := e.session.UpdateProfile(context.Background(), models.ProfileUpdate{PhoneNumber: &phone},
		&httpclient.FilePart{Filename: "ada.jpg", Content: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Equal(t, phone, user.PhoneNumber)
	assert.Equal(t, "Ada", user.FirstName)
	require.NotNil(t, user.ProfilePicture)

	snap := e.session.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, phone, snap.User.PhoneNumber)
}

func TestLogoutClearsTokens(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	_, err := e.session.FetchProfile(ctx)
	require.NoError(t, err)

	require.NoError(t, e.session.Logout(ctx))

	snap := e.session.Snapshot()
	assert.Equal(t, StatusAnonymous, snap.Status)
	assert.Nil(t, snap.User)
	pair, _ := e.client.Tokens().Load(ctx)
	assert.Empty(t, pair.Access)
	assert.Empty(t, pair.Refresh)
}

func TestRestore(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	restored := NewSessionService(e.client)
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, restored.IsAuthenticated())

	require.NoError(t, restored.Logout(ctx))
	ok, err = NewSessionService(e.client).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
