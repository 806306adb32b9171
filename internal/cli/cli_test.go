package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/api"
	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/services"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	t      *testing.T
	cfg    *config.Config
	server *api.Server
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	server := api.NewDemoServer([]byte("cli-secret"), time.Minute)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	t.Setenv("STOREFRONT_API_URL", ts.URL+"/api")
	t.Setenv("TOKEN_STORE_DRIVER", "sqlite")
	t.Setenv("TOKEN_STORE_PATH", filepath.Join(t.TempDir(), "session.db"))
	t.Setenv("OTEL_ENABLED", "false")

	return &cliEnv{t: t, cfg: config.LoadConfig(), server: server}
}

func (e *cliEnv) run(args ...string) (string, error) {
	var out bytes.Buffer
	root := NewRootCmd(e.cfg, nil)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *cliEnv) login() {
	e.mustRun("register", "--email", "ada@example.com", "--password", "secret1", "--confirm-password", "secret1", "--first-name", "Ada")
	e.mustRun("login", "--email", "ada@example.com", "--password", "secret1")
}

func TestRegisterLoginWhoami(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run("whoami")
	assert.ErrorIs(t, err, apperrors.ErrNoToken)

	e.login()
	out := e.mustRun("whoami")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "expires")

	e.mustRun("logout")
	_, err = e.run("whoami")
	assert.ErrorIs(t, err, apperrors.ErrNoToken)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run("register", "--email", "ada@example.com", "--password", "secret1", "--confirm-password", "secret2")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestProductsSearchAndCategory(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun("products")
	assert.Contains(t, out, "Steel Kettle")
	assert.Contains(t, out, "Notebook")

	out = e.mustRun("products", "--search", "lamp")
	assert.Contains(t, out, "Desk Lamp")
	assert.NotContains(t, out, "Steel Kettle")

	out = e.mustRun("products", "--category", "2")
	assert.Contains(t, out, "Garden Hose")
	assert.NotContains(t, out, "Desk Lamp")

	out = e.mustRun("product", "1")
	assert.Contains(t, out, "$24.99")

	out = e.mustRun("categories")
	assert.Contains(t, out, "Kitchen")
}

func TestCheckoutIsGatedOnCommittedQuantities(t *testing.T) {
	e := newCLIEnv(t)
	e.login()

	e.mustRun("cart", "add", "1", "--quantity", "2")
	e.mustRun("cart", "add", "2")

	_, err := e.run("checkout", "--set", "2=50",
		"--line1", "1 Main St", "--city", "Springfield", "--state", "IL", "--country", "US", "--postal-code", "62704")
	require.Error(t, err)
	_, isCommit := services.IsCommitError(err)
	assert.True(t, isCommit)

	out := e.mustRun("orders")
	assert.Contains(t, out, "No orders yet")

	out = e.mustRun("checkout", "--set", "2=3",
		"--line1", "1 Main St", "--city", "Springfield", "--state", "IL", "--country", "US", "--postal-code", "62704")
	assert.Contains(t, out, "placed")

	out = e.mustRun("orders")
	assert.Contains(t, out, "$226.98")

	out = e.mustRun("cart", "list")
	assert.Contains(t, out, "empty")

	out = e.mustRun("orders", "report")
	assert.Contains(t, out, "Order history")
	assert.Contains(t, out, "Chef Knife")
}

func TestCheckoutRejectsIncompleteAddress(t *testing.T) {
	e := newCLIEnv(t)
	e.login()
	e.mustRun("cart", "add", "6")

	_, err := e.run("checkout", "--line1", "1 Main St")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFavoritesToggle(t *testing.T) {
	e := newCLIEnv(t)
	e.login()

	out := e.mustRun("favorites", "toggle", "4")
	assert.Contains(t, out, "Added")
	out = e.mustRun("favorites", "list")
	assert.Contains(t, out, "Pruning Shears")

	out = e.mustRun("favorites", "toggle", "4")
	assert.Contains(t, out, "Removed")
	out = e.mustRun("favorites")
	assert.Contains(t, out, "No favorites")
}

func TestCartJSONOutput(t *testing.T) {
	e := newCLIEnv(t)
	e.login()
	e.mustRun("cart", "add", "1")

	out := e.mustRun("cart", "checkout-prep", "--set", "1=2", "--json")
	assert.Contains(t, out, `"Total": "56.48"`)
}

func TestSessionSurvivesRefresh(t *testing.T) {
	e := newCLIEnv(t)
	e.login()
	e.server.RevokeAccessTokens()

	out := e.mustRun("whoami")
	assert.Contains(t, out, "ada@example.com")
	assert.EqualValues(t, 1, e.server.RefreshCount())

	// the refreshed token was persisted
	e.mustRun("whoami")
	assert.EqualValues(t, 1, e.server.RefreshCount())
}

func TestProfileUpdate(t *testing.T) {
	e := newCLIEnv(t)
	e.login()

	out := e.mustRun("profile", "update", "--last-name", "Lovelace", "--json")
	var user models.User
	require.NoError(t, jsonUnmarshal(out, &user))
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, "Ada", user.FirstName)
}

func jsonUnmarshal(s string, v interface{}) error {
	return json.Unmarshal([]byte(s), v)
}
