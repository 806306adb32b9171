package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HandlersSuite struct {
	suite.Suite
	server *Server
	ts     *httptest.Server
	access string
	pair   models.TokenPair
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	s.server = NewDemoServer([]byte("test-secret"), time.Minute)
	s.ts = httptest.NewServer(s.server.Handler())

	status, _ := s.call(http.MethodPost, "/api/auth/user/register/", "", models.RegisterRequest{
		Email: "ada@example.com", Password: "secret1", FirstName: "Ada",
	}, nil)
	s.Require().Equal(http.StatusCreated, status)

	status, _ = s.call(http.MethodPost, "/api/auth/token/", "", models.LoginRequest{
		Email: "ada@example.com", Password: "secret1",
	}, &s.pair)
	s.Require().Equal(http.StatusOK, status)
	s.access = s.pair.Access
}

func (s *HandlersSuite) TearDownTest() {
	s.ts.Close()
}

func (s *HandlersSuite) call(method, path, token string, in, out interface{}) (int, []byte) {
	var body bytes.Buffer
	if in != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(in))
	}
	req, err := http.NewRequest(method, s.ts.URL+path, &body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var raw bytes.Buffer
	_, err = raw.ReadFrom(resp.Body)
	s.Require().NoError(err)
	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.Unmarshal(raw.Bytes(), out))
	}
	return resp.StatusCode, raw.Bytes()
}

func (s *HandlersSuite) TestLoginRejectsBadPassword() {
	status, body := s.call(http.MethodPost, "/api/auth/token/", "", models.LoginRequest{
		Email: "ada@example.com", Password: "nope",
	}, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Contains(string(body), "No active account")
}

func (s *HandlersSuite) TestRegisterDuplicateEmail() {
	status, body := s.call(http.MethodPost, "/api/auth/user/register/", "", models.RegisterRequest{
		Email: "ADA@example.com", Password: "secret1",
	}, nil)
	s.Equal(http.StatusBadRequest, status)
	s.Contains(string(body), `"email"`)
}

func (s *HandlersSuite) TestProfileRequiresBearer() {
	status, _ := s.call(http.MethodGet, "/api/auth/user/", "", nil, nil)
	s.Equal(http.StatusUnauthorized, status)

	var user models.User
	status, _ = s.call(http.MethodGet, "/api/auth/user/", s.access, nil, &user)
	s.Equal(http.StatusOK, status)
	s.Equal("ada@example.com", user.Email)
}

func (s *HandlersSuite) TestRevokedAccessTokenCanBeRefreshed() {
	s.server.RevokeAccessTokens()

	status, body := s.call(http.MethodGet, "/api/auth/user/", s.access, nil, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Contains(string(body), "invalid or expired")

	var refreshed models.TokenPair
	status, _ = s.call(http.MethodPost, "/api/auth/token/refresh/", "", models.RefreshRequest{Refresh: s.pair.Refresh}, &refreshed)
	s.Require().Equal(http.StatusOK, status)
	s.Empty(refreshed.Refresh)
	s.EqualValues(1, s.server.RefreshCount())

	status, _ = s.call(http.MethodGet, "/api/auth/user/", refreshed.Access, nil, nil)
	s.Equal(http.StatusOK, status)
}

func (s *HandlersSuite) TestRefreshRejectsAccessToken() {
	status, _ := s.call(http.MethodPost, "/api/auth/token/refresh/", "", models.RefreshRequest{Refresh: s.access}, nil)
	s.Equal(http.StatusUnauthorized, status)

	s.server.FailRefresh(true)
	status, _ = s.call(http.MethodPost, "/api/auth/token/refresh/", "", models.RefreshRequest{Refresh: s.pair.Refresh}, nil)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *HandlersSuite) TestCatalogAndSearch() {
	var products []models.Product
	status, _ := s.call(http.MethodGet, "/api/shop/products/", "", nil, &products)
	s.Equal(http.StatusOK, status)
	s.Len(products, 6)

	var found []models.Product
	status, _ = s.call(http.MethodGet, "/api/search/?query=garden", "", nil, &found)
	s.Equal(http.StatusOK, status)
	s.Len(found, 2)

	status, _ = s.call(http.MethodGet, "/api/shop/products/999/", "", nil, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *HandlersSuite) TestCartUpsertUpdateAndDelete() {
	var mutation models.CartMutation
	status, _ := s.call(http.MethodPost, "/api/cart/cart/", s.access, models.AddToCartRequest{Product: "1", Quantity: 2}, &mutation)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal(2, mutation.Quantity)

	status, _ = s.call(http.MethodPost, "/api/cart/cart/", s.access, models.AddToCartRequest{Product: "1", Quantity: 3}, &mutation)
	s.Require().Equal(http.StatusCreated, status)

	var cart []models.CartItem
	s.call(http.MethodGet, "/api/cart/cart/list/", s.access, nil, &cart)
	s.Require().Len(cart, 1)
	s.Equal(3, cart[0].Quantity)

	status, _ = s.call(http.MethodPatch, "/api/cart/cart/1/update/", s.access, models.UpdateQuantityRequest{Quantity: 99}, nil)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.call(http.MethodDelete, "/api/cart/cart/1/delete/", s.access, nil, nil)
	s.Equal(http.StatusNoContent, status)

	status, _ = s.call(http.MethodDelete, "/api/cart/cart/1/delete/", s.access, nil, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *HandlersSuite) TestCheckoutComputesTotalAndClearsCart() {
	s.call(http.MethodPost, "/api/cart/cart/", s.access, models.AddToCartRequest{Product: "1", Quantity: 2}, nil)
	s.call(http.MethodPost, "/api/cart/cart/", s.access, models.AddToCartRequest{Product: "6", Quantity: 1}, nil)

	status, body := s.call(http.MethodPost, "/api/order/checkout/", s.access, models.Address{City: "Springfield"}, nil)
	s.Equal(http.StatusBadRequest, status)
	s.Contains(string(body), "address_line1")

	var order models.Order
	status, _ = s.call(http.MethodPost, "/api/order/checkout/", s.access, models.Address{
		AddressLine1: "1 Main St", City: "Springfield", State: "IL", Country: "US", PostalCode: "62704",
	}, &order)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal("56.38", order.Total.StringFixed(2))
	s.Len(order.Items, 2)

	var cart []models.CartItem
	s.call(http.MethodGet, "/api/cart/cart/list/", s.access, nil, &cart)
	s.Empty(cart)

	var history []models.Order
	s.call(http.MethodGet, "/api/order/user-order-history/", s.access, nil, &history)
	s.Require().Len(history, 1)
	s.Equal(order.ID, history[0].ID)
}

func (s *HandlersSuite) TestWishlist() {
	status, _ := s.call(http.MethodPost, "/api/wishlist/add/", s.access, models.AddToWishlistRequest{Product: "3"}, nil)
	s.Equal(http.StatusCreated, status)

	var list []models.WishlistItem
	s.call(http.MethodGet, "/api/wishlist/list/", s.access, nil, &list)
	s.Require().Len(list, 1)
	s.Equal(models.ID("3"), list[0].Product.ID)

	status, _ = s.call(http.MethodDelete, "/api/wishlist/remove/3/", s.access, nil, nil)
	s.Equal(http.StatusNoContent, status)
}

func TestUpdateProfileMultipart(t *testing.T) {
	server := NewDemoServer([]byte("k"), time.Minute)
	user, err := server.Backend().Register(models.RegisterRequest{Email: "bo@example.com", Password: "secret1"})
	require.NoError(t, err)
	access, _, err := server.tokens.Pair(string(user.ID))
	require.NoError(t, err)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("first_name", "Bo"))
	part, err := w.CreateFormFile("profile_picture", "me.png")
	require.NoError(t, err)
	part.Write([]byte("png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/user/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Bo", updated.FirstName)
	require.NotNil(t, updated.ProfilePicture)
	assert.Equal(t, "/media/profile_pictures/me.png", *updated.ProfilePicture)
}
