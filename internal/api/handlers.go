package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/SigNoz/storefront-go-client/internal/middleware"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/gorilla/mux"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// SetupRoutes configures the storefront routes under /api
func (s *Server) SetupRoutes(r *mux.Router) {
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.LoggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/token/", s.LoginHandler).Methods("POST")
	api.HandleFunc("/auth/token/refresh/", s.RefreshHandler).Methods("POST")
	api.HandleFunc("/auth/user/register/", s.RegisterHandler).Methods("POST")

	// Profile
	api.Handle("/auth/user/", s.requireAuth(s.GetProfileHandler)).Methods("GET")
	api.Handle("/auth/user/", s.requireAuth(s.UpdateProfileHandler)).Methods("PATCH")

	// Catalog
	api.HandleFunc("/shop/products/", s.ListProductsHandler).Methods("GET")
	api.HandleFunc("/shop/products/{id}/", s.GetProductHandler).Methods("GET")
	api.HandleFunc("/shop/categories/", s.ListCategoriesHandler).Methods("GET")
	api.HandleFunc("/search/", s.SearchHandler).Methods("GET")

	// Wishlist
	api.Handle("/wishlist/add/", s.requireAuth(s.AddWishlistHandler)).Methods("POST")
	api.Handle("/wishlist/remove/{id}/", s.requireAuth(s.RemoveWishlistHandler)).Methods("DELETE")
	api.Handle("/wishlist/list/", s.requireAuth(s.ListWishlistHandler)).Methods("GET")

	// Cart
	api.Handle("/cart/cart/", s.requireAuth(s.AddToCartHandler)).Methods("POST")
	api.Handle("/cart/cart/list/", s.requireAuth(s.GetCartHandler)).Methods("GET")
	api.Handle("/cart/cart/{id}/update/", s.requireAuth(s.UpdateCartHandler)).Methods("PATCH")
	api.Handle("/cart/cart/{id}/delete/", s.requireAuth(s.RemoveFromCartHandler)).Methods("DELETE")

	// Orders
	api.Handle("/order/checkout/", s.requireAuth(s.CheckoutHandler)).Methods("POST")
	api.Handle("/order/user-order-history/", s.requireAuth(s.OrderHistoryHandler)).Methods("GET")

	// Health
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
}

// requireAuth rejects requests without a valid bearer access token.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		userID, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// HealthHandler handles health check requests
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// LoginHandler handles POST /api/auth/token/
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.backend.Authenticate(req.Email, req.Password)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, err.Error())
		return
	}

	access, refresh, err := s.tokens.Pair(string(user.ID))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.TokenPair{Access: access, Refresh: refresh})
}

// RefreshHandler handles POST /api/auth/token/refresh/
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	access, err := s.tokens.Refresh(req.Refresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": err.Error(), "code": "token_not_valid"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// RegisterHandler handles POST /api/auth/user/register/
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := map[string][]string{}
	if req.Email == "" {
		fields["email"] = []string{"This field is required."}
	}
	if len(req.Password) < 6 {
		fields["password"] = []string{"Ensure this field has at least 6 characters."}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	user, err := s.backend.Register(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {err.Error()}})
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// GetProfileHandler handles GET /api/auth/user/
func (s *Server) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.backend.User(userID(r))
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler handles multipart PATCH /api/auth/user/
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	var update models.ProfileUpdate
	if v, ok := r.MultipartForm.Value["first_name"]; ok && len(v) > 0 {
		update.FirstName = &v[0]
	}
	if v, ok := r.MultipartForm.Value["last_name"]; ok && len(v) > 0 {
		update.LastName = &v[0]
	}
	if v, ok := r.MultipartForm.Value["phone_number"]; ok && len(v) > 0 {
		update.PhoneNumber = &v[0]
	}

	picture := ""
	if files := r.MultipartForm.File["profile_picture"]; len(files) > 0 {
		picture = "/media/profile_pictures/" + filepath.Base(files[0].Filename)
	}

	user, ok := s.backend.UpdateUser(userID(r), update, picture)
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListProductsHandler handles GET /api/shop/products/
func (s *Server) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Products())
}

// GetProductHandler handles GET /api/shop/products/{id}/
func (s *Server) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := s.backend.Product(models.ID(mux.Vars(r)["id"]))
	if err != nil {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ListCategoriesHandler handles GET /api/shop/categories/
func (s *Server) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Categories())
}

// SearchHandler handles GET /api/search/?query=
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Search(r.URL.Query().Get("query")))
}

// AddWishlistHandler handles POST /api/wishlist/add/
func (s *Server) AddWishlistHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddToWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.backend.AddWishlist(userID(r), req.Product)
	if err != nil {
		writeDetail(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// RemoveWishlistHandler handles DELETE /api/wishlist/remove/{id}/
func (s *Server) RemoveWishlistHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.RemoveWishlist(userID(r), models.ID(mux.Vars(r)["id"])); err != nil {
		writeDetail(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWishlistHandler handles GET /api/wishlist/list/
func (s *Server) ListWishlistHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Wishlist(userID(r)))
}

// AddToCartHandler handles POST /api/cart/cart/
func (s *Server) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.backend.SetCartItem(userID(r), req.Product, req.Quantity)
	if err != nil {
		writeDetail(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateCartHandler handles PATCH /api/cart/cart/{id}/update/
func (s *Server) UpdateCartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.backend.UpdateCartItem(userID(r), models.ID(mux.Vars(r)["id"]), req.Quantity)
	if err != nil {
		writeDetail(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// RemoveFromCartHandler handles DELETE /api/cart/cart/{id}/delete/
func (s *Server) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.RemoveCartItem(userID(r), models.ID(mux.Vars(r)["id"])); err != nil {
		writeDetail(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCartHandler handles GET /api/cart/cart/list/
func (s *Server) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Cart(userID(r)))
}

// CheckoutHandler handles POST /api/order/checkout/
func (s *Server) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := map[string][]string{}
	required := map[string]string{
		"address_line1": addr.AddressLine1,
		"city":          addr.City,
		"state":         addr.State,
		"country":       addr.Country,
		"postal_code":   addr.PostalCode,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[name] = []string{"This field is required."}
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	order, err := s.backend.Checkout(userID(r), addr)
	if err != nil {
		writeDetail(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// OrderHistoryHandler handles GET /api/order/user-order-history/
func (s *Server) OrderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Orders(userID(r)))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoProduct), errors.Is(err, errNotInCart), errors.Is(err, errNotInWishlist):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
