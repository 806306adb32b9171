package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	cartPath         = "/cart/cart/"
	cartListPath     = "/cart/cart/list/"
	wishlistAddPath  = "/wishlist/add/"
	wishlistListPath = "/wishlist/list/"

	cartDeleteRoute     = "/cart/cart/{id}/delete/"
	cartUpdateRoute     = "/cart/cart/{id}/update/"
	wishlistRemoveRoute = "/wishlist/remove/{id}/"

	commitConcurrency = 4
)

// Cart is a point-in-time copy of the cart/favorites store
type Cart struct {
	Items     map[models.ID]int
	Favorites []models.ID
	Loading   bool
	Error     string
}

// CommitError reports the quantity edits the server rejected
type CommitError struct {
	Failed map[models.ID]error
}

func (e *CommitError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("product %s: %v", id, e.Failed[models.ID(id)]))
	}
	return fmt.Sprintf("failed to save %d cart quantities: %s", len(ids), strings.Join(parts, "; "))
}

func (e *CommitError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// CartService holds the cart mapping (product id to quantity) and the
// favorite set. Local state changes only after the server confirms.
type CartService struct {
	api     API
	metrics *metrics.AppMetrics

	mu        sync.RWMutex
	st        status
	items     map[models.ID]int
	favorites map[models.ID]struct{}
	refs      map[models.ID]models.ProductRef
}

// NewCartService creates a new cart service
func NewCartService(api API, m *metrics.AppMetrics) *CartService {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &CartService{
		api:       api,
		metrics:   m,
		items:     make(map[models.ID]int),
		favorites: make(map[models.ID]struct{}),
		refs:      make(map[models.ID]models.ProductRef),
	}
}

func normalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// AddToCart upserts productID with quantity and stores the confirmed
// quantity.
func (s *CartService) AddToCart(ctx context.Context, productID models.ID, quantity int) error {
	s.st.begin(&s.mu)

	var mutation models.CartMutation
	err := s.api.SendJSON(ctx, http.MethodPost, cartPath,
		models.AddToCartRequest{Product: productID, Quantity: quantity}, &mutation)
	if err == nil {
		s.mu.Lock()
		s.items[mutation.Product] = normalizeQuantity(mutation.Quantity)
		s.mu.Unlock()
		s.recordCounts(ctx)
	}
	return s.st.end(ctx, &s.mu, "cart", "add_to_cart", err)
}

// RemoveFromCart deletes productID from the cart
func (s *CartService) RemoveFromCart(ctx context.Context, productID models.ID) error {
	s.st.begin(&s.mu)

	err := s.api.Delete(ctx, fmt.Sprintf("%s%s/delete/", cartPath, url.PathEscape(string(productID))),
		httpclient.WithRoute(cartDeleteRoute))
	if err == nil {
		s.mu.Lock()
		delete(s.items, productID)
		s.mu.Unlock()
		s.recordCounts(ctx)
	}
	return s.st.end(ctx, &s.mu, "cart", "remove_from_cart", err)
}

// UpdateQuantity patches the quantity of a cart entry
func (s *CartService) UpdateQuantity(ctx context.Context, productID models.ID, quantity int) error {
	s.st.begin(&s.mu)
	return s.st.end(ctx, &s.mu, "cart", "update_quantity", s.updateQuantity(ctx, productID, quantity))
}

func (s *CartService) updateQuantity(ctx context.Context, productID models.ID, quantity int) error {
	var mutation models.CartMutation
	path := fmt.Sprintf("%s%s/update/", cartPath, url.PathEscape(string(productID)))
	if err := s.api.SendJSON(ctx, http.MethodPatch, path, models.UpdateQuantityRequest{Quantity: quantity}, &mutation,
		httpclient.WithRoute(cartUpdateRoute)); err != nil {
		return err
	}

	s.mu.Lock()
	s.items[mutation.Product] = normalizeQuantity(mutation.Quantity)
	s.mu.Unlock()
	return nil
}

// FetchCart replaces the cart mapping with the server's list
func (s *CartService) FetchCart(ctx context.Context) (map[models.ID]int, error) {
	s.st.begin(&s.mu)

	var list []models.CartItem
	err := s.api.GetJSON(ctx, cartListPath, &list)
	if err == nil {
		items := make(map[models.ID]int, len(list))
		s.mu.Lock()
		for _, item := range list {
			items[item.Product.ID] = normalizeQuantity(item.Quantity)
			s.refs[item.Product.ID] = item.Product
		}
		s.items = items
		s.mu.Unlock()
		s.recordCounts(ctx)
	}
	return s.Items(), s.st.end(ctx, &s.mu, "cart", "fetch_cart", err)
}

// AddToFavorites adds productID to the favorite set
func (s *CartService) AddToFavorites(ctx context.Context, productID models.ID) error {
	s.st.begin(&s.mu)

	var mutation models.WishlistMutation
	err := s.api.SendJSON(ctx, http.MethodPost, wishlistAddPath, models.AddToWishlistRequest{Product: productID}, &mutation)
	if err == nil {
		s.mu.Lock()
		s.favorites[mutation.Product] = struct{}{}
		s.mu.Unlock()
		s.recordCounts(ctx)
	}
	return s.st.end(ctx, &s.mu, "cart", "add_to_favorites", err)
}

// RemoveFromFavorites removes productID from the favorite set
func (s *CartService) RemoveFromFavorites(ctx context.Context, productID models.ID) error {
	s.st.begin(&s.mu)

	err := s.api.Delete(ctx, fmt.Sprintf("/wishlist/remove/%s/", url.PathEscape(string(productID))),
		httpclient.WithRoute(wishlistRemoveRoute))
	if err == nil {
		s.mu.Lock()
		delete(s.favorites, productID)
		s.mu.Unlock()
		s.recordCounts(ctx)
	}
	return s.st.end(ctx, &s.mu, "cart", "remove_from_favorites", err)
}

// FetchFavorites replaces the favorite set with the server's list
func (s *CartService) FetchFavorites(ctx context.Context) ([]models.ID, error) {
	s.st.begin(&s.mu)

	var list []models.WishlistItem
	err := s.api.GetJSON(ctx, wishlistListPath, &list)
	if err == nil {
		favorites := make(map[models.ID]struct{}, len(list))
		s.mu.Lock()
		for _, item := range list {
			favorites[item.Product.ID] = struct{}{}
			s.refs[item.Product.ID] = item.Product
		}
		s.favorites = favorites
		s.mu.Unlock()
		s.recordCounts(ctx)
	}
	return s.Favorites(), s.st.end(ctx, &s.mu, "cart", "fetch_favorites", err)
}

// ToggleFavorite adds or removes productID and reports whether it is now
// a favorite.
func (s *CartService) ToggleFavorite(ctx context.Context, productID models.ID) (bool, error) {
	if s.IsFavorite(productID) {
		return false, s.RemoveFromFavorites(ctx, productID)
	}
	if err := s.AddToFavorites(ctx, productID); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleCart adds productID with quantity 1 or removes it, and reports
// whether it is now in the cart.
func (s *CartService) ToggleCart(ctx context.Context, productID models.ID) (bool, error) {
	if s.InCart(productID) {
		return false, s.RemoveFromCart(ctx, productID)
	}
	if err := s.AddToCart(ctx, productID, 1); err != nil {
		return false, err
	}
	return true, nil
}

// CommitQuantities saves locally edited quantities before checkout. Only
// entries that differ from the confirmed mapping are sent. Edits are
// submitted concurrently and are not atomic: a *CommitError lists the
// products whose update failed while the others stay saved.
func (s *CartService) CommitQuantities(ctx context.Context, edits map[models.ID]int) error {
	s.st.begin(&s.mu)

	s.mu.RLock()
	pending := make(map[models.ID]int)
	for id, q := range edits {
		if current, ok := s.items[id]; !ok || current != q {
			pending[id] = q
		}
	}
	s.mu.RUnlock()

	var (
		failedMu sync.Mutex
		failed   = make(map[models.ID]error)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commitConcurrency)
	for id, q := range pending {
		id, q := id, q
		g.Go(func() error {
			if err := s.updateQuantity(gctx, id, q); err != nil {
				failedMu.Lock()
				failed[id] = err
				failedMu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	var err error
	if len(failed) > 0 {
		err = &CommitError{Failed: failed}
	}
	return s.st.end(ctx, &s.mu, "cart", "commit_quantities", err)
}

// InCart reports whether productID has a confirmed quantity of at least one
func (s *CartService) InCart(productID models.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[productID] >= 1
}

func (s *CartService) Quantity(productID models.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[productID]
}

func (s *CartService) IsFavorite(productID models.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[productID]
	return ok
}

// Items returns a copy of the cart mapping
func (s *CartService) Items() map[models.ID]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.ID]int, len(s.items))
	for id, q := range s.items {
		out[id] = q
	}
	return out
}

// Favorites returns the favorite set in id order
func (s *CartService) Favorites() []models.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.favorites)
}

// Product returns the last product snapshot seen for id in a cart or
// wishlist listing.
func (s *CartService) Product(id models.ID) (models.ProductRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[id]
	return ref, ok
}

// Summary prices the cart for display. Entries without a known product
// snapshot are skipped until the next FetchCart.
func (s *CartService) Summary(taxRate decimal.Decimal) Summary {
	s.mu.RLock()
	ids := make(map[models.ID]struct{}, len(s.items))
	for id := range s.items {
		ids[id] = struct{}{}
	}
	var lines []Line
	for _, id := range sortedIDs(ids) {
		ref, ok := s.refs[id]
		if !ok {
			continue
		}
		lines = append(lines, Line{Product: ref, Quantity: s.items[id]})
	}
	s.mu.RUnlock()

	return Summarize(lines, taxRate)
}

func (s *CartService) Snapshot() Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[models.ID]int, len(s.items))
	for id, q := range s.items {
		items[id] = q
	}
	return Cart{
		Items:     items,
		Favorites: sortedIDs(s.favorites),
		Loading:   s.st.loading(),
		Error:     s.st.lastErr,
	}
}

func (s *CartService) recordCounts(ctx context.Context) {
	s.mu.RLock()
	items, favorites := 0, len(s.favorites)
	for _, q := range s.items {
		items += q
	}
	s.mu.RUnlock()

	attrs := metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{})...)
	s.metrics.CartItemsCount.Record(ctx, int64(items), attrs)
	s.metrics.FavoritesCount.Record(ctx, int64(favorites), attrs)
}

// IsCommitError reports whether err carries per-product commit failures
func IsCommitError(err error) (*CommitError, bool) {
	var commitErr *CommitError
	ok := errors.As(err, &commitErr)
	return commitErr, ok
}

func sortedIDs(set map[models.ID]struct{}) []models.ID {
	ids := make([]models.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return ids
}
