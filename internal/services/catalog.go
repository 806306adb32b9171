package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	productsPath   = "/shop/products/"
	categoriesPath = "/shop/categories/"
	searchPath     = "/search/"
	productRoute   = "/shop/products/{id}/"
)

// Catalog is a point-in-time copy of the catalog store
type Catalog struct {
	Products   []models.Product
	Categories []models.Category
	Selected   *models.Product
	Loading    bool
	Error      string
}

// CatalogService holds the product list, categories and one selected
// product. Every fetch replaces its slice wholesale.
type CatalogService struct {
	api     API
	metrics *metrics.AppMetrics

	mu         sync.RWMutex
	st         status
	products   []models.Product
	categories []models.Category
	selected   *models.Product
}

// NewCatalogService creates a new catalog service
func NewCatalogService(api API, m *metrics.AppMetrics) *CatalogService {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &CatalogService{api: api, metrics: m}
}

// FetchProducts replaces the product list with the full catalog
func (s *CatalogService) FetchProducts(ctx context.Context) ([]models.Product, error) {
	s.st.begin(&s.mu)

	var products []models.Product
	err := s.api.GetJSON(ctx, productsPath, &products)
	if err == nil {
		s.mu.Lock()
		s.products = products
		s.mu.Unlock()
	}
	return products, s.st.end(ctx, &s.mu, "catalog", "fetch_products", err)
}

// FetchCategories replaces the category list
func (s *CatalogService) FetchCategories(ctx context.Context) ([]models.Category, error) {
	s.st.begin(&s.mu)

	var categories []models.Category
	err := s.api.GetJSON(ctx, categoriesPath, &categories)
	if err == nil {
		s.mu.Lock()
		s.categories = categories
		s.mu.Unlock()
	}
	return categories, s.st.end(ctx, &s.mu, "catalog", "fetch_categories", err)
}

// FetchByID loads one product and makes it the selected product
func (s *CatalogService) FetchByID(ctx context.Context, id models.ID) (models.Product, error) {
	s.st.begin(&s.mu)

	var product models.Product
	path := fmt.Sprintf("%s%s/", productsPath, url.PathEscape(string(id)))
	err := s.api.GetJSON(ctx, path, &product, httpclient.WithRoute(productRoute))
	if err == nil {
		s.mu.Lock()
		s.selected = &product
		s.mu.Unlock()

		s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
			attribute.String("product.id", string(product.ID)),
			attribute.String("product.category", string(product.Category)),
		})...))
	}
	return product, s.st.end(ctx, &s.mu, "catalog", "fetch_by_id", err)
}

// Search replaces the product list with the results for query. Browsing
// and searching share the list; FetchProducts restores the full catalog.
func (s *CatalogService) Search(ctx context.Context, query string) ([]models.Product, error) {
	s.st.begin(&s.mu)

	var products []models.Product
	err := s.api.GetJSON(ctx, searchPath, &products, httpclient.WithQuery(url.Values{"query": {query}}))
	if err == nil {
		s.mu.Lock()
		s.products = products
		s.mu.Unlock()
	}
	return products, s.st.end(ctx, &s.mu, "catalog", "search", err)
}

// FilterByCategory returns the loaded products in categoryID
func (s *CatalogService) FilterByCategory(categoryID models.ID) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Product
	for _, p := range s.products {
		if p.Category == categoryID {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...)
}

func (s *CatalogService) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Category(nil), s.categories...)
}

func (s *CatalogService) Snapshot() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Catalog{
		Products:   append([]models.Product(nil), s.products...),
		Categories: append([]models.Category(nil), s.categories...),
		Loading:    s.st.loading(),
		Error:      s.st.lastErr,
	}
	if s.selected != nil {
		p := *s.selected
		snap.Selected = &p
	}
	return snap
}
