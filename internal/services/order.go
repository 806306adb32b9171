package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	checkoutPath     = "/order/checkout/"
	orderHistoryPath = "/order/user-order-history/"
)

// Orders is a point-in-time copy of the order store
type Orders struct {
	Orders  []models.Order
	Current *models.Order
	Loading bool
	Error   string
}

// OrderService holds placed orders and the most recently placed one.
// Orders are never modified once received.
type OrderService struct {
	api     API
	metrics *metrics.AppMetrics

	mu      sync.RWMutex
	st      status
	orders  []models.Order
	current *models.Order
}

// NewOrderService creates a new order service
func NewOrderService(api API, m *metrics.AppMetrics) *OrderService {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &OrderService{api: api, metrics: m}
}

// PlaceOrder submits addr for checkout of the server-side cart. The new
// order is prepended and becomes the current order. The local cart is not
// touched; callers re-fetch it.
func (s *OrderService) PlaceOrder(ctx context.Context, addr models.Address) (models.Order, error) {
	s.st.begin(&s.mu)

	var order models.Order
	err := models.ValidateRequest(addr)
	if err == nil {
		err = s.api.SendJSON(ctx, http.MethodPost, checkoutPath, addr, &order)
	}
	if err == nil {
		s.mu.Lock()
		s.orders = append([]models.Order{order}, s.orders...)
		current := order
		s.current = &current
		s.mu.Unlock()

		attrs := metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
			attribute.String("order.status", order.Status),
			attribute.String("address.country", addr.Country),
		})...)
		total, _ := order.Total.Float64()
		s.metrics.OrdersPlaced.Add(ctx, 1, attrs)
		s.metrics.OrderValue.Add(ctx, total, attrs)
	}
	return order, s.st.end(ctx, &s.mu, "order", "place_order", err)
}

// FetchOrderHistory replaces the order list with the server's history
func (s *OrderService) FetchOrderHistory(ctx context.Context) ([]models.Order, error) {
	s.st.begin(&s.mu)

	var orders []models.Order
	err := s.api.GetJSON(ctx, orderHistoryPath, &orders)
	if err == nil {
		s.mu.Lock()
		s.orders = orders
		s.mu.Unlock()
	}
	return orders, s.st.end(ctx, &s.mu, "order", "fetch_order_history", err)
}

func (s *OrderService) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.orders...)
}

func (s *OrderService) CurrentOrder() (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Order{}, false
	}
	return *s.current, true
}

func (s *OrderService) Snapshot() Orders {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Orders{
		Orders:  append([]models.Order(nil), s.orders...),
		Loading: s.st.loading(),
		Error:   s.st.lastErr,
	}
	if s.current != nil {
		o := *s.current
		snap.Current = &o
	}
	return snap
}
