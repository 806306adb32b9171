package api

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
)

var (
	errBadCredentials = errors.New("No active account found with the given credentials")
	errEmailTaken     = errors.New("user with this email already exists.")
	errNoProduct      = errors.New("No Product matches the given query.")
	errNotInCart      = errors.New("Item not found in cart.")
	errNotInWishlist  = errors.New("Item not found in wishlist.")
	errEmptyCart      = errors.New("Cart is empty")
	errBadQuantity    = errors.New("Quantity must be at least 1.")
	errOutOfStock     = errors.New("Not enough stock.")
)

type account struct {
	user     models.User
	password string
}

type cartLine struct {
	id       int
	quantity int
}

// Backend is the in-memory state behind the reference API.
type Backend struct {
	mu sync.Mutex

	accounts map[string]*account // by user id
	byEmail  map[string]string   // email -> user id

	products   []models.Product
	categories []models.Category

	carts     map[string]map[models.ID]*cartLine
	wishlists map[string]map[models.ID]int
	orders    map[string][]models.Order

	nextID int
	now    func() time.Time
}

// NewBackend returns an empty backend seeded with catalog.
func NewBackend(categories []models.Category, products []models.Product) *Backend {
	return &Backend{
		accounts:   make(map[string]*account),
		byEmail:    make(map[string]string),
		products:   products,
		categories: categories,
		carts:      make(map[string]map[models.ID]*cartLine),
		wishlists:  make(map[string]map[models.ID]int),
		orders:     make(map[string][]models.Order),
		nextID:     100,
		now:        time.Now,
	}
}

func (b *Backend) id() int {
	b.nextID++
	return b.nextID
}

func (b *Backend) Register(req models.RegisterRequest) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email := strings.ToLower(req.Email)
	if _, ok := b.byEmail[email]; ok {
		return models.User{}, errEmailTaken
	}

	user := models.User{
		ID:          models.ID(strconv.Itoa(b.id())),
		Email:       email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	}
	b.accounts[string(user.ID)] = &account{user: user, password: req.Password}
	b.byEmail[email] = string(user.ID)
	return user, nil
}

func (b *Backend) Authenticate(email, password string) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.byEmail[strings.ToLower(email)]
	if !ok || b.accounts[id].password != password {
		return models.User{}, errBadCredentials
	}
	return b.accounts[id].user, nil
}

func (b *Backend) User(userID string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[userID]
	if !ok {
		return models.User{}, false
	}
	return acc.user, true
}

// UpdateUser applies non-nil fields and an optional picture path.
func (b *Backend) UpdateUser(userID string, update models.ProfileUpdate, picture string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[userID]
	if !ok {
		return models.User{}, false
	}
	if update.FirstName != nil {
		acc.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		acc.user.LastName = *update.LastName
	}
	if update.PhoneNumber != nil {
		acc.user.PhoneNumber = *update.PhoneNumber
	}
	if picture != "" {
		acc.user.ProfilePicture = &picture
	}
	return acc.user, true
}

func (b *Backend) Products() []models.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Product(nil), b.products...)
}

func (b *Backend) Categories() []models.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Category(nil), b.categories...)
}

func (b *Backend) Product(id models.ID) (models.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.productLocked(id)
}

func (b *Backend) productLocked(id models.ID) (models.Product, error) {
	for _, p := range b.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, errNoProduct
}

// Search matches query against name and description, case-insensitively.
func (b *Backend) Search(query string) []models.Product {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	result := []models.Product{}
	for _, p := range b.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			result = append(result, p)
		}
	}
	return result
}

// SetCartItem upserts a cart line to quantity.
func (b *Backend) SetCartItem(userID string, productID models.ID, quantity int) (models.CartMutation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if quantity < 1 {
		return models.CartMutation{}, errBadQuantity
	}
	p, err := b.productLocked(productID)
	if err != nil {
		return models.CartMutation{}, err
	}
	if quantity > p.Stock {
		return models.CartMutation{}, errOutOfStock
	}

	cart := b.carts[userID]
	if cart == nil {
		cart = make(map[models.ID]*cartLine)
		b.carts[userID] = cart
	}
	line, ok := cart[productID]
	if !ok {
		line = &cartLine{id: b.id()}
		cart[productID] = line
	}
	line.quantity = quantity

	return models.CartMutation{ID: models.ID(strconv.Itoa(line.id)), Product: productID, Quantity: quantity}, nil
}

// UpdateCartItem changes the quantity of an existing line.
func (b *Backend) UpdateCartItem(userID string, productID models.ID, quantity int) (models.CartMutation, error) {
	b.mu.Lock()
	_, ok := b.carts[userID][productID]
	b.mu.Unlock()
	if !ok {
		return models.CartMutation{}, errNotInCart
	}
	return b.SetCartItem(userID, productID, quantity)
}

func (b *Backend) RemoveCartItem(userID string, productID models.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.carts[userID][productID]; !ok {
		return errNotInCart
	}
	delete(b.carts[userID], productID)
	return nil
}

// Cart lists cart lines ordered by line id.
func (b *Backend) Cart(userID string) []models.CartItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := []models.CartItem{}
	for productID, line := range b.carts[userID] {
		p, err := b.productLocked(productID)
		if err != nil {
			continue
		}
		items = append(items, models.CartItem{
			ID:       models.ID(strconv.Itoa(line.id)),
			Product:  productRef(p),
			Quantity: line.quantity,
		})
	}
	sort.Slice(items, func(i, j int) bool { return numericLess(items[i].ID, items[j].ID) })
	return items
}

func (b *Backend) AddWishlist(userID string, productID models.ID) (models.WishlistMutation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.productLocked(productID); err != nil {
		return models.WishlistMutation{}, err
	}
	list := b.wishlists[userID]
	if list == nil {
		list = make(map[models.ID]int)
		b.wishlists[userID] = list
	}
	id, ok := list[productID]
	if !ok {
		id = b.id()
		list[productID] = id
	}
	return models.WishlistMutation{ID: models.ID(strconv.Itoa(id)), Product: productID}, nil
}

func (b *Backend) RemoveWishlist(userID string, productID models.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.wishlists[userID][productID]; !ok {
		return errNotInWishlist
	}
	delete(b.wishlists[userID], productID)
	return nil
}

func (b *Backend) Wishlist(userID string) []models.WishlistItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := []models.WishlistItem{}
	for productID, id := range b.wishlists[userID] {
		p, err := b.productLocked(productID)
		if err != nil {
			continue
		}
		items = append(items, models.WishlistItem{ID: models.ID(strconv.Itoa(id)), Product: productRef(p)})
	}
	sort.Slice(items, func(i, j int) bool { return numericLess(items[i].ID, items[j].ID) })
	return items
}

// Checkout turns the cart into an order priced from the catalog, then
// empties the cart.
func (b *Backend) Checkout(userID string, addr models.Address) (models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cart := b.carts[userID]
	if len(cart) == 0 {
		return models.Order{}, errEmptyCart
	}

	productIDs := make([]models.ID, 0, len(cart))
	for id := range cart {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return cart[productIDs[i]].id < cart[productIDs[j]].id })

	order := models.Order{
		ID:        models.ID(strconv.Itoa(b.id())),
		Status:    "pending",
		CreatedAt: b.now().UTC().Truncate(time.Second),
		Address:   addr,
		Total:     decimal.Zero,
	}
	for _, id := range productIDs {
		p, err := b.productLocked(id)
		if err != nil {
			return models.Order{}, err
		}
		qty := cart[id].quantity
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		order.Items = append(order.Items, models.OrderItem{Product: productRef(p), Quantity: qty, Subtotal: subtotal})
		order.Total = order.Total.Add(subtotal)
	}

	b.orders[userID] = append([]models.Order{order}, b.orders[userID]...)
	delete(b.carts, userID)
	return order, nil
}

// Orders lists a user's orders newest first.
func (b *Backend) Orders(userID string) []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Order{}, b.orders[userID]...)
}

func numericLess(a, b models.ID) bool {
	x, _ := strconv.Atoi(string(a))
	y, _ := strconv.Atoi(string(b))
	return x < y
}

func productRef(p models.Product) models.ProductRef {
	return models.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// DemoCatalog is the catalog served by serve-mock and used by tests.
func DemoCatalog() ([]models.Category, []models.Product) {
	categories := []models.Category{
		{ID: "1", Name: "Kitchen"},
		{ID: "2", Name: "Garden"},
		{ID: "3", Name: "Office"},
	}
	img := "/media/products/kettle.webp"
	products := []models.Product{
		{ID: "1", Name: "Steel Kettle", Description: "1.7L stovetop kettle", Price: decimal.RequireFromString("24.99"), Image: &img, Stock: 12, Category: "1"},
		{ID: "2", Name: "Chef Knife", Description: "8 inch forged blade", Price: decimal.RequireFromString("59.00"), Stock: 5, Category: "1"},
		{ID: "3", Name: "Garden Hose", Description: "15m expandable hose", Price: decimal.RequireFromString("32.50"), Stock: 20, Category: "2"},
		{ID: "4", Name: "Pruning Shears", Description: "Bypass shears for garden work", Price: decimal.RequireFromString("18.75"), Stock: 9, Category: "2"},
		{ID: "5", Name: "Desk Lamp", Description: "LED lamp with dimmer", Price: decimal.RequireFromString("42.00"), Stock: 7, Category: "3"},
		{ID: "6", Name: "Notebook", Description: "A5 dotted notebook", Price: decimal.RequireFromString("6.40"), Stock: 100, Category: "3"},
	}
	return categories, products
}
