package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ID is a server identifier. The API is inconsistent about sending ids as
// numbers or strings, so both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Product represents a product in the catalog
type Product struct {
	ID          ID              `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Image       *string         `json:"image"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    ID              `json:"category"`
}

// Category groups products
type Category struct {
	ID   ID     `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ProductRef is the nested product object the cart, wishlist and order
// endpoints embed.
type ProductRef struct {
	ID    ID              `json:"id" validate:"required"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image *string         `json:"image"`
}

// CartItem is one row of the server cart listing
type CartItem struct {
	ID       ID         `json:"id"`
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// CartMutation is the server acknowledgement of a cart upsert or patch
type CartMutation struct {
	ID       ID  `json:"id"`
	Product  ID  `json:"product" validate:"required"`
	Quantity int `json:"quantity"`
}

// WishlistItem is one row of the server wishlist listing
type WishlistItem struct {
	ID      ID         `json:"id"`
	Product ProductRef `json:"product"`
}

// WishlistMutation is the server acknowledgement of a wishlist add
type WishlistMutation struct {
	ID      ID `json:"id"`
	Product ID `json:"product" validate:"required"`
}

// Address is a shipping address submitted at checkout
type Address struct {
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Country      string `json:"country" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
}

// OrderItem is a line of a placed order, priced at purchase time
type OrderItem struct {
	Product  ProductRef      `json:"product" validate:"required"`
	Quantity int             `json:"quantity" validate:"gte=1"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Order represents a placed order. Orders are never modified client side.
type Order struct {
	ID        ID              `json:"id" validate:"required"`
	Items     []OrderItem     `json:"items" validate:"dive"`
	Total     decimal.Decimal `json:"total" validate:"gte=0"`
	Status    string          `json:"status" validate:"required"`
	CreatedAt time.Time       `json:"created_at"`
	Address   Address         `json:"address"`
}

// User represents the authenticated account profile
type User struct {
	ID             ID      `json:"id" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	PhoneNumber    string  `json:"phone_number"`
	ProfilePicture *string `json:"profile_picture"`
}

// TokenPair is the credential material issued at login and refresh.
// It is not part of User.
type TokenPair struct {
	Access  string `json:"access" validate:"required"`
	Refresh string `json:"refresh,omitempty"`
}

// LoginRequest represents a request for a token pair
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"-"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
}

// ProfileUpdate holds the editable profile fields. Nil fields are not sent.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// AddToCartRequest represents a request to add item to cart
type AddToCartRequest struct {
	Product  ID  `json:"product"`
	Quantity int `json:"quantity"`
}

// UpdateQuantityRequest represents a request to change a cart quantity
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddToWishlistRequest represents a request to favorite a product
type AddToWishlistRequest struct {
	Product ID `json:"product"`
}
