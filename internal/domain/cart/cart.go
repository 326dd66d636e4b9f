package cart

import (
	"context"
	"errors"
)

var (
	ErrEmpty           = errors.New("cart: empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	CustomerID string `json:"customer_id"`
	Items      []Item `json:"items"`
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Items) == 0 }

// Add merges quantity into an existing line for the same product.
func (c *Cart) Add(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	return nil
}

// Repository returns an empty cart, not an error, for customers without one.
type Repository interface {
	FindByCustomerID(ctx context.Context, customerID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, customerID string) error
}
