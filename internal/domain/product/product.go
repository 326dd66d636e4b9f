package product

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidQuantity   = errors.New("product: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("product: insufficient stock")
)

// Product is the catalog view the saga reads: price, name, images and the
// stock counter. The counter never goes below zero.
type Product struct {
	ID            string
	Name          string
	Price         int64
	StockQuantity int
	Images        []string
	UpdatedAt     time.Time
}

func New(id, name string, price int64, stock int, images ...string) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ID:            id,
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		Images:        append([]string(nil), images...),
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.StockQuantity >= quantity
}

// Deduct is the check-and-decrement step; callers must hold whatever lock
// makes it atomic with respect to other writers.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.StockQuantity {
		return ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	p.touch()
	return nil
}

func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.StockQuantity += quantity
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	c := *p
	c.Images = append([]string(nil), p.Images...)
	return &c
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
