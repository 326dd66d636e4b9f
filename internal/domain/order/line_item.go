package order

import "strings"

// LineItem is a frozen copy of the product data at the time the order was built.
// It never refers back to the live catalog.
type LineItem struct {
	ProductID   string
	ProductName string
	ImageURL    string
	Quantity    int
	UnitPrice   int64
}

func NewLineItem(productID, productName, imageURL string, quantity int, unitPrice int64) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return LineItem{}, ErrInvalidPrice
	}
	return LineItem{
		ProductID:   strings.TrimSpace(productID),
		ProductName: productName,
		ImageURL:    imageURL,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

func (li LineItem) withQuantity(q int) LineItem {
	li.Quantity = q
	return li
}
