package address

import (
	"errors"
	"strings"
)

var ErrIncomplete = errors.New("address: recipient, phone, zip code and first line are required")

// Address is an immutable delivery destination shared by orders and shipments.
type Address struct {
	Recipient string
	Phone     string
	ZipCode   string
	Line1     string
	Line2     string
	Memo      string
}

func New(recipient, phone, zipCode, line1, line2, memo string) (Address, error) {
	a := Address{
		Recipient: strings.TrimSpace(recipient),
		Phone:     strings.TrimSpace(phone),
		ZipCode:   strings.TrimSpace(zipCode),
		Line1:     strings.TrimSpace(line1),
		Line2:     strings.TrimSpace(line2),
		Memo:      strings.TrimSpace(memo),
	}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

func (a Address) Validate() error {
	if a.Recipient == "" || a.Phone == "" || a.ZipCode == "" || a.Line1 == "" {
		return ErrIncomplete
	}
	return nil
}

func (a Address) IsZero() bool { return a == Address{} }

// Full joins both address lines for display.
func (a Address) Full() string {
	if a.Line2 == "" {
		return a.Line1
	}
	return a.Line1 + " " + a.Line2
}
