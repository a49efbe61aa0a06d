package domain

import "time"

// Identity names the owner of a cart. Exactly one of UserID or DeviceID is
// set: a signed-in customer owns the cart through UserID, an anonymous
// device owns it through DeviceID.
type Identity struct {
	UserID   string
	DeviceID string
}

func GuestIdentity(deviceID string) Identity {
	return Identity{DeviceID: deviceID}
}

func UserIdentity(userID string) Identity {
	return Identity{UserID: userID}
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Owner returns the stable id persistence is keyed on.
func (i Identity) Owner() string {
	if i.UserID != "" {
		return i.UserID
	}
	return i.DeviceID
}

// CartLine is one product-and-quantity entry. LineID is distinct from
// ProductID; within one cart there is at most one line per product.
type CartLine struct {
	LineID         string    `json:"lineId"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Quantity       int       `json:"quantity"`
	AddedAt        time.Time `json:"addedAt"`
}

// Cart is the in-memory aggregate for the active session. The persisted
// per-owner lines are the durable copy; this is a cache rebuilt by Load.
type Cart struct {
	Identity Identity   `json:"-"`
	Lines    []CartLine `json:"lineItems"`
}

// TotalItems sums line quantities.
func (c Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// TotalCents sums quantity times unit price across lines.
func (c Cart) TotalCents() int64 {
	var total int64
	for _, l := range c.Lines {
		total += int64(l.Quantity) * l.UnitPriceCents
	}
	return total
}

// Line returns the line for a product id, if present.
func (c Cart) Line(productID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}
