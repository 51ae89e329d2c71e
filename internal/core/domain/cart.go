package domain

// CartLine is one (product, face value) pair in a cart.
// Uniqueness key is (ProductID, Amount).
type CartLine struct {
	ProductID string `json:"productId"`
	Brand     string `json:"brand"`
	Amount    int64  `json:"amount"`
	UnitPrice int64  `json:"unitPrice"`
	Qty       int    `json:"qty"`
}

// Subtotal returns UnitPrice * Qty.
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Qty)
}

// Cart is the shopper's cart document. Lines keep insertion order.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Add merges one unit of product at amount into the cart.
func (c *Cart) Add(p *Product, amount int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID && c.Lines[i].Amount == amount {
			c.Lines[i].Qty++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Brand:     p.Brand,
		Amount:    amount,
		UnitPrice: amount,
		Qty:       1,
	})
}

// Total is the sum of UnitPrice * Qty over all lines. Zero for an empty cart.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Qty
	}
	return n
}

// IsEmpty reports whether the cart holds no line.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
