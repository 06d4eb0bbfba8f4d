package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartLine `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartLine is one product position in a cart. Name and image are display
// fields carried along so checkout does not have to re-resolve products.
type CartLine struct {
	ProductID   string    `bson:"product_id" json:"product_id"`
	ProductName string    `bson:"product_name" json:"product_name"`
	ImageURL    string    `bson:"image_url" json:"image_url"`
	UnitPrice   float64   `bson:"unit_price" json:"unit_price"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	AddedAt     time.Time `bson:"added_at" json:"added_at"`
}

// Subtotal of the whole cart in KES.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, line := range c.Items {
		sum += line.UnitPrice * float64(line.Quantity)
	}
	return sum
}
