package cart

import "time"

// Cart is one user's cart document. A unique index on user_id guarantees a
// single document per user; the line slice is the source of truth for what
// the storefront renders.
type Cart struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Lines     []Line    `bson:"lines" json:"lines"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Line is one product+variant entry. Price, name and stock are snapshots
// taken from the catalog when the line was written.
type Line struct {
	ProductID     int64     `bson:"product_id" json:"product_id"`
	VariantID     int64     `bson:"variant_id" json:"variant_id"`
	ProductName   string    `bson:"product_name" json:"product_name"`
	VariantName   string    `bson:"variant_name" json:"variant_name"`
	Color         string    `bson:"color" json:"color"`
	Size          string    `bson:"size" json:"size"`
	UnitPrice     float64   `bson:"unit_price" json:"unit_price"`
	OriginalPrice float64   `bson:"original_price,omitempty" json:"original_price,omitempty"`
	Stock         int       `bson:"stock" json:"stock"`
	ImageURL      string    `bson:"image_url" json:"image_url"`
	Quantity      int       `bson:"quantity" json:"quantity"`
	AddedAt       time.Time `bson:"added_at" json:"added_at"`
}

// MaxQuantityPerLine caps how many units of one variant a cart may hold,
// further limited by the variant's stock.
const MaxQuantityPerLine = 5

// MaxQuantity returns the effective cap for this line's variant.
func (l Line) MaxQuantity() int {
	if l.Stock < MaxQuantityPerLine {
		return l.Stock
	}
	return MaxQuantityPerLine
}
