package catalog

import (
	"context"

	"github.com/jayyveer/yarnbykrosh/internal/cart"
)

// SnapshotSource adapts the catalog repository to the cart's ProductSource.
type SnapshotSource struct {
	repo *Repository
}

func NewSnapshotSource(repo *Repository) *SnapshotSource {
	return &SnapshotSource{repo: repo}
}

func (s *SnapshotSource) VariantSnapshot(ctx context.Context, productID, variantID int64) (cart.Line, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return cart.Line{}, err
	}

	variant, err := s.repo.GetVariant(ctx, productID, variantID)
	if err != nil {
		return cart.Line{}, err
	}

	line := cart.Line{
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: product.Name,
		VariantName: variant.Name,
		Color:       variant.Color,
		Size:        product.Size,
		UnitPrice:   product.Price,
		Stock:       variant.Stock,
	}
	if product.OriginalPrice != nil {
		line.OriginalPrice = *product.OriginalPrice
	}
	if len(variant.ImageURLs) > 0 {
		line.ImageURL = variant.ImageURLs[0]
	}
	return line, nil
}
