package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrVariantOutOfStock = errors.New("variant out of stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// ProductSource supplies catalog snapshots for cart lines. The returned line
// carries current price, stock and display fields with Quantity left zero.
type ProductSource interface {
	VariantSnapshot(ctx context.Context, productID, variantID int64) (Line, error)
}

type Service struct {
	repo     Repository
	cache    Cache
	products ProductSource
	log      *slog.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache Cache, products ProductSource, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		products: products,
		log:      log,
	}
}

// Get returns the user's cart, or an empty cart when none exists yet.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			s.log.WarnContext(ctx, "cart cache get failed", "error", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) {
			return &Cart{
				UserID:    userID,
				Lines:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				s.log.Warn("cart cache set failed", "error", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Cart), nil
}

// Add upserts a line keyed by (product, variant). A second add of the same
// pair overwrites the existing line instead of creating another. Quantities
// above the per-line cap are clamped.
func (s *Service) Add(ctx context.Context, userID string, productID, variantID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	line, err := s.products.VariantSnapshot(ctx, productID, variantID)
	if err != nil {
		return fmt.Errorf("fetch variant snapshot: %w", err)
	}
	if line.Stock < 1 {
		return ErrVariantOutOfStock
	}

	if max := line.MaxQuantity(); quantity > max {
		quantity = max
	}
	line.Quantity = quantity

	if errAdd := s.repo.UpsertLine(ctx, userID, line); errAdd != nil {
		s.log.ErrorContext(ctx, "cart upsert line failed", "error", errAdd)
		return errAdd
	}

	s.invalidateCache(userID)
	return nil
}

// Increase bumps a line's quantity by one. Past min(5, stock) it is a no-op.
func (s *Service) Increase(ctx context.Context, userID string, productID, variantID int64) error {
	line, err := s.findLine(ctx, userID, productID, variantID)
	if err != nil {
		return err
	}

	// Re-check stock so a stale snapshot cannot push past what is sellable.
	snap, err := s.products.VariantSnapshot(ctx, productID, variantID)
	if err == nil {
		line.Stock = snap.Stock
	}

	if line.Quantity+1 > line.MaxQuantity() {
		return nil
	}

	if errUpd := s.repo.UpdateLineQuantity(ctx, userID, productID, variantID, line.Quantity+1); errUpd != nil {
		s.log.ErrorContext(ctx, "cart increase failed", "error", errUpd)
		return errUpd
	}

	s.invalidateCache(userID)
	return nil
}

// Decrease lowers a line's quantity by one; at quantity 1 the line is removed
// instead of persisting a zero quantity.
func (s *Service) Decrease(ctx context.Context, userID string, productID, variantID int64) error {
	line, err := s.findLine(ctx, userID, productID, variantID)
	if err != nil {
		return err
	}

	if line.Quantity <= 1 {
		return s.Remove(ctx, userID, productID, variantID)
	}

	if errUpd := s.repo.UpdateLineQuantity(ctx, userID, productID, variantID, line.Quantity-1); errUpd != nil {
		s.log.ErrorContext(ctx, "cart decrease failed", "error", errUpd)
		return errUpd
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) Remove(ctx context.Context, userID string, productID, variantID int64) error {
	if err := s.repo.RemoveLine(ctx, userID, productID, variantID); err != nil {
		s.log.ErrorContext(ctx, "cart remove line failed", "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// Clear drops the whole cart. A missing cart is not an error here, because
// Clear also runs in response to order-placed events that may arrive after
// the cart was already emptied.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil && !errors.Is(err, ErrCartNotFound) {
		s.log.ErrorContext(ctx, "cart delete failed", "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) findLine(ctx context.Context, userID string, productID, variantID int64) (*Line, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, err
	}

	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID && cart.Lines[i].VariantID == variantID {
			return &cart.Lines[i], nil
		}
	}
	return nil, ErrLineNotFound
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cart cache invalidate failed", "error", err)
	}
}
