package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListProducts(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, category_id, name, description, price, original_price, size, created_at
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p := &Product{}
		err := rows.Scan(
			&p.ID,
			&p.CategoryID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.OriginalPrice,
			&p.Size,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, category_id, name, description, price, original_price, size, created_at
		FROM products
		WHERE id = $1
	`

	p := &Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.OriginalPrice,
		&p.Size,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	variants, err := r.ListVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	return p, nil
}

func (r *Repository) ListVariants(ctx context.Context, productID int64) ([]Variant, error) {
	query := `
		SELECT id, product_id, name, color, stock, image_urls, created_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(
			&v.ID,
			&v.ProductID,
			&v.Name,
			&v.Color,
			&v.Stock,
			pq.Array(&v.ImageURLs),
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return variants, nil
}

func (r *Repository) GetVariant(ctx context.Context, productID, variantID int64) (*Variant, error) {
	query := `
		SELECT id, product_id, name, color, stock, image_urls, created_at
		FROM product_variants
		WHERE product_id = $1 AND id = $2
	`

	var v Variant
	err := r.db.QueryRowContext(ctx, query, productID, variantID).Scan(
		&v.ID,
		&v.ProductID,
		&v.Name,
		&v.Color,
		&v.Stock,
		pq.Array(&v.ImageURLs),
		&v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	return &v, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (category_id, name, description, price, original_price, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.CategoryID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Size,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, description = $4, price = $5, original_price = $6, size = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Size)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) CreateVariant(ctx context.Context, v *Variant) error {
	query := `
		INSERT INTO product_variants (product_id, name, color, stock, image_urls)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		v.ProductID, v.Name, v.Color, v.Stock, pq.Array(v.ImageURLs),
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

func (r *Repository) UpdateVariantStock(ctx context.Context, variantID int64, stock int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE product_variants SET stock = $2 WHERE id = $1`, variantID, stock)
	if err != nil {
		return fmt.Errorf("update variant stock: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrVariantNotFound
	}
	return nil
}

func (r *Repository) DeleteVariant(ctx context.Context, variantID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, variantID)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrVariantNotFound
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*Category, error) {
	query := `
		SELECT id, name, description, image_url, created_at
		FROM categories
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (name, description, image_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, c.Name, c.Description, c.ImageURL).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
