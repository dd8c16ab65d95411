package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// GetProducts retrieves all products, optionally filtered by category slug.
func (s *Store) GetProducts(ctx context.Context, categorySlug string) ([]models.Product, error) {
	var products []models.Product
	if categorySlug == "" {
		err := s.db.SelectContext(ctx, &products,
			"SELECT * FROM products ORDER BY created_at DESC")
		return products, err
	}

	err := s.db.SelectContext(ctx, &products, `
		SELECT p.* FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE c.slug = $1
		ORDER BY p.created_at DESC`, categorySlug)
	return products, err
}

// GetProductBySlug retrieves a product by slug
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE slug = $1", slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("product not found: %s", slug)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a product and fills in generated fields.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (title, slug, price, description, image_keys, in_stock, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, p, query,
		p.Title, p.Slug, p.Price, p.Description, p.ImageKeys, p.InStock, p.CategoryID)
	if isUniqueViolation(err) {
		return models.Conflictf("product slug already exists: %s", p.Slug)
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct updates all mutable product fields.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET title = $1, slug = $2, price = $3, description = $4,
		    image_keys = $5, in_stock = $6, category_id = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`

	err := s.db.GetContext(ctx, &p.UpdatedAt, query,
		p.Title, p.Slug, p.Price, p.Description, p.ImageKeys, p.InStock, p.CategoryID, p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFoundf("product not found: %d", p.ID)
	}
	if isUniqueViolation(err) {
		return models.Conflictf("product slug already exists: %s", p.Slug)
	}
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product. Historical order items keep their
// snapshot columns; their product_id FK is nulled by the schema.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundf("product not found: %d", id)
	}
	return nil
}

// GetCategories retrieves all categories
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY name")
	return categories, err
}

// GetCategoryBySlug retrieves a category by slug
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE slug = $1", slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("category not found: %s", slug)
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category and fills in generated fields.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, c, query, c.Name, c.Slug, c.Description, c.ImageKey)
	if isUniqueViolation(err) {
		return models.Conflictf("category slug already exists: %s", c.Slug)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// UpdateCategory updates all mutable category fields.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, image_key = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	err := s.db.GetContext(ctx, &c.UpdatedAt, query, c.Name, c.Slug, c.Description, c.ImageKey, c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFoundf("category not found: %d", c.ID)
	}
	if isUniqueViolation(err) {
		return models.Conflictf("category slug already exists: %s", c.Slug)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Products referencing it are detached
// (category_id nulled by the schema), never deleted.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundf("category not found: %d", id)
	}
	return nil
}
