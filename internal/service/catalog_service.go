package service

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// CatalogStore is the persistence surface the catalog service consumes.
// *store.Store satisfies it; tests substitute a fake.
type CatalogStore interface {
	GetProducts(ctx context.Context, categorySlug string) ([]models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// CatalogService owns the product/category read model: validation on the
// way in, image URL resolution on the way out. It never reaches into the
// cart or the order ledger.
type CatalogService struct {
	store  CatalogStore
	images *ImageResolver
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, images *ImageResolver) *CatalogService {
	return &CatalogService{
		store:  store,
		images: images,
		logger: util.GetLogger(),
	}
}

// ProductInput is the schema-validated admin payload for product writes.
type ProductInput struct {
	Title       string          `json:"title" binding:"required"`
	Slug        string          `json:"slug" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" binding:"required"`
	ImageKeys   []string        `json:"image_keys"`
	InStock     bool            `json:"in_stock"`
	CategoryID  *int64          `json:"category_id"`
}

// CategoryInput is the schema-validated admin payload for category writes.
type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key"`
}

func (in *ProductInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" || in.Slug == "" || in.Description == "" {
		return models.Validationf("title, slug and description are required")
	}
	if in.Price.IsNegative() {
		return models.Validationf("price must not be negative")
	}
	if len(in.ImageKeys) > models.MaxProductImages {
		return models.Validationf("at most %d images allowed", models.MaxProductImages)
	}
	for i, key := range in.ImageKeys {
		in.ImageKeys[i] = strings.TrimSpace(key)
		if in.ImageKeys[i] == "" {
			return models.Validationf("image reference must not be empty")
		}
	}
	return nil
}

func (in *CategoryInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" || in.Slug == "" {
		return models.Validationf("name and slug are required")
	}
	return nil
}

// resolveProduct fills display URLs from stored keys.
func (s *CatalogService) resolveProduct(p *models.Product) {
	p.ImageURLs = s.images.ResolveAll(p.ImageKeys)
}

// ListProducts returns products, optionally filtered by category slug, with
// resolved image URLs.
func (s *CatalogService) ListProducts(ctx context.Context, categorySlug string) ([]models.Product, error) {
	products, err := s.store.GetProducts(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	for i := range products {
		s.resolveProduct(&products[i])
	}
	return products, nil
}

// GetProduct fetches one product by slug with resolved image URLs.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.resolveProduct(product)
	return product, nil
}

// CreateProduct validates and persists a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       in.Title,
		Slug:        in.Slug,
		Price:       in.Price,
		Description: in.Description,
		ImageKeys:   pq.StringArray(in.ImageKeys),
		InStock:     in.InStock,
		CategoryID:  in.CategoryID,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("slug", product.Slug))

	s.resolveProduct(product)
	return product, nil
}

// UpdateProduct validates and persists changes to an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          id,
		Title:       in.Title,
		Slug:        in.Slug,
		Price:       in.Price,
		Description: in.Description,
		ImageKeys:   pq.StringArray(in.ImageKeys),
		InStock:     in.InStock,
		CategoryID:  in.CategoryID,
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.resolveProduct(product)
	return product, nil
}

// DeleteProduct removes a product from the catalog. Order items referencing
// it keep their snapshots; the schema nulls their product reference.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// ListCategories returns all categories with resolved image URLs.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].ImageURL = s.images.Resolve(categories[i].ImageKey)
	}
	return categories, nil
}

// CreateCategory validates and persists a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		ImageKey:    in.ImageKey,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		zap.Int64("category_id", category.ID),
		zap.String("slug", category.Slug))

	category.ImageURL = s.images.Resolve(category.ImageKey)
	return category, nil
}

// UpdateCategory validates and persists changes to an existing category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	category := &models.Category{
		ID:          id,
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		ImageKey:    in.ImageKey,
	}

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}

	category.ImageURL = s.images.Resolve(category.ImageKey)
	return category, nil
}

// DeleteCategory removes a category; referencing products are detached.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}
