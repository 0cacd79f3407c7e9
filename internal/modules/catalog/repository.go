package catalog

import "context"

// Repository defines data access for products and categories.
type Repository interface {
	// CreateProduct inserts the product and seeds its inventory row in one
	// transaction.
	CreateProduct(ctx context.Context, p *Product, initialStock, lowStockThreshold int) error
	GetProductByID(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, search, categoryID string, limit, offset int) ([]*Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) error
	DeactivateProduct(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]*Category, error)
}
