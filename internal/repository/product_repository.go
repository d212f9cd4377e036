package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"community-portal/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for storefront catalog data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, memberID string, id uuid.UUID) (*domain.Product, error)
	FindByIDs(ctx context.Context, memberID string, ids []uuid.UUID) ([]*domain.Product, error)
	ListPublished(ctx context.Context, memberID string) ([]domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, member_id, name, description, category, tags, type, price, status, stock_quantity, image_url, created_at, updated_at`

const variantColumns = `id, product_id, sku, attributes, price, stock_quantity, weight, dimensions, is_active`

// Create inserts a product and its variants in one transaction
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	tags, err := json.Marshal(nonNilTags(product.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		product.ID,
		product.MemberID,
		product.Name,
		product.Description,
		product.Category,
		tags,
		product.Type,
		product.Price,
		product.Status,
		nullInt(product.StockQuantity),
		product.ImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID

		attrs, err := json.Marshal(v.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode variant attributes: %w", err)
		}
		var dims []byte
		if v.Dimensions != nil {
			if dims, err = json.Marshal(v.Dimensions); err != nil {
				return fmt.Errorf("failed to encode variant dimensions: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_variants (`+variantColumns+`, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			v.ID,
			v.ProductID,
			v.SKU,
			attrs,
			v.Price,
			nullInt(v.StockQuantity),
			v.Weight,
			dims,
			v.IsActive,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to create variant: %w", err)
		}
	}

	return tx.Commit()
}

// FindByID retrieves a product of a member with its variants
func (r *productRepository) FindByID(ctx context.Context, memberID string, id uuid.UUID) (*domain.Product, error) {
	products, err := r.FindByIDs(ctx, memberID, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return products[0], nil
}

// FindByIDs retrieves the products of a member among ids, in any status.
// Unknown IDs are skipped.
func (r *productRepository) FindByIDs(ctx context.Context, memberID string, ids []uuid.UUID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE member_id = $1 AND id = ANY($2::uuid[])
		ORDER BY created_at DESC
	`, memberID, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Product, len(products))
	for i := range products {
		out[i] = &products[i]
	}
	if err := r.attachVariants(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPublished retrieves every published product of a member, newest first
func (r *productRepository) ListPublished(ctx context.Context, memberID string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE member_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, memberID, domain.ProductStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Product, len(products))
	for i := range products {
		refs[i] = &products[i]
	}
	if err := r.attachVariants(ctx, refs); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) attachVariants(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, position
	`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v     domain.Variant
			attrs []byte
			dims  []byte
			stock sql.NullInt64
		)
		err := rows.Scan(
			&v.ID,
			&v.ProductID,
			&v.SKU,
			&attrs,
			&v.Price,
			&stock,
			&v.Weight,
			&dims,
			&v.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
			return fmt.Errorf("failed to decode variant attributes: %w", err)
		}
		if len(dims) > 0 {
			v.Dimensions = &domain.Dimensions{}
			if err := json.Unmarshal(dims, v.Dimensions); err != nil {
				return fmt.Errorf("failed to decode variant dimensions: %w", err)
			}
		}
		v.StockQuantity = intPtr(stock)

		if p, ok := byID[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating variants: %w", err)
	}
	return nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	products := []domain.Product{}
	for rows.Next() {
		var (
			p     domain.Product
			tags  []byte
			stock sql.NullInt64
		)
		err := rows.Scan(
			&p.ID,
			&p.MemberID,
			&p.Name,
			&p.Description,
			&p.Category,
			&tags,
			&p.Type,
			&p.Price,
			&p.Status,
			&stock,
			&p.ImageURL,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &p.Tags); err != nil {
				return nil, fmt.Errorf("failed to decode tags: %w", err)
			}
		}
		p.StockQuantity = intPtr(stock)
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
