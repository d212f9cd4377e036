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
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this idempotency key already exists")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, memberID string, id uuid.UUID) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, memberID, key string) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, member_id, idempotency_key, status, customer_name, customer_email, customer_phone,
		shipping_address, billing_address, shipping_method, notes, subtotal, tax, shipping_fee, total, created_at, updated_at`

// Create inserts an order with its lines. A second order with the same
// member and idempotency key is rejected with ErrDuplicateOrder.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (member_id, idempotency_key) DO NOTHING
	`,
		order.ID,
		order.MemberID,
		order.IdempotencyKey,
		order.Status,
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Phone,
		order.ShippingAddress,
		order.BillingAddress,
		order.ShippingMethod,
		order.Notes,
		order.Subtotal,
		order.Tax,
		order.ShippingFee,
		order.Total,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicateOrder
	}

	for i, line := range order.Lines {
		attrs, err := json.Marshal(line.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode line attributes: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, variant_id, name, attributes, unit_price, quantity, line_total, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			line.ID,
			order.ID,
			line.ProductID,
			nullUUID(line.VariantID),
			line.Name,
			attrs,
			line.UnitPrice,
			line.Quantity,
			line.LineTotal,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// FindByID retrieves an order of a member with its lines
func (r *orderRepository) FindByID(ctx context.Context, memberID string, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE member_id = $1 AND id = $2
	`, memberID, id)
	return r.load(ctx, row)
}

// FindByIdempotencyKey retrieves the order previously submitted with key
func (r *orderRepository) FindByIdempotencyKey(ctx context.Context, memberID, key string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE member_id = $1 AND idempotency_key = $2
	`, memberID, key)
	return r.load(ctx, row)
}

func (r *orderRepository) load(ctx context.Context, row *sql.Row) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.MemberID,
		&order.IdempotencyKey,
		&order.Status,
		&order.Customer.Name,
		&order.Customer.Email,
		&order.Customer.Phone,
		&order.ShippingAddress,
		&order.BillingAddress,
		&order.ShippingMethod,
		&order.Notes,
		&order.Subtotal,
		&order.Tax,
		&order.ShippingFee,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, variant_id, name, attributes, unit_price, quantity, line_total
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position
	`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	order.Lines = []domain.OrderLine{}
	for rows.Next() {
		var (
			line      domain.OrderLine
			variantID uuid.NullUUID
			attrs     []byte
		)
		err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&variantID,
			&line.Name,
			&attrs,
			&line.UnitPrice,
			&line.Quantity,
			&line.LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		if variantID.Valid {
			id := variantID.UUID
			line.VariantID = &id
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &line.Attributes); err != nil {
				return nil, fmt.Errorf("failed to decode line attributes: %w", err)
			}
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}
	return order, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
