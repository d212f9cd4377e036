package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"community-portal/internal/domain"
	"community-portal/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing
type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, memberID string, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok || p.MemberID != memberID {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, memberID string, ids []uuid.UUID) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) ListPublished(ctx context.Context, memberID string) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, p := range m.products {
		if p.MemberID == memberID && p.Status == domain.ProductStatusPublished {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.MemberID == order.MemberID && o.IdempotencyKey == order.IdempotencyKey {
			return repository.ErrDuplicateOrder
		}
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, memberID string, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.MemberID != memberID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepository) FindByIdempotencyKey(ctx context.Context, memberID, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.MemberID == memberID && o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

type publishedEvent struct {
	key   string
	event any
}

type mockPublisher struct {
	events []publishedEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, key string, event any) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{key: key, event: event})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// mockMemberAPI records calls and returns canned data
type mockMemberAPI struct {
	contacts     []domain.Contact
	billers      []domain.Biller
	balance      decimal.Decimal
	records      []domain.Record
	err          error
	calls        []string
	lastPayment  *domain.BillPayment
	lastTransfer *domain.Transfer
	lastQuery    *domain.RecordQuery
	lastKey      string
	lastDate     *time.Time
}

func (m *mockMemberAPI) ListContacts(ctx context.Context, memberID string) ([]domain.Contact, error) {
	m.calls = append(m.calls, "ListContacts")
	return m.contacts, m.err
}

func (m *mockMemberAPI) ListBillers(ctx context.Context, memberID string, contactID int64) ([]domain.Biller, error) {
	m.calls = append(m.calls, "ListBillers")
	return m.billers, m.err
}

func (m *mockMemberAPI) ToggleFavoriteBiller(ctx context.Context, memberID string, billerID, contactID int64) error {
	m.calls = append(m.calls, "ToggleFavoriteBiller")
	return m.err
}

func (m *mockMemberAPI) PayBill(ctx context.Context, memberID string, payment domain.BillPayment, idempotencyKey string) (*domain.BillPaymentResult, error) {
	m.calls = append(m.calls, "PayBill")
	m.lastPayment = &payment
	m.lastKey = idempotencyKey
	if m.err != nil {
		return nil, m.err
	}
	return &domain.BillPaymentResult{Success: true, Message: "Payment successful"}, nil
}

func (m *mockMemberAPI) WalletBalance(ctx context.Context, contactID int64) (*domain.WalletBalance, error) {
	m.calls = append(m.calls, "WalletBalance")
	if m.err != nil {
		return nil, m.err
	}
	return &domain.WalletBalance{
		Wallet:  domain.Wallet{ContactID: contactID, Balance: m.balance, Currency: "PHP"},
		Contact: domain.Contact{ID: contactID},
	}, nil
}

func (m *mockMemberAPI) WalletTransactions(ctx context.Context, contactID int64, date *time.Time) ([]domain.Transaction, error) {
	m.calls = append(m.calls, "WalletTransactions")
	m.lastDate = date
	return nil, m.err
}

func (m *mockMemberAPI) WalletTransfer(ctx context.Context, contactID int64, transfer domain.Transfer, idempotencyKey string) (*domain.TransferResult, error) {
	m.calls = append(m.calls, "WalletTransfer")
	m.lastTransfer = &transfer
	m.lastKey = idempotencyKey
	if m.err != nil {
		return nil, m.err
	}
	return &domain.TransferResult{Reference: "TRX-1"}, nil
}

func (m *mockMemberAPI) SearchRecords(ctx context.Context, memberID string, kind domain.RecordKind, query domain.RecordQuery) ([]domain.Record, error) {
	m.calls = append(m.calls, "SearchRecords")
	m.lastQuery = &query
	return m.records, m.err
}

func newTestRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

const testMember = "member-1"

func publishedProduct(name, price string, stock *int) *domain.Product {
	return &domain.Product{
		ID:            uuid.New(),
		MemberID:      testMember,
		Name:          name,
		Category:      "Food",
		Type:          domain.ProductTypePhysical,
		Status:        domain.ProductStatusPublished,
		Price:         domain.NewMoney(decimal.RequireFromString(price)),
		StockQuantity: stock,
	}
}

func withVariants(p *domain.Product, variants ...domain.Variant) *domain.Product {
	for i := range variants {
		variants[i].ProductID = p.ID
		if variants[i].ID == uuid.Nil {
			variants[i].ID = uuid.New()
		}
	}
	p.Variants = variants
	return p
}
