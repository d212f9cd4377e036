package domain

import "github.com/shopspring/decimal"

// Wallet is the read-only wallet projection of a contact
type Wallet struct {
	ID        int64           `json:"id"`
	ContactID int64           `json:"contact_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
}

// WalletBalance pairs a wallet with its owning contact
type WalletBalance struct {
	Wallet  Wallet  `json:"wallet"`
	Contact Contact `json:"contact"`
}

// Transaction is a posted wallet ledger entry
type Transaction struct {
	ID           int64           `json:"id"`
	Reference    string          `json:"reference"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter Money           `json:"balance_after"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
}

// Transfer is a wallet-to-wallet transfer request
type Transfer struct {
	ToContactID int64           `json:"to_contact_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// TransferResult is the upstream confirmation of a transfer
type TransferResult struct {
	Reference string `json:"reference"`
}

// Biller is a payee available to a member's contacts
type Biller struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	LogoURL    string `json:"logo_url,omitempty"`
	IsFavorite bool   `json:"is_favorite"`
}

// BillPayment is a bill payment submission
type BillPayment struct {
	BillerID      int64           `json:"biller_id"`
	BillerName    string          `json:"biller_name"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	ContactID     int64           `json:"contact_id"`
}

// BillPaymentResult is the upstream outcome of a bill payment
type BillPaymentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RecordKind selects one of the read-only record collections
type RecordKind string

const (
	RecordKindLending    RecordKind = "lending"
	RecordKindHealthcare RecordKind = "healthcare"
	RecordKindMortuary   RecordKind = "mortuary"
)

// Valid reports whether k names a known record collection
func (k RecordKind) Valid() bool {
	switch k {
	case RecordKindLending, RecordKindHealthcare, RecordKindMortuary:
		return true
	}
	return false
}

// Record is a read-only lending, healthcare or mortuary entry
type Record struct {
	ID        int64          `json:"id"`
	Reference string         `json:"reference"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Status    string         `json:"status"`
	Amount    Money          `json:"amount"`
	Date      string         `json:"date"`
	Details   map[string]any `json:"details,omitempty"`
}

// RecordQuery is a free-text record lookup by visitor name and email
type RecordQuery struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Query string `json:"query,omitempty"`
}
