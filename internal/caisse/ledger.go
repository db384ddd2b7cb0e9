// Package caisse holds the PV de caisse calculation engine: the denomination,
// operation and transaction ledgers of one register record, the reconciliation
// of those ledgers against the opening balance, multi-record aggregation and
// commission rules. Everything here is pure and safe for concurrent use.
package caisse

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind of a denomination line.
type Kind string

const (
	KindBillet Kind = "billet"
	KindPiece  Kind = "piece"
)

// Direction of an operation. The empty value comes from records saved before
// directions existed and counts as DirectionIn.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Sign returns -1 for OUT, +1 otherwise.
func (d Direction) Sign() decimal.Decimal {
	if d == DirectionOut {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// TransactionKind: versement (deposit) or retrait (withdrawal).
type TransactionKind string

const (
	Versement TransactionKind = "versement"
	Retrait   TransactionKind = "retrait"
)

// DenominationLine holds the amount counted for one denomination, split
// between the till (caisse) and the vault (coffre). Quantities are amounts in
// currency units, not note counts.
type DenominationLine struct {
	Value     decimal.Decimal `json:"value"`
	CaisseQty decimal.Decimal `json:"caisseQty"`
	CoffreQty decimal.Decimal `json:"coffreQty"`
	Kind      Kind            `json:"kind"`
}

// Count reconstructs the number of physical notes or coins held in the till.
func (l DenominationLine) Count() decimal.Decimal {
	if l.Value.IsZero() {
		return decimal.Zero
	}
	return l.CaisseQty.Div(l.Value).Floor()
}

// Total is caisse + coffre for this denomination.
func (l DenominationLine) Total() decimal.Decimal {
	return l.CaisseQty.Add(l.CoffreQty)
}

// DetailLine itemizes an operation.
type DetailLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Operation is a named cash movement. When Details is non-empty, Amount and
// Number are derived from it (see SyncDetails).
type Operation struct {
	ID        string          `json:"id"`
	CatalogID string          `json:"catalogId,omitempty"`
	Name      string          `json:"name"`
	Number    int             `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction,omitempty"`
	Details   []DetailLine    `json:"details,omitempty"`
}

// Key is the identifier used to match an operation against the catalog and
// against operations of other records.
func (o Operation) Key() string {
	if o.CatalogID != "" {
		return o.CatalogID
	}
	return o.Name
}

// SignedAmount is the effect of the operation on the till.
func (o Operation) SignedAmount() decimal.Decimal {
	return o.Amount.Mul(o.Direction.Sign())
}

// Transaction is a bank flow: a versement adds to the expected balance, a
// retrait subtracts from it.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// Record is one saved version of an agent's register for a day.
type Record struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AgencyID     uuid.UUID
	Date         time.Time
	Bills        []DenominationLine
	Coins        []DenominationLine
	Operations   []Operation
	Transactions []Transaction
	SoldeDepart  decimal.Decimal
	CreatedAt    time.Time
}

// Items returns bills followed by coins.
func (r Record) Items() []DenominationLine {
	items := make([]DenominationLine, 0, len(r.Bills)+len(r.Coins))
	items = append(items, r.Bills...)
	return append(items, r.Coins...)
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

var (
	billValues = []string{"200", "100", "50", "20"}
	coinValues = []string{"10", "5", "2", "1", "0.50", "0.20", "0.10", "0.05", "0.01"}
)

// BillValues returns the legal banknote values, largest first.
func BillValues() []decimal.Decimal { return parseValues(billValues) }

// CoinValues returns the legal coin values, largest first.
func CoinValues() []decimal.Decimal { return parseValues(coinValues) }

func parseValues(vals []string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// KindOf reports whether v is a legal denomination and of which kind.
func KindOf(v decimal.Decimal) (Kind, bool) {
	for _, b := range BillValues() {
		if b.Equal(v) {
			return KindBillet, true
		}
	}
	for _, c := range CoinValues() {
		if c.Equal(v) {
			return KindPiece, true
		}
	}
	return "", false
}

// EmptyBills returns one zeroed line per legal banknote.
func EmptyBills() []DenominationLine { return emptyLines(BillValues(), KindBillet) }

// EmptyCoins returns one zeroed line per legal coin.
func EmptyCoins() []DenominationLine { return emptyLines(CoinValues(), KindPiece) }

func emptyLines(values []decimal.Decimal, k Kind) []DenominationLine {
	lines := make([]DenominationLine, len(values))
	for i, v := range values {
		lines[i] = DenominationLine{Value: v, CaisseQty: decimal.Zero, CoffreQty: decimal.Zero, Kind: k}
	}
	return lines
}
