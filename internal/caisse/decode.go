package caisse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stored is a record as it comes out of persistence, ledgers still encoded.
type Stored struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	AgencyID         uuid.UUID
	Date             time.Time
	BillsJSON        []byte
	CoinsJSON        []byte
	OperationsJSON   []byte
	TransactionsJSON []byte
	SoldeDepart      decimal.Decimal
	CreatedAt        time.Time
}

// Warning reports a stored record that could not be decoded. Such a record
// still takes part in latest-per-agent selection but contributes zero to
// every total.
type Warning struct {
	RecordID uuid.UUID `json:"record_id"`
	UserID   uuid.UUID `json:"user_id"`
	Date     string    `json:"date"`
	Detail   string    `json:"detail"`
}

// Encoded is the inverse of Decode for the ledger columns.
type Encoded struct {
	Bills, Coins, Operations, Transactions []byte
}

// Encode serializes the ledgers of r.
func Encode(r Record) (Encoded, error) {
	var (
		enc Encoded
		err error
	)
	if enc.Bills, err = marshalList(r.Bills); err != nil {
		return enc, err
	}
	if enc.Coins, err = marshalList(r.Coins); err != nil {
		return enc, err
	}
	if enc.Operations, err = marshalList(r.Operations); err != nil {
		return enc, err
	}
	if enc.Transactions, err = marshalList(r.Transactions); err != nil {
		return enc, err
	}
	return enc, nil
}

func marshalList[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// Decode rebuilds a Record from its stored form. On error the returned
// record keeps its identity fields and has empty ledgers and a zero opening
// balance.
func Decode(s Stored) (Record, error) {
	r := Record{
		ID:          s.ID,
		UserID:      s.UserID,
		AgencyID:    s.AgencyID,
		Date:        Day(s.Date),
		SoldeDepart: s.SoldeDepart,
		CreatedAt:   s.CreatedAt,
	}
	var (
		bills, coins []DenominationLine
		ops          []Operation
		txs          []Transaction
	)
	for _, f := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"billets", s.BillsJSON, &bills},
		{"pièces", s.CoinsJSON, &coins},
		{"opérations", s.OperationsJSON, &ops},
		{"transactions", s.TransactionsJSON, &txs},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			zero := r
			zero.SoldeDepart = decimal.Zero
			return zero, fmt.Errorf("%s illisibles: %w", f.name, err)
		}
	}
	r.Bills, r.Coins, r.Operations, r.Transactions = bills, coins, ops, txs
	return r, nil
}

// DecodeAll decodes every stored record, turning failures into warnings.
func DecodeAll(stored []Stored) ([]Record, []Warning) {
	records := make([]Record, 0, len(stored))
	var warnings []Warning
	for _, s := range stored {
		r, err := Decode(s)
		if err != nil {
			warnings = append(warnings, Warning{
				RecordID: s.ID,
				UserID:   s.UserID,
				Date:     Day(s.Date).Format(time.DateOnly),
				Detail:   err.Error(),
			})
		}
		records = append(records, r)
	}
	return records, warnings
}
