package caisse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"pvcaisse/internal/formule"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var maxNumber = decimal.NewFromInt(math.MaxInt32)

// SyncDetails derives Amount and Number from Details when there are any.
// Operations without details keep the values typed by the operator.
func SyncDetails(op *Operation) {
	if len(op.Details) == 0 {
		return
	}
	total := decimal.Zero
	for _, d := range op.Details {
		total = total.Add(d.Amount)
	}
	op.Amount = total
	op.Number = len(op.Details)
}

// SyncAll applies SyncDetails to every operation of r.
func SyncAll(r *Record) {
	for i := range r.Operations {
		SyncDetails(&r.Operations[i])
	}
}

// AddDetail appends a detail line and re-derives the operation totals.
func AddDetail(op *Operation, d DetailLine) {
	op.Details = append(op.Details, d)
	SyncDetails(op)
}

// RemoveDetail drops the detail at index i. Removing the last detail leaves
// the operation at zero rather than at its pre-detail value.
func RemoveDetail(op *Operation, i int) error {
	if i < 0 || i >= len(op.Details) {
		return fmt.Errorf("%w: détail %d inexistant", ErrValidation, i)
	}
	op.Details = append(op.Details[:i:i], op.Details[i+1:]...)
	if len(op.Details) == 0 {
		op.Details = nil
		op.Amount = decimal.Zero
		op.Number = 0
		return nil
	}
	SyncDetails(op)
	return nil
}

// ClearOperations zeroes amounts and counts but keeps every row with its name
// and direction, so the next day's entry starts from the same list.
func ClearOperations(r *Record) {
	for i := range r.Operations {
		op := &r.Operations[i]
		op.Amount = decimal.Zero
		op.Number = 0
		op.Details = nil
	}
}

// NewDraft opens an empty register entry: every legal denomination at zero
// and one zero operation per catalog entry.
func NewDraft(userID, agencyID uuid.UUID, date time.Time, soldeDepart decimal.Decimal, catalog Catalog) Record {
	ops := make([]Operation, len(catalog.Entries))
	for i, e := range catalog.Entries {
		ops[i] = Operation{
			ID:        uuid.NewString(),
			CatalogID: e.ID,
			Name:      e.Name,
			Amount:    decimal.Zero,
			Direction: e.Direction,
		}
	}
	return Record{
		UserID:       userID,
		AgencyID:     agencyID,
		Date:         Day(date),
		Bills:        EmptyBills(),
		Coins:        EmptyCoins(),
		Operations:   ops,
		Transactions: []Transaction{},
		SoldeDepart:  soldeDepart,
	}
}

// Edit targets.
const (
	TargetBillet      = "billet"
	TargetPiece       = "piece"
	TargetOperation   = "operation"
	TargetDetail      = "detail"
	TargetTransaction = "transaction"
	TargetSoldeDepart = "solde_depart"
)

// Edit is a single operator change to an in-memory record. Index addresses a
// row of the target ledger; SubIndex addresses a detail line of operation
// Index. Numeric values may be formulas such as "=100+50".
type Edit struct {
	Target   string `json:"target"   validate:"required,oneof=billet piece operation detail transaction solde_depart"`
	Action   string `json:"action"   validate:"omitempty,oneof=set add remove clear"`
	Index    int    `json:"index"    validate:"min=0"`
	SubIndex int    `json:"sub_index" validate:"min=0"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

// Apply performs e on r. Detail edits re-derive the parent operation.
func Apply(r *Record, e Edit) error {
	switch e.Target {
	case TargetSoldeDepart:
		v, err := amount(e.Value)
		if err != nil {
			return err
		}
		r.SoldeDepart = v
		return nil
	case TargetBillet:
		return editLine(r.Bills, e)
	case TargetPiece:
		return editLine(r.Coins, e)
	case TargetOperation:
		return editOperation(r, e)
	case TargetDetail:
		return editDetail(r, e)
	case TargetTransaction:
		return editTransaction(r, e)
	}
	return fmt.Errorf("%w: cible %q inconnue", ErrValidation, e.Target)
}

func amount(raw string) (decimal.Decimal, error) {
	v, err := formule.Eval(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: montant négatif", ErrValidation)
	}
	return v, nil
}

func editLine(lines []DenominationLine, e Edit) error {
	if e.Index < 0 || e.Index >= len(lines) {
		return fmt.Errorf("%w: coupure %d inexistante", ErrValidation, e.Index)
	}
	v, err := amount(e.Value)
	if err != nil {
		return err
	}
	switch e.Field {
	case "caisse":
		lines[e.Index].CaisseQty = v
	case "coffre":
		lines[e.Index].CoffreQty = v
	default:
		return fmt.Errorf("%w: champ %q inconnu", ErrValidation, e.Field)
	}
	return nil
}

func editOperation(r *Record, e Edit) error {
	switch e.Action {
	case "add":
		name := strings.TrimSpace(e.Value)
		if name == "" {
			return fmt.Errorf("%w: libellé requis", ErrValidation)
		}
		dir := Direction(strings.ToUpper(e.Field))
		if dir != DirectionOut {
			dir = DirectionIn
		}
		r.Operations = append(r.Operations, Operation{ID: uuid.NewString(), Name: name, Amount: decimal.Zero, Direction: dir})
		return nil
	case "clear":
		ClearOperations(r)
		return nil
	}
	if e.Index < 0 || e.Index >= len(r.Operations) {
		return fmt.Errorf("%w: opération %d inexistante", ErrValidation, e.Index)
	}
	op := &r.Operations[e.Index]
	if e.Action == "remove" {
		r.Operations = append(r.Operations[:e.Index:e.Index], r.Operations[e.Index+1:]...)
		return nil
	}
	switch e.Field {
	case "amount":
		if len(op.Details) > 0 {
			return fmt.Errorf("%w: le montant de %q est calculé depuis ses détails", ErrValidation, op.Name)
		}
		v, err := amount(e.Value)
		if err != nil {
			return err
		}
		op.Amount = v
	case "number":
		if len(op.Details) > 0 {
			return fmt.Errorf("%w: le nombre de %q est calculé depuis ses détails", ErrValidation, op.Name)
		}
		v, err := amount(e.Value)
		if err != nil {
			return err
		}
		if !v.IsInteger() {
			return fmt.Errorf("%w: nombre entier attendu", ErrValidation)
		}
		if v.GreaterThan(maxNumber) {
			return fmt.Errorf("%w: nombre trop grand", ErrValidation)
		}
		op.Number = int(v.IntPart())
	case "direction":
		dir := Direction(strings.ToUpper(e.Value))
		if dir != DirectionIn && dir != DirectionOut {
			return fmt.Errorf("%w: sens %q inconnu", ErrValidation, e.Value)
		}
		op.Direction = dir
	case "name":
		if strings.TrimSpace(e.Value) == "" {
			return fmt.Errorf("%w: libellé requis", ErrValidation)
		}
		op.Name = strings.TrimSpace(e.Value)
	default:
		return fmt.Errorf("%w: champ %q inconnu", ErrValidation, e.Field)
	}
	return nil
}

func editDetail(r *Record, e Edit) error {
	if e.Index < 0 || e.Index >= len(r.Operations) {
		return fmt.Errorf("%w: opération %d inexistante", ErrValidation, e.Index)
	}
	op := &r.Operations[e.Index]
	switch e.Action {
	case "add":
		v, err := amount(e.Value)
		if err != nil {
			return err
		}
		AddDetail(op, DetailLine{Label: e.Field, Amount: v})
		return nil
	case "remove":
		return RemoveDetail(op, e.SubIndex)
	}
	if e.SubIndex < 0 || e.SubIndex >= len(op.Details) {
		return fmt.Errorf("%w: détail %d inexistant", ErrValidation, e.SubIndex)
	}
	switch e.Field {
	case "amount":
		v, err := amount(e.Value)
		if err != nil {
			return err
		}
		op.Details[e.SubIndex].Amount = v
	case "label":
		op.Details[e.SubIndex].Label = e.Value
	default:
		return fmt.Errorf("%w: champ %q inconnu", ErrValidation, e.Field)
	}
	SyncDetails(op)
	return nil
}

func editTransaction(r *Record, e Edit) error {
	switch e.Action {
	case "add":
		kind := TransactionKind(e.Field)
		if kind != Versement && kind != Retrait {
			return fmt.Errorf("%w: type de transaction %q inconnu", ErrValidation, e.Field)
		}
		r.Transactions = append(r.Transactions, Transaction{ID: uuid.NewString(), Kind: kind, Label: e.Value, Amount: decimal.Zero})
		return nil
	}
	if e.Index < 0 || e.Index >= len(r.Transactions) {
		return fmt.Errorf("%w: transaction %d inexistante", ErrValidation, e.Index)
	}
	tx := &r.Transactions[e.Index]
	if e.Action == "remove" {
		r.Transactions = append(r.Transactions[:e.Index:e.Index], r.Transactions[e.Index+1:]...)
		return nil
	}
	switch e.Field {
	case "amount":
		v, err := amount(e.Value)
		if err != nil {
			return err
		}
		tx.Amount = v
	case "label":
		tx.Label = e.Value
	case "description":
		tx.Description = e.Value
	default:
		return fmt.Errorf("%w: champ %q inconnu", ErrValidation, e.Field)
	}
	return nil
}
