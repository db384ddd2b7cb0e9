package caisse

import (
	"errors"
	"fmt"
	"math"
)

// ErrValidation marks caller input the engine refuses to work with.
var ErrValidation = errors.New("données invalides")

// Validate checks a record before it is persisted: legal denominations,
// non-negative amounts, known transaction kinds and directions, and the
// detail invariant of every operation.
func Validate(r Record) error {
	if r.SoldeDepart.IsNegative() {
		return fmt.Errorf("%w: solde de départ négatif", ErrValidation)
	}
	if err := validateLines(r.Bills, KindBillet); err != nil {
		return err
	}
	if err := validateLines(r.Coins, KindPiece); err != nil {
		return err
	}
	for i, op := range r.Operations {
		if op.Name == "" {
			return fmt.Errorf("%w: opération %d sans libellé", ErrValidation, i+1)
		}
		if op.Amount.IsNegative() || op.Number < 0 {
			return fmt.Errorf("%w: opération %q négative", ErrValidation, op.Name)
		}
		if op.Number > math.MaxInt32 {
			return fmt.Errorf("%w: nombre trop grand pour %q", ErrValidation, op.Name)
		}
		switch op.Direction {
		case DirectionIn, DirectionOut, "":
		default:
			return fmt.Errorf("%w: sens %q inconnu", ErrValidation, op.Direction)
		}
		for _, d := range op.Details {
			if d.Amount.IsNegative() {
				return fmt.Errorf("%w: détail %q négatif", ErrValidation, d.Label)
			}
		}
		if len(op.Details) > 0 && !detailsInSync(op) {
			return fmt.Errorf("%w: opération %q ne correspond pas à ses détails", ErrValidation, op.Name)
		}
	}
	for _, tx := range r.Transactions {
		if tx.Kind != Versement && tx.Kind != Retrait {
			return fmt.Errorf("%w: type de transaction %q inconnu", ErrValidation, tx.Kind)
		}
		if tx.Amount.IsNegative() {
			return fmt.Errorf("%w: transaction %q négative", ErrValidation, tx.Label)
		}
	}
	return nil
}

func validateLines(lines []DenominationLine, want Kind) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		k, ok := KindOf(l.Value)
		if !ok || k != want {
			return fmt.Errorf("%w: coupure %s non reconnue", ErrValidation, l.Value.String())
		}
		if seen[l.Value.String()] {
			return fmt.Errorf("%w: coupure %s en double", ErrValidation, l.Value.String())
		}
		seen[l.Value.String()] = true
		if l.CaisseQty.IsNegative() || l.CoffreQty.IsNegative() {
			return fmt.Errorf("%w: montant négatif pour la coupure %s", ErrValidation, l.Value.String())
		}
	}
	return nil
}

func detailsInSync(op Operation) bool {
	synced := op
	SyncDetails(&synced)
	return synced.Number == op.Number && synced.Amount.Equal(op.Amount)
}
