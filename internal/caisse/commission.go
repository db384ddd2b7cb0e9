package caisse

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CommissionType selects how a catalog entry is remunerated.
type CommissionType string

const (
	CommissionNone       CommissionType = "none"
	CommissionFixed      CommissionType = "fixed"
	CommissionPercentage CommissionType = "percentage"
	CommissionTiered     CommissionType = "tiered"
)

// Tier is an inclusive [Min, Max] amount bracket.
type Tier struct {
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Commission decimal.Decimal `json:"commission"`
}

// CommissionRule holds the parameters of one commission type.
type CommissionRule struct {
	Type        CommissionType  `json:"type"`
	FixedAmount decimal.Decimal `json:"fixedAmount"`
	Percentage  decimal.Decimal `json:"percentage"`
	Tiers       []Tier          `json:"tiers,omitempty"`
}

// CatalogEntry is a configured operation. ID is the stable join key; Name is
// the display label and the fallback key for records saved before IDs existed.
type CatalogEntry struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Direction  Direction      `json:"direction"`
	Commission CommissionRule `json:"commission"`
}

// Catalog is the operation catalog shared by every agency.
type Catalog struct {
	Entries []CatalogEntry `json:"entries"`
}

// Lookup finds an entry by ID, then by Name.
func (c Catalog) Lookup(key string) (CatalogEntry, bool) {
	for _, e := range c.Entries {
		if e.ID == key {
			return e, true
		}
	}
	for _, e := range c.Entries {
		if e.Name == key {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// LinkOperations sets the catalog ID of every operation that has none and
// whose name matches a catalog entry.
func (c Catalog) LinkOperations(r *Record) {
	for i := range r.Operations {
		op := &r.Operations[i]
		if op.CatalogID != "" {
			continue
		}
		for _, e := range c.Entries {
			if e.Name == op.Name {
				op.CatalogID = e.ID
				break
			}
		}
	}
}

// Commission computes the commission due on amount for the catalog entry
// identified by key. Unknown keys, rule type none and unmatched tiers all
// yield zero. The absolute amount is used so OUT operations stay positive.
func Commission(key string, amount decimal.Decimal, catalog Catalog) decimal.Decimal {
	entry, ok := catalog.Lookup(key)
	if !ok {
		return decimal.Zero
	}
	return entry.Commission.Apply(amount)
}

// Apply evaluates the rule for amount.
func (r CommissionRule) Apply(amount decimal.Decimal) decimal.Decimal {
	abs := amount.Abs()
	switch r.Type {
	case CommissionFixed:
		return r.FixedAmount
	case CommissionPercentage:
		return abs.Mul(r.Percentage).Div(decimal.NewFromInt(100))
	case CommissionTiered:
		for _, t := range r.Tiers {
			if abs.GreaterThanOrEqual(t.Min) && abs.LessThanOrEqual(t.Max) {
				return t.Commission
			}
		}
	}
	return decimal.Zero
}

// OperationCommission is the commission of a recorded operation.
func OperationCommission(op Operation, catalog Catalog) decimal.Decimal {
	if op.CatalogID != "" {
		if _, ok := catalog.Lookup(op.CatalogID); ok {
			return Commission(op.CatalogID, op.Amount, catalog)
		}
	}
	return Commission(op.Name, op.Amount, catalog)
}

// Validate rejects catalogs an operator could not reason about: duplicate
// keys, unknown types, negative parameters and tiers that overlap or are not
// increasing.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Entries)*2)
	for _, e := range c.Entries {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("%w: opération sans identifiant ou libellé", ErrValidation)
		}
		if seen["id:"+e.ID] || seen["name:"+e.Name] {
			return fmt.Errorf("%w: opération %q en double", ErrValidation, e.Name)
		}
		seen["id:"+e.ID], seen["name:"+e.Name] = true, true
		switch e.Direction {
		case DirectionIn, DirectionOut, "":
		default:
			return fmt.Errorf("%w: sens %q inconnu pour %q", ErrValidation, e.Direction, e.Name)
		}
		if err := e.Commission.validate(); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrValidation, e.Name, err.Error())
		}
	}
	return nil
}

func (r CommissionRule) validate() error {
	switch r.Type {
	case CommissionNone, "":
		return nil
	case CommissionFixed:
		if r.FixedAmount.IsNegative() {
			return errors.New("montant fixe négatif")
		}
	case CommissionPercentage:
		if r.Percentage.IsNegative() {
			return errors.New("pourcentage négatif")
		}
	case CommissionTiered:
		if len(r.Tiers) == 0 {
			return errors.New("aucune tranche")
		}
		for i, t := range r.Tiers {
			if t.Min.IsNegative() || t.Commission.IsNegative() {
				return fmt.Errorf("tranche %d négative", i+1)
			}
			if t.Max.LessThan(t.Min) {
				return fmt.Errorf("tranche %d: max < min", i+1)
			}
			if i > 0 && !t.Min.GreaterThan(r.Tiers[i-1].Max) {
				return fmt.Errorf("tranche %d chevauche la précédente", i+1)
			}
		}
	default:
		return fmt.Errorf("type de commission %q inconnu", r.Type)
	}
	return nil
}

// DefaultCatalog is used when no configuration has been saved yet.
func DefaultCatalog() Catalog {
	d := decimal.RequireFromString
	return Catalog{Entries: []CatalogEntry{
		{ID: "transfert-envoi", Name: "Transfert envoi", Direction: DirectionIn,
			Commission: CommissionRule{Type: CommissionTiered, Tiers: []Tier{
				{Min: d("0"), Max: d("500"), Commission: d("13")},
				{Min: d("501"), Max: d("1000"), Commission: d("18")},
				{Min: d("1001"), Max: d("5000"), Commission: d("30")},
			}}},
		{ID: "transfert-paiement", Name: "Transfert paiement", Direction: DirectionOut,
			Commission: CommissionRule{Type: CommissionPercentage, Percentage: d("0.5")}},
		{ID: "change", Name: "Change", Direction: DirectionIn,
			Commission: CommissionRule{Type: CommissionNone}},
		{ID: "paiement-factures", Name: "Paiement factures", Direction: DirectionIn,
			Commission: CommissionRule{Type: CommissionFixed, FixedAmount: d("3")}},
		{ID: "recharge", Name: "Recharge", Direction: DirectionIn,
			Commission: CommissionRule{Type: CommissionPercentage, Percentage: d("2")}},
		{ID: "frais", Name: "Frais", Direction: DirectionOut,
			Commission: CommissionRule{Type: CommissionNone}},
	}}
}
