package caisse

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Result is the reconciliation of one record or of a group of records.
// Plain data, serialized as-is by the export and report layers.
type Result struct {
	SoldeDepart     decimal.Decimal `json:"solde_depart"`
	TotalCaisse     decimal.Decimal `json:"total_caisse"`
	TotalCoffre     decimal.Decimal `json:"total_coffre"`
	TotalCash       decimal.Decimal `json:"total_cash"`
	TotalOperations decimal.Decimal `json:"total_operations"`
	TotalVersements decimal.Decimal `json:"total_versements"`
	TotalRetraits   decimal.Decimal `json:"total_retraits"`
	SoldeFinal      decimal.Decimal `json:"solde_final"`
	EcartCaisse     decimal.Decimal `json:"ecart_caisse"`
}

// Totals are the ledger sums of a record before they are combined with the
// opening balance.
type Totals struct {
	Caisse     decimal.Decimal
	Coffre     decimal.Decimal
	Operations decimal.Decimal
	Versements decimal.Decimal
	Retraits   decimal.Decimal
}

// Add returns the field-wise sum.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Caisse:     t.Caisse.Add(o.Caisse),
		Coffre:     t.Coffre.Add(o.Coffre),
		Operations: t.Operations.Add(o.Operations),
		Versements: t.Versements.Add(o.Versements),
		Retraits:   t.Retraits.Add(o.Retraits),
	}
}

// Sum computes the ledger totals of r. Operation amounts are trusted as given.
func Sum(r Record) Totals {
	t := Totals{
		Caisse:     decimal.Zero,
		Coffre:     decimal.Zero,
		Operations: decimal.Zero,
		Versements: decimal.Zero,
		Retraits:   decimal.Zero,
	}
	for _, it := range r.Items() {
		t.Caisse = t.Caisse.Add(it.CaisseQty)
		t.Coffre = t.Coffre.Add(it.CoffreQty)
	}
	for _, op := range r.Operations {
		t.Operations = t.Operations.Add(op.SignedAmount())
	}
	for _, tx := range r.Transactions {
		switch tx.Kind {
		case Versement:
			t.Versements = t.Versements.Add(tx.Amount)
		case Retrait:
			t.Retraits = t.Retraits.Add(tx.Amount)
		}
	}
	return t
}

// Settle combines an opening balance with ledger totals.
//
// The discrepancy counts the vault: ecart = (caisse + coffre) - solde final.
func Settle(soldeDepart decimal.Decimal, t Totals) Result {
	cash := t.Caisse.Add(t.Coffre)
	final := soldeDepart.Add(t.Operations).Add(t.Versements).Sub(t.Retraits)
	return Result{
		SoldeDepart:     soldeDepart,
		TotalCaisse:     t.Caisse,
		TotalCoffre:     t.Coffre,
		TotalCash:       cash,
		TotalOperations: t.Operations,
		TotalVersements: t.Versements,
		TotalRetraits:   t.Retraits,
		SoldeFinal:      final,
		EcartCaisse:     cash.Sub(final),
	}
}

// Reconcile computes the derived balances of a single record.
func Reconcile(r Record) Result {
	return Settle(r.SoldeDepart, Sum(r))
}

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Rounded returns a copy of res with every field rounded to cents.
func (res Result) Rounded() Result {
	return Result{
		SoldeDepart:     Round2(res.SoldeDepart),
		TotalCaisse:     Round2(res.TotalCaisse),
		TotalCoffre:     Round2(res.TotalCoffre),
		TotalCash:       Round2(res.TotalCash),
		TotalOperations: Round2(res.TotalOperations),
		TotalVersements: Round2(res.TotalVersements),
		TotalRetraits:   Round2(res.TotalRetraits),
		SoldeFinal:      Round2(res.SoldeFinal),
		EcartCaisse:     Round2(res.EcartCaisse),
	}
}

var frPrinter = message.NewPrinter(language.French)

// FormatMontant renders an amount the way PV screens and exports show it:
// grouped thousands, comma decimal point, two fraction digits.
func FormatMontant(d decimal.Decimal) string {
	r := Round2(d)
	f, _ := r.Float64()
	s := frPrinter.Sprint(number.Decimal(f, number.Scale(2)))
	// x/text renders -0 as "-0,00"
	if r.IsZero() {
		s = strings.TrimPrefix(s, "-")
	}
	return s
}
