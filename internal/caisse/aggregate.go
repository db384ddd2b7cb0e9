package caisse

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// newer reports whether a supersedes b: later CreatedAt, ties broken by the
// larger ID in canonical string form.
func newer(a, b Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

// Latest returns the authoritative record among versions, false if empty.
func Latest(versions []Record) (Record, bool) {
	if len(versions) == 0 {
		return Record{}, false
	}
	best := versions[0]
	for _, r := range versions[1:] {
		if newer(r, best) {
			best = r
		}
	}
	return best, true
}

// SelectLatestPerAgent keeps, for every user, the most recent record of the
// set. Callers pass records sharing a period (a date, or a date and agency).
// The result is ordered by user ID.
func SelectLatestPerAgent(records []Record) []Record {
	byUser := make(map[uuid.UUID]Record, len(records))
	for _, r := range records {
		cur, ok := byUser[r.UserID]
		if !ok || newer(r, cur) {
			byUser[r.UserID] = r
		}
	}
	out := make([]Record, 0, len(byUser))
	for _, r := range byUser {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out
}

// Aggregate reconciles a set of authoritative records as one. Opening
// balances and ledger totals are summed first; solde final and ecart are then
// computed from the sums.
func Aggregate(records []Record) Result {
	solde := decimal.Zero
	totals := Sum(Record{})
	for _, r := range records {
		solde = solde.Add(r.SoldeDepart)
		totals = totals.Add(Sum(r))
	}
	return Settle(solde, totals)
}

// MergeDenominations adds caisse and coffre amounts per denomination value
// across records. The output always lists the full legal set, bills then
// coins; values a record does not carry count as zero. Unknown values found in
// the records are appended at the end in first-seen order.
func MergeDenominations(records []Record) []DenominationLine {
	merged := append(EmptyBills(), EmptyCoins()...)
	index := make(map[string]int, len(merged))
	for i, l := range merged {
		index[l.Value.String()] = i
	}
	for _, r := range records {
		for _, it := range r.Items() {
			key := it.Value.String()
			i, ok := index[key]
			if !ok {
				merged = append(merged, DenominationLine{Value: it.Value, CaisseQty: decimal.Zero, CoffreQty: decimal.Zero, Kind: it.Kind})
				i = len(merged) - 1
				index[key] = i
			}
			merged[i].CaisseQty = merged[i].CaisseQty.Add(it.CaisseQty)
			merged[i].CoffreQty = merged[i].CoffreQty.Add(it.CoffreQty)
		}
	}
	return merged
}

// MergeConflict flags an operation key seen with two different directions.
type MergeConflict struct {
	Key      string    `json:"key"`
	Kept     Direction `json:"kept"`
	Ignored  Direction `json:"ignored"`
	RecordID uuid.UUID `json:"record_id"`
}

// MergedOperation is one consolidated operation row and the agent
// operations it was built from.
type MergedOperation struct {
	Operation
	Sources []Operation `json:"-"`
}

// MergeOperations merges operations by key, summing Number and Amount. An
// operation without a catalog ID joins the row carrying the same name, so
// legacy and operator-added rows land on their catalog entry. The first-seen
// direction wins. Details are not carried into the merge.
func MergeOperations(records []Record) ([]MergedOperation, []MergeConflict) {
	var (
		merged    []MergedOperation
		conflicts []MergeConflict
		index     = make(map[string]int)
		byName    = make(map[string]int)
	)
	for _, r := range records {
		for _, op := range r.Operations {
			k := op.Key()
			i, ok := index[k]
			if !ok {
				if j, found := byName[op.Name]; found && (op.CatalogID == "" || merged[j].CatalogID == "") {
					i, ok = j, true
					index[k] = j
				}
			}
			if !ok {
				merged = append(merged, MergedOperation{Operation: Operation{
					ID:        op.ID,
					CatalogID: op.CatalogID,
					Name:      op.Name,
					Number:    op.Number,
					Amount:    op.Amount,
					Direction: op.Direction,
				}, Sources: []Operation{op}})
				index[k] = len(merged) - 1
				if _, seen := byName[op.Name]; !seen {
					byName[op.Name] = len(merged) - 1
				}
				continue
			}
			m := &merged[i]
			if normalizeDir(m.Direction) != normalizeDir(op.Direction) {
				conflicts = append(conflicts, MergeConflict{Key: m.Key(), Kept: m.Direction, Ignored: op.Direction, RecordID: r.ID})
			}
			if m.CatalogID == "" && op.CatalogID != "" {
				m.CatalogID = op.CatalogID
				index[op.CatalogID] = i
			}
			m.Number += op.Number
			m.Amount = m.Amount.Add(op.Amount)
			m.Sources = append(m.Sources, op)
		}
	}
	return merged, conflicts
}

func normalizeDir(d Direction) Direction {
	if d == "" {
		return DirectionIn
	}
	return d
}

// AgentResult pairs an authoritative record with its reconciliation.
type AgentResult struct {
	Record Record
	Result Result
}

// Consolidation is the multi-agent view of one period.
type Consolidation struct {
	Result        Result
	Agents        []AgentResult
	Denominations []DenominationLine
	Operations    []MergedOperation
	Conflicts     []MergeConflict
}

// Consolidate reduces records to one per agent and aggregates them.
func Consolidate(records []Record) Consolidation {
	latest := SelectLatestPerAgent(records)
	agents := make([]AgentResult, len(latest))
	for i, r := range latest {
		agents[i] = AgentResult{Record: r, Result: Reconcile(r)}
	}
	ops, conflicts := MergeOperations(latest)
	return Consolidation{
		Result:        Aggregate(latest),
		Agents:        agents,
		Denominations: MergeDenominations(latest),
		Operations:    ops,
		Conflicts:     conflicts,
	}
}

// AgencyGroup is the records of one agency within a date.
type AgencyGroup struct {
	AgencyID uuid.UUID
	Records  []Record
	Result   Result
}

// DateGroup is the authoritative records of one date.
type DateGroup struct {
	Date     time.Time
	Records  []Record
	Result   Result
	ByAgency []AgencyGroup
}

// GroupByDate reduces records to one per agent and date, then groups them by
// date, most recent first. Each group carries its aggregate and an agency
// rollup ordered by agency ID.
func GroupByDate(records []Record) []DateGroup {
	byDate := make(map[time.Time][]Record)
	for _, r := range records {
		d := Day(r.Date)
		byDate[d] = append(byDate[d], r)
	}
	groups := make([]DateGroup, 0, len(byDate))
	for d, recs := range byDate {
		latest := SelectLatestPerAgent(recs)
		groups = append(groups, DateGroup{
			Date:     d,
			Records:  latest,
			Result:   Aggregate(latest),
			ByAgency: groupByAgency(latest),
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Date.After(groups[j].Date) })
	return groups
}

func groupByAgency(records []Record) []AgencyGroup {
	byAgency := make(map[uuid.UUID][]Record)
	for _, r := range records {
		byAgency[r.AgencyID] = append(byAgency[r.AgencyID], r)
	}
	out := make([]AgencyGroup, 0, len(byAgency))
	for id, recs := range byAgency {
		out = append(out, AgencyGroup{AgencyID: id, Records: recs, Result: Aggregate(recs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgencyID.String() < out[j].AgencyID.String() })
	return out
}

// OpeningBalance is the default solde de depart for userID on date: the solde
// final of that user's most recent record strictly before date, zero if there
// is none. history may contain any records; others are ignored.
func OpeningBalance(history []Record, userID uuid.UUID, date time.Time) decimal.Decimal {
	day := Day(date)
	var (
		prevDay  time.Time
		versions []Record
	)
	for _, r := range history {
		if r.UserID != userID {
			continue
		}
		d := Day(r.Date)
		if !d.Before(day) {
			continue
		}
		switch {
		case versions == nil || d.After(prevDay):
			prevDay = d
			versions = []Record{r}
		case d.Equal(prevDay):
			versions = append(versions, r)
		}
	}
	latest, ok := Latest(versions)
	if !ok {
		return decimal.Zero
	}
	return Reconcile(latest).SoldeFinal
}
