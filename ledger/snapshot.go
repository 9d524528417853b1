package ledger

import "sort"

// PatientSummary is the current view of one patient: the identity and
// prescription fields of their latest row plus how many sales they have.
type PatientSummary struct {
	Current Row `json:"current"`
	Ventas  int `json:"ventas"`
}

// Latest returns the current row for a canonical RUT: the row with the
// maximum sale date among that patient's rows, ties broken by ledger
// order with the later row winning. This is the single definition of
// "current patient state" used by receipts, the patients view and the
// dashboards.
func (l *Ledger) Latest(canonicalRUT string) (Row, bool) {
	found := false
	var best Row
	for _, row := range l.Rows {
		if row.RUT != canonicalRUT {
			continue
		}
		// >= keeps the later ledger row on a date tie.
		if !found || !row.FechaVenta.Before(best.FechaVenta) {
			best = row
			found = true
		}
	}
	return best, found
}

// History returns all rows for a canonical RUT sorted by sale date
// descending. The sort is stable so same-date rows keep ledger order.
func (l *Ledger) History(canonicalRUT string) []Row {
	var rows []Row
	for _, row := range l.Rows {
		if row.RUT == canonicalRUT {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FechaVenta.After(rows[j].FechaVenta)
	})
	return rows
}

// Patients groups the ledger by RUT and returns one summary per patient,
// ordered by each patient's first appearance in the ledger.
func (l *Ledger) Patients() []PatientSummary {
	counts := make(map[string]int)
	var order []string
	for _, row := range l.Rows {
		if counts[row.RUT] == 0 {
			order = append(order, row.RUT)
		}
		counts[row.RUT]++
	}

	summaries := make([]PatientSummary, 0, len(order))
	for _, id := range order {
		current, ok := l.Latest(id)
		if !ok {
			continue
		}
		summaries = append(summaries, PatientSummary{Current: current, Ventas: counts[id]})
	}
	return summaries
}

// Tail returns the last n rows of the ledger, newest last.
func (l *Ledger) Tail(n int) []Row {
	if n <= 0 || len(l.Rows) == 0 {
		return []Row{}
	}
	if n > len(l.Rows) {
		n = len(l.Rows)
	}
	out := make([]Row, n)
	copy(out, l.Rows[len(l.Rows)-n:])
	return out
}
