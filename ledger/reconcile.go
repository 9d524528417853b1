package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/Paranganicu/bma-opticas/logging"
)

// RawTable is a loaded table before reconciliation: whatever columns the
// workbook happened to contain, all cells as strings.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Substitution records one cell whose value could not be represented in
// its declared column kind and was replaced by the column default. Keeping
// these as tagged events makes default substitution distinguishable from
// genuinely empty input when auditing old workbooks.
type Substitution struct {
	Row     int
	Column  string
	Raw     string
	Applied string
}

// dateLayouts are tried in order when parsing Fecha_Venta cells. Old
// workbooks carry a mix of ISO dates, full timestamps and the d/m/Y form
// the previous system wrote.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// Reconcile maps a raw table onto the canonical column set. Canonical
// columns absent from the input are filled with their defaults, extra
// columns are dropped (logged, not an error), and every cell is coerced to
// its declared kind with parse failures mapped to the default and reported
// as substitutions. Row count is always preserved. A nil table yields an
// empty ledger so the system can start from a blank slate.
func Reconcile(raw *RawTable) (Ledger, []Substitution) {
	if raw == nil {
		return Ledger{Rows: []Row{}}, nil
	}

	// Index of each canonical column in the input, -1 when missing.
	index := make([]int, len(Columns))
	known := make(map[string]bool, len(Columns))
	for i, col := range Columns {
		index[i] = -1
		known[col.Name] = true
		for j, name := range raw.Columns {
			if strings.TrimSpace(name) == col.Name {
				index[i] = j
				break
			}
		}
	}

	var dropped []string
	for _, name := range raw.Columns {
		if !known[strings.TrimSpace(name)] {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) > 0 {
		logging.Info("Dropping unknown columns from loaded table", "columns", dropped)
	}

	var subs []Substitution
	out := Ledger{Rows: make([]Row, 0, len(raw.Rows))}

	for rowIdx, cells := range raw.Rows {
		var row Row
		for colIdx, col := range Columns {
			cell := ""
			if src := index[colIdx]; src >= 0 && src < len(cells) {
				cell = strings.TrimSpace(cells[src])
			}

			switch col.Kind {
			case Int:
				n, ok := parseInt(cell)
				if !ok {
					subs = append(subs, Substitution{Row: rowIdx, Column: col.Name, Raw: cell, Applied: "0"})
					n = 0
				}
				setInt(&row, col.Name, n)
			case Date:
				t, ok := parseDate(cell)
				if !ok {
					subs = append(subs, Substitution{Row: rowIdx, Column: col.Name, Raw: cell, Applied: ""})
				}
				row.FechaVenta = t
			default:
				setText(&row, col.Name, cell)
			}
		}
		out.Rows = append(out.Rows, row)
	}

	return out, subs
}

// parseInt is the best-effort numeric coercion: empty is the default (not
// a substitution), integers parse directly, decimals are truncated. The ok
// result is false only for non-empty unparseable input.
func parseInt(cell string) (int, bool) {
	if cell == "" {
		return 0, true
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return n, true
	}
	// Workbooks edited by hand show up with decimal or grouped values.
	cleaned := strings.ReplaceAll(cell, ",", ".")
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// parseDate tries the known layouts. Empty cells map to the zero-time
// sentinel without counting as a substitution.
func parseDate(cell string) (time.Time, bool) {
	if cell == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func setInt(row *Row, column string, n int) {
	switch column {
	case "Edad":
		row.Edad = n
	case "Valor":
		row.Valor = n
	}
}

func setText(row *Row, column, value string) {
	switch column {
	case "RUT":
		row.RUT = value
	case "Nombre":
		row.Nombre = value
	case "Teléfono":
		row.Telefono = value
	case "Tipo_Lente":
		row.TipoLente = value
	case "Armazon":
		row.Armazon = value
	case "Cristales":
		row.Cristales = value
	case "Forma_Pago":
		row.FormaPago = value
	case "OD_SPH":
		row.ODSph = value
	case "OD_CYL":
		row.ODCyl = value
	case "OD_EJE":
		row.ODEje = value
	case "OI_SPH":
		row.OISph = value
	case "OI_CYL":
		row.OICyl = value
	case "OI_EJE":
		row.OIEje = value
	case "DP_Lejos":
		row.DPLejos = value
	case "DP_Cerca":
		row.DPCerca = value
	case "ADD":
		row.Add = value
	}
}
