// Package ledger holds the denormalized patient/sale table backing the
// store and the rules that keep it consistent: the canonical column schema,
// the reconciler that coerces arbitrary loaded tables into that schema, the
// resolver that validates and appends sale submissions, and the snapshot
// selection that defines the current state of a patient.
package ledger

// Kind is the declared value type of a canonical column.
type Kind int

const (
	Text Kind = iota
	Int
	Date
)

// Column declares one canonical column. The default value per kind is
// fixed: empty string for Text, zero for Int, the zero time for Date.
type Column struct {
	Name string
	Kind Kind
}

// Columns is the canonical column set, in canonical order. Every loaded
// table is reconciled to exactly this shape before any other code sees it.
// The names match the historical workbook headers, accents included.
var Columns = []Column{
	{"RUT", Text},
	{"Nombre", Text},
	{"Edad", Int},
	{"Teléfono", Text},
	{"Tipo_Lente", Text},
	{"Armazon", Text},
	{"Cristales", Text},
	{"Valor", Int},
	{"Forma_Pago", Text},
	{"Fecha_Venta", Date},
	{"OD_SPH", Text},
	{"OD_CYL", Text},
	{"OD_EJE", Text},
	{"OI_SPH", Text},
	{"OI_CYL", Text},
	{"OI_EJE", Text},
	{"DP_Lejos", Text},
	{"DP_Cerca", Text},
	{"ADD", Text},
}

// ColumnNames returns the canonical header row.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// Lens types accepted by the resolver.
const (
	LenteMonofocal  = "Monofocal"
	LenteBifocal    = "Bifocal"
	LenteProgresivo = "Progresivo"
)

// LensTypes lists the valid Tipo_Lente values.
var LensTypes = []string{LenteMonofocal, LenteBifocal, LenteProgresivo}

// Payment methods accepted by the resolver.
const (
	PagoEfectivo = "Efectivo"
	PagoCredito  = "T. Crédito"
	PagoDebito   = "T. Débito"
)

// PaymentMethods lists the valid Forma_Pago values.
var PaymentMethods = []string{PagoEfectivo, PagoCredito, PagoDebito}

// MaxEdad is the upper bound for a stored patient age.
const MaxEdad = 150
