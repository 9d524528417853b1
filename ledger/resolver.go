package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Paranganicu/bma-opticas/rut"
)

// Sale is one incoming form submission: identity fields plus the
// transaction and optional prescription fields, all as entered.
type Sale struct {
	RUT        string    `json:"rut"`
	Nombre     string    `json:"nombre"`
	Edad       int       `json:"edad"`
	Telefono   string    `json:"telefono"`
	TipoLente  string    `json:"tipo_lente"`
	Armazon    string    `json:"armazon"`
	Cristales  string    `json:"cristales"`
	Valor      int       `json:"valor"`
	FormaPago  string    `json:"forma_pago"`
	FechaVenta time.Time `json:"fecha_venta"`

	ODSph   string `json:"od_sph"`
	ODCyl   string `json:"od_cyl"`
	ODEje   string `json:"od_eje"`
	OISph   string `json:"oi_sph"`
	OICyl   string `json:"oi_cyl"`
	OIEje   string `json:"oi_eje"`
	DPLejos string `json:"dp_lejos"`
	DPCerca string `json:"dp_cerca"`
	Add     string `json:"add"`
}

// ValidationError attributes a rejected submission to one field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var titleCaser = cases.Title(language.Spanish)

// Apply validates an incoming sale and appends it to the ledger as a new
// row. The whole validation gate runs before any mutation, so a rejected
// submission leaves the ledger untouched. Whether the RUT is already
// present or not, the result is one appended row: first sale and patient
// creation are the same event, and later sales preserve history instead of
// overwriting it. Identity fields on the new row are the submitted values,
// so the current identity of a patient is defined by their latest row.
func Apply(l *Ledger, s Sale) (Row, error) {
	id, err := rut.Normalize(s.RUT)
	if err != nil {
		return Row{}, &ValidationError{Field: "rut", Reason: err.Error()}
	}

	nombre := normalizeName(s.Nombre)
	if nombre == "" {
		return Row{}, &ValidationError{Field: "nombre", Reason: "cannot be empty"}
	}

	if s.Valor <= 0 {
		return Row{}, &ValidationError{Field: "valor", Reason: fmt.Sprintf("must be positive, got %d", s.Valor)}
	}

	if s.Edad < 0 || s.Edad > MaxEdad {
		return Row{}, &ValidationError{Field: "edad", Reason: fmt.Sprintf("must be between 0 and %d, got %d", MaxEdad, s.Edad)}
	}

	if !slices.Contains(LensTypes, s.TipoLente) {
		return Row{}, &ValidationError{Field: "tipo_lente", Reason: fmt.Sprintf("must be one of %v", LensTypes)}
	}

	formaPago := s.FormaPago
	if formaPago == "" {
		formaPago = PagoEfectivo
	}
	if !slices.Contains(PaymentMethods, formaPago) {
		return Row{}, &ValidationError{Field: "forma_pago", Reason: fmt.Sprintf("must be one of %v", PaymentMethods)}
	}

	fecha := s.FechaVenta
	if fecha.IsZero() {
		now := time.Now()
		fecha = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	row := Row{
		RUT:        id.String(),
		Nombre:     nombre,
		Edad:       s.Edad,
		Telefono:   strings.TrimSpace(s.Telefono),
		TipoLente:  s.TipoLente,
		Armazon:    strings.TrimSpace(s.Armazon),
		Cristales:  strings.TrimSpace(s.Cristales),
		Valor:      s.Valor,
		FormaPago:  formaPago,
		FechaVenta: fecha,
		ODSph:      strings.TrimSpace(s.ODSph),
		ODCyl:      strings.TrimSpace(s.ODCyl),
		ODEje:      strings.TrimSpace(s.ODEje),
		OISph:      strings.TrimSpace(s.OISph),
		OICyl:      strings.TrimSpace(s.OICyl),
		OIEje:      strings.TrimSpace(s.OIEje),
		DPLejos:    strings.TrimSpace(s.DPLejos),
		DPCerca:    strings.TrimSpace(s.DPCerca),
		Add:        strings.TrimSpace(s.Add),
	}

	l.Rows = append(l.Rows, row)
	return row, nil
}

// normalizeName trims, collapses internal whitespace and title-cases each
// word, so stored names display consistently and exact-match lookups by
// name keep working across visits.
func normalizeName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}
