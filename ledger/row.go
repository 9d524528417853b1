package ledger

import (
	"strconv"
	"time"
)

// DateLayout is the textual form of Fecha_Venta in the workbook.
const DateLayout = "2006-01-02"

// Row is one sale/visit. The storage model is denormalized: a patient with
// N sales has N rows sharing the same RUT, each carrying that visit's
// snapshot of the identity fields. A zero FechaVenta is the not-a-time
// sentinel for rows whose date could not be parsed.
type Row struct {
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

// HasReceipt reports whether any prescription field is set, which is what
// makes a row eligible for receipt generation.
func (r Row) HasReceipt() bool {
	return r.ODSph != "" || r.ODCyl != "" || r.ODEje != "" ||
		r.OISph != "" || r.OICyl != "" || r.OIEje != "" ||
		r.DPLejos != "" || r.DPCerca != "" || r.Add != ""
}

// cells returns the row's values as canonical-order strings for writing
// back to the workbook.
func (r Row) cells() []string {
	fecha := ""
	if !r.FechaVenta.IsZero() {
		fecha = r.FechaVenta.Format(DateLayout)
	}
	return []string{
		r.RUT,
		r.Nombre,
		strconv.Itoa(r.Edad),
		r.Telefono,
		r.TipoLente,
		r.Armazon,
		r.Cristales,
		strconv.Itoa(r.Valor),
		r.FormaPago,
		fecha,
		r.ODSph,
		r.ODCyl,
		r.ODEje,
		r.OISph,
		r.OICyl,
		r.OIEje,
		r.DPLejos,
		r.DPCerca,
		r.Add,
	}
}

// Ledger is the full in-memory table, ordered oldest row first.
type Ledger struct {
	Rows []Row
}

// ToTable flattens the ledger back into a raw table with the canonical
// header, ready for persistence.
func (l *Ledger) ToTable() RawTable {
	t := RawTable{Columns: ColumnNames()}
	t.Rows = make([][]string, 0, len(l.Rows))
	for _, r := range l.Rows {
		t.Rows = append(t.Rows, r.cells())
	}
	return t
}
