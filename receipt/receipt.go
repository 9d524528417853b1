// Package receipt composes the optical-prescription receipt: a fixed
// single-page PDF built from the latest sale row of a patient.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/Paranganicu/bma-opticas/ledger"
	"github.com/Paranganicu/bma-opticas/rut"
)

// ClinicName is the header on every receipt.
const ClinicName = "BMA Ópticas"

// Document is a rendered receipt: the PDF bytes plus the deterministic
// download filename derived from the patient's name.
type Document struct {
	Filename string
	Data     []byte
}

// LatestPrescription selects the current row for a patient (max sale date,
// later ledger row wins ties) and reports whether that row carries any
// prescription fields. When it does not there is no receipt to compose and
// the caller must suppress the download.
func LatestPrescription(l *ledger.Ledger, canonicalRUT string) (ledger.Row, bool) {
	row, ok := l.Latest(canonicalRUT)
	if !ok || !row.HasReceipt() {
		return ledger.Row{}, false
	}
	return row, true
}

// Compose renders the receipt for one row into an in-memory buffer. The
// layout is fixed: clinic header, patient name with masked RUT and issue
// date, the OD/OI sphere/cylinder/axis table, optional pupillary-distance
// and addition lines only when set, and a signature line.
func Compose(row ledger.Row, issued time.Time) (*Document, error) {
	id, err := rut.Normalize(row.RUT)
	if err != nil {
		return nil, fmt.Errorf("row carries a non-canonical RUT %q: %w", row.RUT, err)
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(72, 42, tr(ClinicName+" – Receta Óptica"))

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(72, 62, tr("Paciente: "+sanitize(row.Nombre)))
	pdf.Text(72, 80, tr("RUT: "+id.Masked()))
	pdf.Text(400, 80, issued.Format("02/01/2006"))

	y := 112.0
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(72, y, tr("OD / OI    ESF   CIL   EJE"))
	y += 20

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(72, y, tr(fmt.Sprintf("OD: %s  %s  %s", sanitize(row.ODSph), sanitize(row.ODCyl), sanitize(row.ODEje))))
	y += 20
	pdf.Text(72, y, tr(fmt.Sprintf("OI: %s  %s  %s", sanitize(row.OISph), sanitize(row.OICyl), sanitize(row.OIEje))))
	y += 30

	optional := []struct {
		label string
		value string
	}{
		{"DP Lejos", row.DPLejos},
		{"DP Cerca", row.DPCerca},
		{"ADD", row.Add},
	}
	for _, opt := range optional {
		if opt.value == "" {
			continue
		}
		pdf.Text(72, y, tr(fmt.Sprintf("%s: %s", opt.label, sanitize(opt.value))))
		y += 18
	}

	pdf.Line(400, 692, 520, 692)
	pdf.Text(430, 707, tr("Firma Óptico"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}

	return &Document{Filename: Filename(row.Nombre), Data: buf.Bytes()}, nil
}

// Filename derives the deterministic download name from the patient name.
func Filename(nombre string) string {
	return "Receta_" + strings.ReplaceAll(sanitize(nombre), " ", "_") + ".pdf"
}

// sanitize strips control characters from user-supplied text before it is
// drawn, so field content cannot inject structure into the document.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
