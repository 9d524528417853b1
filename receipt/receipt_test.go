package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/Paranganicu/bma-opticas/ledger"
)

func prescriptionRow() ledger.Row {
	return ledger.Row{
		RUT:        "12.345.678-5",
		Nombre:     "Juan Pérez",
		FechaVenta: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		ODSph:      "-1.00",
		ODCyl:      "-0.50",
		ODEje:      "90",
		OISph:      "-1.25",
		DPLejos:    "62",
		Add:        "+2.00",
	}
}

func TestLatestPrescription(t *testing.T) {
	l := &ledger.Ledger{Rows: []ledger.Row{
		{RUT: "12.345.678-5", ODSph: "-1.00", FechaVenta: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{RUT: "12.345.678-5", ODSph: "-1.50", FechaVenta: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
	}}

	row, ok := LatestPrescription(l, "12.345.678-5")
	if !ok {
		t.Fatal("expected a prescription")
	}
	if row.ODSph != "-1.50" {
		t.Errorf("receipt must come from the latest row, got ODSph=%q", row.ODSph)
	}
}

func TestLatestPrescription_NoPrescriptionFields(t *testing.T) {
	// The latest row defines the patient; an older prescription does not
	// resurrect when the newest sale carries none.
	l := &ledger.Ledger{Rows: []ledger.Row{
		{RUT: "12.345.678-5", ODSph: "-1.00", FechaVenta: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{RUT: "12.345.678-5", FechaVenta: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
	}}

	if _, ok := LatestPrescription(l, "12.345.678-5"); ok {
		t.Error("a latest row without prescription fields has no receipt")
	}
}

func TestLatestPrescription_UnknownPatient(t *testing.T) {
	l := &ledger.Ledger{}
	if _, ok := LatestPrescription(l, "12.345.678-5"); ok {
		t.Error("unknown patient has no receipt")
	}
}

func TestCompose(t *testing.T) {
	doc, err := Compose(prescriptionRow(), time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if doc.Filename != "Receta_Juan_Pérez.pdf" {
		t.Errorf("unexpected filename %q", doc.Filename)
	}
	if len(doc.Data) == 0 {
		t.Fatal("Compose produced no bytes")
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header: %q", doc.Data[:8])
	}
}

func TestCompose_Deterministic(t *testing.T) {
	issued := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)

	first, err := Compose(prescriptionRow(), issued)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	second, err := Compose(prescriptionRow(), issued)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if first.Filename != second.Filename {
		t.Errorf("filenames differ: %q vs %q", first.Filename, second.Filename)
	}
}

func TestCompose_BadRUT(t *testing.T) {
	row := prescriptionRow()
	row.RUT = "garbage"

	if _, err := Compose(row, time.Now()); err == nil {
		t.Error("Compose must refuse a row with a non-normalizable RUT")
	}
}

func TestFilename(t *testing.T) {
	testCases := []struct {
		nombre   string
		expected string
	}{
		{"Juan Pérez", "Receta_Juan_Pérez.pdf"},
		{"Ana María Soto", "Receta_Ana_María_Soto.pdf"},
		{"Juan\tPérez\n", "Receta_JuanPérez.pdf"},
	}

	for _, tc := range testCases {
		if got := Filename(tc.nombre); got != tc.expected {
			t.Errorf("Filename(%q) = %q, expected %q", tc.nombre, got, tc.expected)
		}
	}
}
