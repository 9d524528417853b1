package reports

import (
	"testing"
	"time"

	"github.com/Paranganicu/bma-opticas/ledger"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(&ledger.Ledger{})

	if summary.VentasTotales != 0 || summary.TicketPromedio != 0 || summary.PacientesUnicos != 0 {
		t.Errorf("empty ledger should produce zero aggregates: %+v", summary)
	}
	if len(summary.PorMes) != 0 {
		t.Errorf("expected no monthly buckets, got %v", summary.PorMes)
	}
}

func TestSummarize(t *testing.T) {
	l := &ledger.Ledger{Rows: []ledger.Row{
		{RUT: "12.345.678-5", TipoLente: ledger.LenteMonofocal, Valor: 50000, FechaVenta: date(2026, 1, 10)},
		{RUT: "11.111.111-1", TipoLente: ledger.LenteProgresivo, Valor: 150000, FechaVenta: date(2026, 2, 5)},
		{RUT: "12.345.678-5", TipoLente: ledger.LenteMonofocal, Valor: 70000, FechaVenta: date(2026, 2, 20)},
	}}

	summary := Summarize(l)

	if summary.VentasTotales != 270000 {
		t.Errorf("total revenue = %d, expected 270000", summary.VentasTotales)
	}
	if summary.TicketPromedio != 90000 {
		t.Errorf("average ticket = %d, expected 90000", summary.TicketPromedio)
	}
	if summary.PacientesUnicos != 2 {
		t.Errorf("unique patients = %d, expected 2", summary.PacientesUnicos)
	}
	if summary.PorTipoLente[ledger.LenteMonofocal] != 120000 {
		t.Errorf("monofocal revenue = %d, expected 120000", summary.PorTipoLente[ledger.LenteMonofocal])
	}
	if summary.PorTipoLente[ledger.LenteProgresivo] != 150000 {
		t.Errorf("progresivo revenue = %d, expected 150000", summary.PorTipoLente[ledger.LenteProgresivo])
	}
}

func TestSummarize_MonthlyBucketsSorted(t *testing.T) {
	l := &ledger.Ledger{Rows: []ledger.Row{
		{RUT: "a", Valor: 100, FechaVenta: date(2026, 3, 1)},
		{RUT: "b", Valor: 200, FechaVenta: date(2026, 1, 1)},
		{RUT: "c", Valor: 300, FechaVenta: date(2026, 1, 20)},
	}}

	summary := Summarize(l)

	if len(summary.PorMes) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %v", summary.PorMes)
	}
	if summary.PorMes[0].Mes != "2026-01" || summary.PorMes[0].Valor != 500 {
		t.Errorf("first bucket wrong: %+v", summary.PorMes[0])
	}
	if summary.PorMes[1].Mes != "2026-03" || summary.PorMes[1].Valor != 100 {
		t.Errorf("second bucket wrong: %+v", summary.PorMes[1])
	}
}

func TestSummarize_ZeroValueRows(t *testing.T) {
	// Legacy rows whose price defaulted to zero during reconciliation count
	// as patients but never as revenue.
	l := &ledger.Ledger{Rows: []ledger.Row{
		{RUT: "12.345.678-5", Valor: 0, FechaVenta: date(2026, 1, 10)},
		{RUT: "11.111.111-1", Valor: 50000, FechaVenta: date(2026, 1, 15)},
	}}

	summary := Summarize(l)

	if summary.VentasTotales != 50000 {
		t.Errorf("zero-value rows must not count as revenue, got %d", summary.VentasTotales)
	}
	if summary.TicketPromedio != 50000 {
		t.Errorf("average must divide by paying sales only, got %d", summary.TicketPromedio)
	}
	if summary.PacientesUnicos != 2 {
		t.Errorf("zero-value rows still count as patients, got %d", summary.PacientesUnicos)
	}
}

func TestSummarize_UndatedRowsSkipMonthly(t *testing.T) {
	l := &ledger.Ledger{Rows: []ledger.Row{
		{RUT: "a", Valor: 100},
	}}

	summary := Summarize(l)

	if summary.VentasTotales != 100 {
		t.Errorf("undated rows still count as revenue, got %d", summary.VentasTotales)
	}
	if len(summary.PorMes) != 0 {
		t.Errorf("undated rows must not create a monthly bucket, got %v", summary.PorMes)
	}
}
