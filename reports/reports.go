// Package reports computes the sales aggregates behind the dashboards:
// totals, averages, and revenue grouped by lens type and by month.
package reports

import (
	"sort"

	"github.com/Paranganicu/bma-opticas/ledger"
)

// MonthRevenue is revenue for one calendar month, keyed YYYY-MM.
type MonthRevenue struct {
	Mes   string `json:"mes"`
	Valor int    `json:"valor"`
}

// Summary aggregates the ledger for reporting. Revenue figures only count
// rows with a positive price; the unique patient count covers every row.
type Summary struct {
	VentasTotales   int            `json:"ventas_totales"`
	TicketPromedio  int            `json:"ticket_promedio"`
	PacientesUnicos int            `json:"pacientes_unicos"`
	PorTipoLente    map[string]int `json:"por_tipo_lente"`
	PorMes          []MonthRevenue `json:"por_mes"`
}

// Summarize walks the ledger once and builds the report.
func Summarize(l *ledger.Ledger) Summary {
	summary := Summary{PorTipoLente: make(map[string]int), PorMes: []MonthRevenue{}}

	unique := make(map[string]bool)
	byMonth := make(map[string]int)
	salesCount := 0

	for _, row := range l.Rows {
		unique[row.RUT] = true

		if row.Valor <= 0 {
			continue
		}
		salesCount++
		summary.VentasTotales += row.Valor
		summary.PorTipoLente[row.TipoLente] += row.Valor
		if !row.FechaVenta.IsZero() {
			byMonth[row.FechaVenta.Format("2006-01")] += row.Valor
		}
	}

	summary.PacientesUnicos = len(unique)
	if salesCount > 0 {
		summary.TicketPromedio = summary.VentasTotales / salesCount
	}

	for mes, valor := range byMonth {
		summary.PorMes = append(summary.PorMes, MonthRevenue{Mes: mes, Valor: valor})
	}
	sort.Slice(summary.PorMes, func(i, j int) bool {
		return summary.PorMes[i].Mes < summary.PorMes[j].Mes
	})

	return summary
}
