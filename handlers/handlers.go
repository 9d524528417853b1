// Package handlers implements the HTTP handlers for the clinic API with
// injected dependencies, so every handler can be exercised against an
// in-memory container and a fake store in tests.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Paranganicu/bma-opticas/interfaces"
	"github.com/Paranganicu/bma-opticas/ledger"
	"github.com/Paranganicu/bma-opticas/logging"
	"github.com/Paranganicu/bma-opticas/metrics"
	"github.com/Paranganicu/bma-opticas/receipt"
	"github.com/Paranganicu/bma-opticas/reports"
	"github.com/Paranganicu/bma-opticas/rut"
)

const ledgerPageSize = 50

// Handler carries the injected dependencies for all endpoints.
type Handler struct {
	container interfaces.LedgerContainer
	store     interfaces.LedgerStore
}

// New creates a handler set over the given container and store.
func New(container interfaces.LedgerContainer, store interfaces.LedgerStore) *Handler {
	return &Handler{container: container, store: store}
}

// saleRequest is the submission payload. The sale date comes in as a
// plain YYYY-MM-DD string; an empty date means today.
type saleRequest struct {
	RUT        string `json:"rut"`
	Nombre     string `json:"nombre"`
	Edad       int    `json:"edad"`
	Telefono   string `json:"telefono"`
	TipoLente  string `json:"tipo_lente"`
	Armazon    string `json:"armazon"`
	Cristales  string `json:"cristales"`
	Valor      int    `json:"valor"`
	FormaPago  string `json:"forma_pago"`
	FechaVenta string `json:"fecha_venta"`

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

func (req *saleRequest) toSale() (ledger.Sale, error) {
	var fecha time.Time
	if req.FechaVenta != "" {
		parsed, err := time.Parse(ledger.DateLayout, req.FechaVenta)
		if err != nil {
			return ledger.Sale{}, &ledger.ValidationError{
				Field:  "fecha_venta",
				Reason: fmt.Sprintf("must be formatted %s, got %q", ledger.DateLayout, req.FechaVenta),
			}
		}
		fecha = parsed
	}

	return ledger.Sale{
		RUT:        req.RUT,
		Nombre:     req.Nombre,
		Edad:       req.Edad,
		Telefono:   req.Telefono,
		TipoLente:  req.TipoLente,
		Armazon:    req.Armazon,
		Cristales:  req.Cristales,
		Valor:      req.Valor,
		FormaPago:  req.FormaPago,
		FechaVenta: fecha,

		ODSph:   req.ODSph,
		ODCyl:   req.ODCyl,
		ODEje:   req.ODEje,
		OISph:   req.OISph,
		OICyl:   req.OICyl,
		OIEje:   req.OIEje,
		DPLejos: req.DPLejos,
		DPCerca: req.DPCerca,
		Add:     req.Add,
	}, nil
}

// SubmitSale validates and appends one sale, then persists the ledger.
// Validation failures make no mutation and name the failing field. A
// persist failure after a successful append is reported as a warning
// rather than an error: the in-memory ledger keeps the row so the
// operator can retry without re-entering the sale.
func (h *Handler) SubmitSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	sale, err := req.toSale()
	if err == nil {
		var row ledger.Row
		err = h.container.Update(func(l *ledger.Ledger) error {
			var applyErr error
			row, applyErr = ledger.Apply(l, sale)
			return applyErr
		})
		if err == nil {
			h.respondAfterApply(w, row)
			return
		}
	}

	var vErr *ledger.ValidationError
	if errors.As(err, &vErr) {
		metrics.SalesSubmitted.WithLabelValues("rejected").Inc()
		RespondWithFieldError(w, http.StatusBadRequest, vErr.Field, vErr.Reason)
		return
	}

	logging.Error("Sale submission failed", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "could not record the sale")
}

func (h *Handler) respondAfterApply(w http.ResponseWriter, row ledger.Row) {
	metrics.SalesSubmitted.WithLabelValues("accepted").Inc()
	l := h.container.Ledger()
	metrics.LedgerRows.Set(float64(len(l.Rows)))

	response := map[string]interface{}{
		"venta": row,
		"rows":  len(l.Rows),
	}

	if err := h.store.Save(l); err != nil {
		metrics.SaveFailures.Inc()
		logging.Error("Failed to persist ledger after sale", "error", err)
		response["warning"] = "the sale was recorded in memory but could not be saved to disk; it will be retried on the next submission"
	} else {
		h.container.MarkSaved()
	}

	RespondWithJSON(w, http.StatusCreated, response)
}

// RecentSales returns the last rows of the ledger, newest last.
func (h *Handler) RecentSales(w http.ResponseWriter, r *http.Request) {
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			RespondWithError(w, http.StatusBadRequest, "n must be between 1 and 100")
			return
		}
		n = parsed
	}

	RespondWithJSON(w, http.StatusOK, h.container.Ledger().Tail(n))
}

// ListPatients returns the current snapshot of every patient.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.container.Ledger().Patients())
}

// GetPatient returns the current snapshot and full visit history for one
// RUT. The path parameter is normalized first, so any valid spelling of
// the same RUT reaches the same patient.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := rut.Normalize(chi.URLParam(r, "rut"))
	if err != nil {
		RespondWithFieldError(w, http.StatusBadRequest, "rut", err.Error())
		return
	}

	l := h.container.Ledger()
	history := l.History(id.String())
	if len(history) == 0 {
		RespondWithError(w, http.StatusNotFound, "no patient with RUT "+id.String())
		return
	}

	current, _ := l.Latest(id.String())
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"current":   current,
		"ventas":    len(history),
		"historial": history,
	})
}

// DownloadReceipt streams the receipt PDF for a patient's latest
// prescription. When the latest row has no prescription fields there is
// nothing to download and the client must hide the affordance.
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := rut.Normalize(chi.URLParam(r, "rut"))
	if err != nil {
		RespondWithFieldError(w, http.StatusBadRequest, "rut", err.Error())
		return
	}

	row, ok := receipt.LatestPrescription(h.container.Ledger(), id.String())
	if !ok {
		RespondWithError(w, http.StatusNotFound, "no prescription on file for RUT "+id.String())
		return
	}

	doc, err := receipt.Compose(row, time.Now())
	if err != nil {
		logging.Error("Receipt generation failed", "rut", id.Masked(), "error", err)
		RespondWithError(w, http.StatusInternalServerError, "could not generate the receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

// contentDisposition builds the attachment header for a download filename.
// Header values must stay ASCII, so non-ASCII names get an underscored
// fallback in the plain filename parameter and the real name goes in the
// RFC 5987 filename* parameter.
func contentDisposition(filename string) string {
	ascii := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)

	if ascii == filename {
		return fmt.Sprintf(`attachment; filename=%q`, filename)
	}
	return fmt.Sprintf(`attachment; filename=%q; filename*=UTF-8''%s`,
		ascii, url.PathEscape(filename))
}

// PagedLedger returns one page of raw ledger rows.
func (h *Handler) PagedLedger(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "pageNumber"))
	if err != nil || page < 1 {
		logging.Warn("Unusual user input", "pageNumber", chi.URLParam(r, "pageNumber"))
		RespondWithError(w, http.StatusBadRequest, "invalid page number")
		return
	}

	rows := h.container.Ledger().Rows
	start := (page - 1) * ledgerPageSize
	end := start + ledgerPageSize

	if start >= len(rows) && page != 1 {
		RespondWithError(w, http.StatusNotFound, "page not found")
		return
	}
	if end > len(rows) {
		end = len(rows)
	}
	if start > len(rows) {
		start = len(rows)
	}

	maxPage := (len(rows) + ledgerPageSize - 1) / ledgerPageSize
	if maxPage == 0 {
		maxPage = 1
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":       rows[start:end],
		"page":       page,
		"pageSize":   ledgerPageSize,
		"totalItems": len(rows),
		"maxPage":    maxPage,
	})
}

// Report returns the sales aggregates.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, reports.Summarize(h.container.Ledger()))
}
