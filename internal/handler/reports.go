package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/alisaleks/Agenda-App/internal/store"
	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// ReportStore serves the materialized report files.
type ReportStore interface {
	Load(ctx context.Context, kind store.Kind) (store.File, error)
	Ledger(ctx context.Context) (store.Ledger, error)
	LedgerAsOf(ctx context.Context, day timeutil.Date) (store.Ledger, error)
	Manifest(ctx context.Context) (*engine.Manifest, report.Resolved, error)
}

// ReportHandler exposes the read-only dashboard API.
type ReportHandler struct {
	Store  ReportStore
	Logger *slog.Logger
}

func (h ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/summary", h.summary)
		r.Get("/ledger", h.ledger)
		r.Get("/ledger/options", h.options)
		r.Get("/ledger/pivot", h.pivot)
		r.Get("/employees", h.table(store.KindEmployees))
		r.Get("/hcm", h.table(store.KindHCM))
		r.Get("/clock", h.table(store.KindClock))
		r.Get("/changes", h.changes)
	})
}

type fileInfo struct {
	Name  string        `json:"name"`
	Date  timeutil.Date `json:"date"`
	Stale bool          `json:"stale"`
}

func infoOf(res report.Resolved) fileInfo {
	return fileInfo{Name: filepath.Base(res.Path), Date: res.Date, Stale: res.Stale}
}

// fail maps store errors: a missing file is 404, a bad file is 500.
func (h ReportHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var schemaErr *parser.SchemaError
	switch {
	case errors.Is(err, parser.ErrMissingSource):
		writeError(w, http.StatusNotFound, "no report file available: "+err.Error())
		return
	case errors.As(err, &schemaErr):
		writeError(w, http.StatusInternalServerError, "report file is malformed: "+err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	if h.Logger != nil {
		h.Logger.Error("report request failed", "path", r.URL.Path, "err", err)
	}
}

func (h ReportHandler) status(w http.ResponseWriter, r *http.Request) {
	m, res, err := h.Store.Manifest(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]any{
		"file":     infoOf(res),
		"manifest": m,
	})
}

// filteredLedger loads the ledger and applies the request filter. An empty
// result is not an error: it comes back with the no-shops banner.
func (h ReportHandler) filteredLedger(w http.ResponseWriter, r *http.Request) (store.Ledger, []engine.LedgerRow, string, bool) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return store.Ledger{}, nil, "", false
	}
	l, err := h.Store.Ledger(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return store.Ledger{}, nil, "", false
	}
	rows, err := report.FilterLedger(l.Rows, f)
	if errors.Is(err, report.ErrNoShops) {
		return l, []engine.LedgerRow{}, report.NoShopsWarning, true
	}
	return l, rows, "", true
}

func (h ReportHandler) ledger(w http.ResponseWriter, r *http.Request) {
	l, rows, warning, ok := h.filteredLedger(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, warning, map[string]any{
		"file": infoOf(l.Resolved),
		"rows": rows,
	})
}

func (h ReportHandler) options(w http.ResponseWriter, r *http.Request) {
	l, err := h.Store.Ledger(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]any{
		"file":    infoOf(l.Resolved),
		"options": report.FilterOptions(l.Rows),
	})
}

func (h ReportHandler) pivot(w http.ResponseWriter, r *http.Request) {
	metric, err := report.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	l, rows, warning, ok := h.filteredLedger(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, warning, map[string]any{
		"file":  infoOf(l.Resolved),
		"pivot": report.PivotByShopWeek(rows, metric),
	})
}

func (h ReportHandler) summary(w http.ResponseWriter, r *http.Request) {
	l, rows, warning, ok := h.filteredLedger(w, r)
	if !ok {
		return
	}
	f, _ := parseFilter(r)
	sum := report.MergeResults(engine.LedgerResult{Rows: rows}, nil, nil)
	if file, err := h.Store.Load(r.Context(), store.KindHCM); err == nil {
		recs, _ := report.FilterTable(file.Table, f)
		sum.HCM = report.CountDeltas(recs)
	}
	if file, err := h.Store.Load(r.Context(), store.KindClock); err == nil {
		recs, _ := report.FilterTable(file.Table, f)
		sum.Clock = report.CountDeltas(recs)
		for _, rec := range recs {
			if rec["hours_worked"] == engine.NotCompleted {
				sum.ClockNC++
			}
		}
	}
	writeJSON(w, http.StatusOK, warning, map[string]any{
		"file":    infoOf(l.Resolved),
		"summary": sum,
	})
}

func (h ReportHandler) table(kind store.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		file, err := h.Store.Load(r.Context(), kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		rows, err := report.FilterTable(file.Table, f)
		warning := ""
		if errors.Is(err, report.ErrNoShops) {
			rows, warning = []map[string]string{}, report.NoShopsWarning
		}
		writeJSON(w, http.StatusOK, warning, map[string]any{
			"file":    infoOf(file.Resolved),
			"columns": file.Table.Headers,
			"rows":    rows,
		})
	}
}

// changes compares the current ledger with a baseline: the ledger as of the
// "baseline" date parameter, or the newest one before the current file.
func (h ReportHandler) changes(w http.ResponseWriter, r *http.Request) {
	l, rows, warning, ok := h.filteredLedger(w, r)
	if !ok {
		return
	}
	day := l.Resolved.Date.AddDays(-1)
	if v := r.URL.Query().Get("baseline"); v != "" {
		d, err := timeutil.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		day = d
	}
	base, err := h.Store.LedgerAsOf(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, _ := parseFilter(r)
	baseRows, _ := report.FilterLedger(base.Rows, f)
	writeJSON(w, http.StatusOK, warning, map[string]any{
		"file":     infoOf(l.Resolved),
		"baseline": infoOf(base.Resolved),
		"changes":  report.CompareLedgers(rows, baseRows),
	})
}
