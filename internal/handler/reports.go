package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/export"
	"github.com/mmeshcher/pedidos-system/internal/model"
)

const localDateTime = "2006-01-02T15:04:05"

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", model.ErrValidation, raw)
	}
	return d, nil
}

// parseBound принимает RFC3339, локальные дату-время или дату.
// Дата как конец интервала означает конец этого дня.
func parseBound(raw string, loc *time.Location, end bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localDateTime, raw, loc); err == nil {
		return t, nil
	}

	d, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", model.ErrValidation, raw)
	}
	if end {
		return endOfDay(d), nil
	}
	return d, nil
}

// dayRange разбирает параметры inicio и fin в формате YYYY-MM-DD.
func dayRange(r *http.Request, loc *time.Location) (model.DateRange, error) {
	q := r.URL.Query()
	start, err := parseDay(q.Get("inicio"), loc)
	if err != nil {
		return model.DateRange{}, err
	}
	end, err := parseDay(q.Get("fin"), loc)
	if err != nil {
		return model.DateRange{}, err
	}
	return model.DateRange{Start: start, End: endOfDay(end)}, nil
}

func boundRange(r *http.Request, loc *time.Location) (model.DateRange, error) {
	q := r.URL.Query()
	start, err := parseBound(q.Get("inicio"), loc, false)
	if err != nil {
		return model.DateRange{}, err
	}
	end, err := parseBound(q.Get("fin"), loc, true)
	if err != nil {
		return model.DateRange{}, err
	}
	return model.DateRange{Start: start, End: end}, nil
}

func statusParam(r *http.Request) string {
	s := strings.TrimSpace(r.URL.Query().Get("estado"))
	if s == "" {
		return model.StatusAll
	}
	return s
}

// Report возвращает показатели продаж за интервал.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rng, err := dayRange(r, h.reports.Location())
	if err != nil {
		h.fail(w, "report error", err)
		return
	}

	payload, err := h.reports.Report(r.Context(), rng, statusParam(r))
	if err != nil {
		h.fail(w, "report error", err, zap.Time("start", rng.Start), zap.Time("end", rng.End))
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// ExportReport отдаёт отчёт за интервал в виде файла XLSX.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	loc := h.reports.Location()
	rng, err := boundRange(r, loc)
	if err != nil {
		h.fail(w, "export report error", err)
		return
	}

	payload, err := h.reports.Report(r.Context(), rng, statusParam(r))
	if err != nil {
		h.fail(w, "export report error", err, zap.Time("start", rng.Start), zap.Time("end", rng.End))
		return
	}

	data, err := h.renderer.Render(payload)
	if err != nil {
		h.fail(w, "export report error", err, zap.Time("start", rng.Start), zap.Time("end", rng.End))
		return
	}

	size := strconv.Itoa(len(data))
	filename := export.Filename(rng.Start.In(loc), rng.End.In(loc))

	header := w.Header()
	header.Set("Content-Type", export.ContentType)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")
	header.Set("Content-Length", size)
	header.Set("X-File-Size", size)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write report response", zap.Error(err))
	}
}

// Dashboard возвращает оперативные показатели панели администратора.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := boundRange(r, h.reports.Location())
	if err != nil {
		h.fail(w, "dashboard error", err)
		return
	}

	d, err := h.reports.Dashboard(r.Context(), rng)
	if err != nil {
		h.fail(w, "dashboard error", err)
		return
	}

	writeJSON(w, http.StatusOK, newDashboardResponse(d))
}

// OrdersInRange возвращает заказы, созданные в интервале.
func (h *Handler) OrdersInRange(w http.ResponseWriter, r *http.Request) {
	rng, err := boundRange(r, h.reports.Location())
	if err != nil {
		h.fail(w, "orders in range error", err)
		return
	}

	orders, err := h.orders.ListOrdersInRange(r.Context(), rng)
	if err != nil {
		h.fail(w, "orders in range error", err)
		return
	}

	writeJSON(w, http.StatusOK, newOrderList(orders))
}
