package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/workbridge/workbridge/internal/audit"
	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

const (
	defaultDateRange  = 7 * 24 * time.Hour
	maxDateRangeHours = 24 * 90
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Handler serves the admin audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	authz   authz.Middleware
	now     func() time.Time
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, mw authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authz: mw, now: time.Now}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, "load audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, "export audit timeline", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-timeline.csv"`)
	if err := audit.WriteCSV(w, rows); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func invalid(field string) error {
	return fmt.Errorf("%w: invalid %s", shared.ErrInvalidInput, field)
}

func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	now := h.now().UTC()
	toStr := strings.TrimSpace(q.Get("to"))
	if toStr == "" {
		toStr = now.Format(time.DateOnly)
	}
	toTime, err := time.Parse(time.DateOnly, toStr)
	if err != nil {
		return audit.TimelineFilters{}, invalid("to")
	}
	fromStr := strings.TrimSpace(q.Get("from"))
	if fromStr == "" {
		fromStr = toTime.Add(-defaultDateRange).Format(time.DateOnly)
	}
	fromTime, err := time.Parse(time.DateOnly, fromStr)
	if err != nil {
		return audit.TimelineFilters{}, invalid("from")
	}
	if fromTime.After(toTime) || toTime.Sub(fromTime) > maxDateRangeHours*time.Hour {
		return audit.TimelineFilters{}, invalid("range")
	}

	var actor int64
	if v := strings.TrimSpace(q.Get("actor_id")); v != "" {
		actor, err = strconv.ParseInt(v, 10, 64)
		if err != nil || actor <= 0 {
			return audit.TimelineFilters{}, invalid("actor_id")
		}
	}
	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page <= 0 {
			return audit.TimelineFilters{}, invalid("page")
		}
	}
	pageSize := 0
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil || pageSize <= 0 {
			return audit.TimelineFilters{}, invalid("page_size")
		}
	}

	return audit.TimelineFilters{
		From:     fromTime,
		To:       toTime,
		ActorID:  actor,
		Entity:   strings.TrimSpace(q.Get("entity")),
		Action:   strings.TrimSpace(q.Get("action")),
		Page:     page,
		PageSize: pageSize,
	}, nil
}
