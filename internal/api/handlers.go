package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"beachrent/internal/domain"
	"beachrent/internal/models"
	"beachrent/internal/scheduler"
	"beachrent/internal/service"
	"beachrent/internal/timeutil"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Services groups the core operations exposed over HTTP.
type Services struct {
	Rentals  *service.RentalService
	Extra    *service.ExtraBedService
	Earnings *service.EarningsService
	Reports  *service.ReportService
	Reset    *service.ResetService
	Midnight *scheduler.Midnight
}

type Handler struct {
	svc    Services
	clock  *timeutil.Clock
	logger *zerolog.Logger
}

func NewHandler(svc Services, clock *timeutil.Clock, logger *zerolog.Logger) *Handler {
	return &Handler{svc: svc, clock: clock, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListUmbrellas(w http.ResponseWriter, r *http.Request) {
	umbrellas, err := h.svc.Rentals.ListUmbrellas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, umbrellas)
}

func (h *Handler) OccupyBed(w http.ResponseWriter, r *http.Request) {
	h.bedAction(w, r, h.svc.Rentals.OccupyBed)
}

func (h *Handler) FreeBed(w http.ResponseWriter, r *http.Request) {
	h.bedAction(w, r, h.svc.Rentals.FreeBed)
}

func (h *Handler) EndRent(w http.ResponseWriter, r *http.Request) {
	h.bedAction(w, r, h.svc.Rentals.EndRent)
}

type bedOp func(ctx context.Context, actor models.Actor, umbrellaID int64, side models.Side) error

func (h *Handler) bedAction(w http.ResponseWriter, r *http.Request, op bedOp) {
	actor, umbrellaID, side, ok := h.bedParams(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), actor, umbrellaID, side); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type rentRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func (h *Handler) RentBed(w http.ResponseWriter, r *http.Request) {
	actor, umbrellaID, side, ok := h.bedParams(w, r)
	if !ok {
		return
	}
	var body rentRequest
	if !decodeBody(w, r, &body) {
		return
	}

	err := h.svc.Rentals.RentBed(r.Context(), actor, umbrellaID, side, models.RentalKind(body.Type), body.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type extraBedRequest struct {
	Username string `json:"username"`
}

func (h *Handler) AddExtraBed(w http.ResponseWriter, r *http.Request) {
	actor := mustActor(r)
	umbrellaID, ok := umbrellaParam(w, r)
	if !ok {
		return
	}
	var body extraBedRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	count, err := h.svc.Extra.AddExtraBed(r.Context(), actor, umbrellaID, body.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"extra_beds": count})
}

func (h *Handler) RemoveExtraBed(w http.ResponseWriter, r *http.Request) {
	actor := mustActor(r)
	umbrellaID, ok := umbrellaParam(w, r)
	if !ok {
		return
	}

	count, err := h.svc.Extra.RemoveExtraBed(r.Context(), actor, umbrellaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"extra_beds": count})
}

func (h *Handler) ReleaseExtraBed(w http.ResponseWriter, r *http.Request) {
	actor := mustActor(r)
	umbrellaID, ok := umbrellaParam(w, r)
	if !ok {
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput.WithMessage("invalid extra bed number"))
		return
	}

	if err := h.svc.Extra.ReleaseExtraBed(r.Context(), actor, umbrellaID, number); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}
	earnings, err := h.svc.Earnings.Earnings(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

func (h *Handler) StaffBreakdown(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Earnings.StaffBreakdown(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ResetDay(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset.ResetDay(r.Context(), mustActor(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type generateReportRequest struct {
	Date string `json:"date"`
}

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var body generateReportRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Date) == "" {
		body.Date = h.clock.Today()
	}

	report, err := h.svc.Reports.GenerateReport(r.Context(), mustActor(r), body.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.Reports.ListReports(r.Context(), mustActor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) ExportReports(w http.ResponseWriter, r *http.Request) {
	actor := mustActor(r)
	if !actor.IsAdmin() {
		writeError(w, domain.ErrForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reports_%s.xlsx"`, h.clock.Today()))
	if err := h.svc.Reports.ExportReports(r.Context(), actor, w); err != nil {
		// headers may already be sent
		h.logger.Error().Err(err).Msg("export reports")
	}
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.ErrInvalidInput.WithMessage("invalid report id"))
		return
	}
	if err := h.svc.Reports.DeleteReport(r.Context(), mustActor(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Midnight.Trigger(r.Context(), mustActor(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) bedParams(w http.ResponseWriter, r *http.Request) (models.Actor, int64, models.Side, bool) {
	umbrellaID, ok := umbrellaParam(w, r)
	if !ok {
		return models.Actor{}, 0, "", false
	}
	side, err := models.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput.WithMessage(err.Error()))
		return models.Actor{}, 0, "", false
	}
	return mustActor(r), umbrellaID, side, true
}

func umbrellaParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.ErrInvalidInput.WithMessage("invalid umbrella id"))
		return 0, false
	}
	return id, true
}

func scopeParam(w http.ResponseWriter, r *http.Request) (models.Scope, bool) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		return models.AllTime(), true
	}
	date, err := timeutil.ParseDate(date)
	if err != nil {
		writeError(w, domain.ErrInvalidInput.WithMessage(err.Error()))
		return models.Scope{}, false
	}
	return models.OnDate(date), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		writeError(w, domain.ErrInvalidInput.WithMessage("invalid JSON body"))
		return false
	}
	return true
}

// mustActor is only called behind the auth middleware.
func mustActor(r *http.Request) models.Actor {
	actor, _ := actorFrom(r.Context())
	return actor
}
