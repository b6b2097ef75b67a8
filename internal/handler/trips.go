package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/utils"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "服务正常", map[string]string{"environment": h.config.Environment})
}

func (h *Handler) GetAllTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.repository.GetAllTrips()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有行程成功", trips)
}

func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name" validate:"required,max=100"`
		StartDate    string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
		EndDate      string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
		DayCount     int32  `json:"dayCount" validate:"gte=0,lte=366"`
		HomeTimezone string `json:"homeTimezone" validate:"required,timezone"`
		NotifyEmail  string `json:"notifyEmail" validate:"omitempty,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	trip := &domain.Trip{
		Name:         req.Name,
		DayCount:     req.DayCount,
		HomeTimezone: req.HomeTimezone,
		NotifyEmail:  req.NotifyEmail,
	}
	// 格式已经由 validator 检查过
	if req.StartDate != "" {
		start, _ := time.Parse("2006-01-02", req.StartDate)
		trip.StartDate = &start
	}
	if req.EndDate != "" {
		end, _ := time.Parse("2006-01-02", req.EndDate)
		trip.EndDate = &end
	}
	if trip.IsDated() && trip.EndDate != nil {
		trip.DayCount = int32(trip.EndDate.Sub(*trip.StartDate).Hours()/24) + 1
	}

	if err := utils.ValidateTrip(trip); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateTrip(trip); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "trips_date_range_check":
				h.errorResponse(w, r, "结束日期不能早于开始日期")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建行程成功", trip)
}

func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)

	h.successResponse(w, r, "获取行程成功", trip)
}

func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)

	if err := h.repository.DeleteTrip(trip.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.timeline.Invalidate(r.Context(), trip.ID)

	h.successResponse(w, r, "删除行程成功", nil)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)

	var req struct {
		StartTime      time.Time         `json:"startTime" validate:"required"`
		EndTime        time.Time         `json:"endTime" validate:"required"`
		IsLocked       bool              `json:"isLocked"`
		IsScheduled    *bool             `json:"isScheduled"`
		LinkedFlightID *int64            `json:"linkedFlightID"`
		LinkedType     domain.LinkedType `json:"linkedType" validate:"omitempty,oneof=checkin checkout"`
		FromEntryID    *int64            `json:"fromEntryID"`
		ToEntryID      *int64            `json:"toEntryID"`
		Option         struct {
			Name          string          `json:"name" validate:"required,max=200"`
			Category      domain.Category `json:"category" validate:"omitempty,oneof=flight transfer airport_processing"`
			DepartureTZ   string          `json:"departureTZ" validate:"omitempty,timezone"`
			ArrivalTZ     string          `json:"arrivalTZ" validate:"omitempty,timezone"`
			Address       string          `json:"address"`
			TransportMode string          `json:"transportMode"`
		} `json:"option"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	entry := &domain.Entry{
		TripID:         trip.ID,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		IsLocked:       req.IsLocked,
		IsScheduled:    req.IsScheduled == nil || *req.IsScheduled,
		LinkedFlightID: req.LinkedFlightID,
		LinkedType:     req.LinkedType,
		FromEntryID:    req.FromEntryID,
		ToEntryID:      req.ToEntryID,
		Option: domain.Option{
			Name:          req.Option.Name,
			Category:      req.Option.Category,
			DepartureTZ:   req.Option.DepartureTZ,
			ArrivalTZ:     req.Option.ArrivalTZ,
			Address:       req.Option.Address,
			TransportMode: req.Option.TransportMode,
		},
	}

	if err := utils.ValidateEntry(entry); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateEntry(entry); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "entries_interval_check":
				h.errorResponse(w, r, "结束时间不能早于开始时间")
			case "entries_linked_flight_id_fkey", "entries_from_entry_id_fkey", "entries_to_entry_id_fkey":
				h.errorResponse(w, r, "引用的条目不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.timeline.Invalidate(r.Context(), trip.ID)
	h.successResponse(w, r, "创建条目成功", entry)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry := r.Context().Value(EntryCtx).(*domain.Entry)

	h.successResponse(w, r, "获取条目成功", entry)
}
