package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/timeline"
)

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)

	view, err := h.timeline.BuildView(r.Context(), trip)
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时间轴成功", view)
}

func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)

	view, err := h.timeline.BuildView(r.Context(), trip)
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取冲突成功", view.Conflicts)
}

func (h *Handler) GetGaps(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)

	view, err := h.timeline.BuildView(r.Context(), trip)
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取空档建议成功", view.Gaps)
}

func (h *Handler) CommitDrag(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)
	entry := r.Context().Value(EntryCtx).(*domain.Entry)

	var req struct {
		StartGH  *float64           `json:"startGH" validate:"required,gte=0"`
		EndGH    *float64           `json:"endGH" validate:"required,gte=0"`
		DragType scheduler.DragType `json:"dragType" validate:"required,oneof=move resize-top resize-bottom"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.timeline.Commit(r.Context(), trip, timeline.CommitRequest{
		EntryID:  entry.ID,
		StartGH:  *req.StartGH,
		EndGH:    *req.EndGH,
		DragType: req.DragType,
	})
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	if !res.Changed {
		h.successResponse(w, r, "时间没有变化", res)
		return
	}
	h.successResponse(w, r, "更新时间成功", res)
}

func (h *Handler) ReplayGesture(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)
	entry := r.Context().Value(EntryCtx).(*domain.Entry)

	var req struct {
		DragType      scheduler.DragType       `json:"dragType" validate:"omitempty,oneof=move resize-top resize-bottom"`
		OnGroup       bool                     `json:"onGroup"`
		PixelsPerHour float64                  `json:"pixelsPerHour" validate:"required,gt=0"`
		ViewportWidth float64                  `json:"viewportWidth" validate:"gte=0"`
		Events        []scheduler.PointerEvent `json:"events" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.timeline.ReplayGesture(r.Context(), trip, timeline.GestureRequest{
		EntryID:       entry.ID,
		DragType:      req.DragType,
		OnGroup:       req.OnGroup,
		PixelsPerHour: req.PixelsPerHour,
		ViewportWidth: req.ViewportWidth,
		Events:        req.Events,
	})
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	switch {
	case res.Commit == nil:
		h.successResponse(w, r, "拖拽已取消", res)
	case res.Commit.Zone == scheduler.ZoneDetached:
		h.successResponse(w, r, "条目已拖出时间轴", res)
	default:
		h.successResponse(w, r, "手势处理成功", res)
	}
}

func (h *Handler) UpdateEntryInterval(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)
	entry := r.Context().Value(EntryCtx).(*domain.Entry)

	var req struct {
		StartTime time.Time `json:"startTime" validate:"required"`
		EndTime   time.Time `json:"endTime" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.timeline.SetInterval(r.Context(), trip, entry.ID, req.StartTime, req.EndTime)
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新时间成功", res)
}

func (h *Handler) UpdateEntryLock(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)
	entry := r.Context().Value(EntryCtx).(*domain.Entry)

	var req struct {
		Locked *bool `json:"locked" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, err := h.timeline.SetLocked(r.Context(), trip, entry.ID, *req.Locked)
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新锁定状态成功", updated)
}

func (h *Handler) SnapEntry(w http.ResponseWriter, r *http.Request) {
	trip := r.Context().Value(TripCtx).(*domain.Trip)
	entry := r.Context().Value(EntryCtx).(*domain.Entry)

	res, err := h.timeline.Snap(r.Context(), trip, entry.ID)
	if err != nil {
		h.timelineError(w, r, err)
		return
	}

	h.successResponse(w, r, "衔接成功", res)
}
