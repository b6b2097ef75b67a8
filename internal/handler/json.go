package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/timeline"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "服务器内部错误",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

var timelineErrorMessages = []struct {
	err error
	msg string
}{
	{scheduler.ErrEntryLocked, "条目已锁定"},
	{scheduler.ErrEntryNotFound, "条目不存在"},
	{scheduler.ErrFlightFixed, "航班时间不能通过拖动修改"},
	{scheduler.ErrPinnedEdge, "值机和出站条目只能调整不与航班相连的一端"},
	{scheduler.ErrDragInProgress, "已有正在进行的拖拽"},
	{scheduler.ErrNotTransport, "只有交通条目可以衔接"},
	{scheduler.ErrInvalidClock, "时间格式错误"},
	{timeline.ErrInvalidInterval, "结束时间不能早于开始时间"},
	{timeline.ErrInvalidGesture, "手势必须以按下事件开始"},
	{timeline.ErrNoSnapTarget, "交通之后没有可以衔接的条目"},
	{sql.ErrNoRows, "数据已被修改，请刷新后重试"},
}

// timelineError 把调度引擎的错误翻译成提示信息，其它错误按服务器内部错误处理
func (h *Handler) timelineError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range timelineErrorMessages {
		if errors.Is(err, m.err) {
			h.errorResponse(w, r, m.msg)
			return
		}
	}
	h.internalServerError(w, r, err)
}
