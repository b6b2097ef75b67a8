package scheduler

import (
	"math"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

type PointerKind string

const (
	PointerMouse PointerKind = "mouse"
	PointerPen   PointerKind = "pen"
	PointerTouch PointerKind = "touch"
)

type PointerEventType string

const (
	PointerDown   PointerEventType = "down"
	PointerMove   PointerEventType = "move"
	PointerUp     PointerEventType = "up"
	PointerCancel PointerEventType = "cancel"
)

type DragPhase string

const (
	PhaseIdle    DragPhase = "idle"
	PhasePending DragPhase = "pending" // 触摸按下，等待长按
	PhaseActive  DragPhase = "active"
)

type DropZone string

const (
	ZoneTimeline DropZone = "timeline"
	ZoneDetached DropZone = "detached"
)

type DragConfig struct {
	PixelsPerHour      float64
	TotalDays          int
	SnapMinutes        int
	MinDurationMinutes int
	HoldDelay          time.Duration
	TouchSlop          float64
	ReleaseGuard       time.Duration
	DetachRatio        float64
	ViewportWidth      float64 // 为 0 时不判断拖出
}

func (c DragConfig) withDefaults() DragConfig {
	if c.PixelsPerHour <= 0 {
		c.PixelsPerHour = 60
	}
	if c.TotalDays < 1 {
		c.TotalDays = 1
	}
	if c.SnapMinutes <= 0 {
		c.SnapMinutes = 15
	}
	if c.MinDurationMinutes <= 0 {
		c.MinDurationMinutes = 15
	}
	if c.HoldDelay <= 0 {
		c.HoldDelay = 200 * time.Millisecond
	}
	if c.TouchSlop <= 0 {
		c.TouchSlop = 10
	}
	if c.ReleaseGuard <= 0 {
		c.ReleaseGuard = 150 * time.Millisecond
	}
	if c.DetachRatio <= 0 {
		c.DetachRatio = 0.25
	}
	return c
}

type PointerEvent struct {
	Type    PointerEventType `json:"type" validate:"required,oneof=down move up cancel"`
	Pointer PointerKind      `json:"pointer" validate:"omitempty,oneof=mouse pen touch"`
	X       float64          `json:"x"`
	Y       float64          `json:"y"`
	At      time.Time        `json:"at" validate:"required"`
}

// BeginRequest 描述一次按下：按在哪个条目的哪个部位
type BeginRequest struct {
	EntryID     int64
	Type        DragType
	StartGH     float64
	EndGH       float64
	Locked      bool
	FlightGroup bool // 按在航班组卡片本身上
	LinkedType  domain.LinkedType
	Pointer     PointerKind
	X           float64
	Y           float64
	At          time.Time
}

// DragState 是交给渲染层的只读快照
type DragState struct {
	Phase   DragPhase `json:"phase"`
	EntryID int64     `json:"entryID,omitempty"`
	Type    DragType  `json:"type,omitempty"`
	StartGH float64   `json:"startGH"`
	EndGH   float64   `json:"endGH"`
	Zone    DropZone  `json:"zone,omitempty"`
}

type CommitEvent struct {
	EntryID int64    `json:"entryID"`
	StartGH float64  `json:"startGH"`
	EndGH   float64  `json:"endGH"`
	Type    DragType `json:"dragType"`
	ClientX float64  `json:"clientX"`
	ClientY float64  `json:"clientY"`
	Zone    DropZone `json:"zone"`
	Changed bool     `json:"changed"`
}

// DragController 持有一个时间轴视图上唯一的拖拽状态。
// 所有时间都来自事件本身，不读取系统时钟。
type DragController struct {
	cfg DragConfig

	phase     DragPhase
	req       BeginRequest
	candidate GlobalInterval
	zone      DropZone

	releasedAt time.Time
}

func NewDragController(cfg DragConfig) *DragController {
	return &DragController{cfg: cfg.withDefaults(), phase: PhaseIdle}
}

func (c *DragController) Begin(req BeginRequest) error {
	if c.phase != PhaseIdle {
		return ErrDragInProgress
	}
	if req.Locked {
		return ErrEntryLocked
	}
	if req.FlightGroup {
		return ErrFlightFixed
	}
	switch req.LinkedType {
	case domain.LinkedCheckin:
		// 值机的结束时间钉在航班开始时间上
		if req.Type != DragResizeTop {
			return ErrPinnedEdge
		}
	case domain.LinkedCheckout:
		if req.Type != DragResizeBottom {
			return ErrPinnedEdge
		}
	}
	if req.Type == "" {
		req.Type = DragMove
	}

	c.req = req
	c.candidate = GlobalInterval{StartGH: req.StartGH, EndGH: req.EndGH}
	c.zone = ZoneTimeline
	c.releasedAt = time.Time{}

	if req.Pointer == PointerTouch {
		c.phase = PhasePending
	} else {
		c.phase = PhaseActive
	}
	return nil
}

// Tick 在长按计时到达时把触摸按下提升为拖拽
func (c *DragController) Tick(now time.Time) bool {
	if c.phase == PhasePending && now.Sub(c.req.At) >= c.cfg.HoldDelay {
		c.phase = PhaseActive
	}
	return c.phase == PhaseActive
}

// Move 返回当前候选区间；第二个返回值表示拖拽是否处于激活状态
func (c *DragController) Move(ev PointerEvent) (GlobalInterval, bool) {
	switch c.phase {
	case PhaseIdle:
		return GlobalInterval{}, false
	case PhasePending:
		if math.Hypot(ev.X-c.req.X, ev.Y-c.req.Y) > c.cfg.TouchSlop {
			// 长按完成前移动过多，视为滚动
			c.Cancel()
			return GlobalInterval{}, false
		}
		if !c.Tick(ev.At) {
			return c.candidate, false
		}
	}

	c.candidate = c.compute(ev.Y - c.req.Y)
	c.zone = ZoneTimeline
	if c.req.Type == DragMove && c.cfg.ViewportWidth > 0 &&
		math.Abs(ev.X-c.req.X) > c.cfg.DetachRatio*c.cfg.ViewportWidth {
		c.zone = ZoneDetached
	}
	return c.candidate, true
}

// compute 根据纵向位移计算候选区间。调整大小只吸附移动的一端；
// 移动时两端都吸附到网格，时长不是网格整数倍的条目落下后时长会变为最近的网格值
func (c *DragController) compute(deltaY float64) GlobalInterval {
	delta := deltaY / c.cfg.PixelsPerHour
	grid := c.cfg.SnapMinutes
	minDur := float64(c.cfg.MinDurationMinutes) / 60
	maxGH := float64(c.cfg.TotalDays * 24)

	start, end := c.req.StartGH, c.req.EndGH
	switch c.req.Type {
	case DragResizeTop:
		start = SnapHours(start+delta, grid)
		if end-start < minDur {
			start = end - minDur
		}
	case DragResizeBottom:
		end = SnapHours(end+delta, grid)
		if end-start < minDur {
			end = start + minDur
		}
	default:
		start = SnapHours(start+delta, grid)
		end = SnapHours(end+delta, grid)
		if end-start < minDur {
			end = start + minDur
		}
	}

	// 超出时间轴范围时从越界的一端收缩
	if start < 0 {
		start = 0
		if end-start < minDur {
			end = start + minDur
		}
	}
	if end > maxGH {
		end = maxGH
		if end-start < minDur {
			start = end - minDur
		}
	}
	return GlobalInterval{StartGH: clampFloat(start, 0, maxGH), EndGH: clampFloat(end, 0, maxGH)}
}

// Release 在拖拽激活时恰好产生一次提交事件。触摸在长按完成前松开视为点击，不提交。
func (c *DragController) Release(ev PointerEvent) (CommitEvent, bool) {
	switch c.phase {
	case PhaseIdle:
		return CommitEvent{}, false
	case PhasePending:
		if !c.Tick(ev.At) {
			c.Cancel()
			return CommitEvent{}, false
		}
	}

	if _, ok := c.Move(ev); !ok {
		return CommitEvent{}, false
	}
	const eps = 1e-9
	out := CommitEvent{
		EntryID: c.req.EntryID,
		StartGH: c.candidate.StartGH,
		EndGH:   c.candidate.EndGH,
		Type:    c.req.Type,
		ClientX: ev.X,
		ClientY: ev.Y,
		Zone:    c.zone,
		Changed: math.Abs(c.candidate.StartGH-c.req.StartGH) > eps || math.Abs(c.candidate.EndGH-c.req.EndGH) > eps,
	}

	c.phase = PhaseIdle
	c.releasedAt = ev.At
	return out, true
}

func (c *DragController) Cancel() {
	c.phase = PhaseIdle
	c.req = BeginRequest{}
	c.candidate = GlobalInterval{}
	c.zone = ""
}

// JustReleased 用于点击处理区分"刚结束拖拽"和"新的点击"
func (c *DragController) JustReleased(now time.Time) bool {
	return !c.releasedAt.IsZero() && now.Sub(c.releasedAt) < c.cfg.ReleaseGuard
}

func (c *DragController) Zone() DropZone {
	return c.zone
}

func (c *DragController) State() DragState {
	if c.phase == PhaseIdle {
		return DragState{Phase: PhaseIdle}
	}
	return DragState{
		Phase:   c.phase,
		EntryID: c.req.EntryID,
		Type:    c.req.Type,
		StartGH: c.candidate.StartGH,
		EndGH:   c.candidate.EndGH,
		Zone:    c.zone,
	}
}

// Replay 用录制的指针事件驱动一次完整手势，没有松开事件时按取消处理
func (c *DragController) Replay(begin BeginRequest, events []PointerEvent) (CommitEvent, bool, error) {
	if err := c.Begin(begin); err != nil {
		return CommitEvent{}, false, err
	}
	for _, ev := range events {
		switch ev.Type {
		case PointerMove:
			c.Move(ev)
			if c.phase == PhaseIdle {
				return CommitEvent{}, false, nil
			}
		case PointerUp:
			out, ok := c.Release(ev)
			return out, ok, nil
		case PointerCancel:
			c.Cancel()
			return CommitEvent{}, false, nil
		}
	}
	c.Cancel()
	return CommitEvent{}, false, nil
}
