package scheduler

import (
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

var (
	ErrEntryLocked    = errors.New("entry is locked")
	ErrEntryNotFound  = errors.New("entry not found")
	ErrFlightFixed    = errors.New("flight position is fixed")
	ErrPinnedEdge     = errors.New("edge is pinned to its flight")
	ErrDragInProgress = errors.New("another drag is in progress")
	ErrNotTransport   = errors.New("entry is not a transport")
	ErrInvalidClock   = errors.New("invalid HH:MM clock")
)

// FlightBoundary: 某天内一次航班造成的时区切换
type FlightBoundary struct {
	FlightID        int64     `json:"flightID"`
	OriginTZ        string    `json:"originTZ"`
	DestinationTZ   string    `json:"destinationTZ"`
	FlightStartHour float64   `json:"flightStartHour"` // 出发地当地时间
	FlightEndHour   float64   `json:"flightEndHour"`   // 出发地时区的出发时间 + 飞行时长，可能超过 24
	FlightEndUTC    time.Time `json:"flightEndUTC"`
}

// ActiveTimezoneInfo: 一天开始时生效的时区，以及当天的航班边界
type ActiveTimezoneInfo struct {
	TZ         string           `json:"tz"`
	Boundaries []FlightBoundary `json:"boundaries"`
}

type Day struct {
	Index    int                `json:"index"`
	Date     string             `json:"date"` // 2006-01-02
	Label    string             `json:"label"`
	Timezone ActiveTimezoneInfo `json:"timezone"`

	year  int
	month time.Month
	day   int
}

// GlobalInterval: dayIndex * 24 + 当地小时数
type GlobalInterval struct {
	StartGH float64 `json:"startGH"`
	EndGH   float64 `json:"endGH"`
}

func (g GlobalInterval) Hours() float64 {
	return g.EndGH - g.StartGH
}

// DayTime 是 GlobalHour 的逆映射结果
type DayTime struct {
	DayIndex int    `json:"dayIndex"`
	Minutes  int    `json:"minutes"`
	Clock    string `json:"clock"`
}

type Resolution struct {
	DisplayTZ string         `json:"displayTZ"`
	EndTZ     string         `json:"endTZ"`
	IsFlight  bool           `json:"isFlight"`
	StartLoc  *time.Location `json:"-"`
	EndLoc    *time.Location `json:"-"`
}

type DragType string

const (
	DragMove         DragType = "move"
	DragResizeTop    DragType = "resize-top"
	DragResizeBottom DragType = "resize-bottom"
)

// Thresholds 都以分钟为单位
type Thresholds struct {
	SnapMinutes         int
	MinDurationMinutes  int
	IgnoreGapMinutes    int
	TransportGapMinutes int
	AutoSnapMinutes     int
	CenteredSnapMinutes int
	RouteRoundMinutes   int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SnapMinutes:         15,
		MinDurationMinutes:  15,
		IgnoreGapMinutes:    5,
		TransportGapMinutes: 120,
		AutoSnapMinutes:     30,
		CenteredSnapMinutes: 90,
		RouteRoundMinutes:   5,
	}
}

type Options struct {
	// DefaultTimezone 在行程本身的时区也无效时使用
	DefaultTimezone string
	// UndatedReference 是未定日期行程 Day 1 对应的日期
	UndatedReference time.Time
	Thresholds       Thresholds
}

// Item 是时间轴上一个可独立定位的单元：普通条目，或整个航班组
type Item struct {
	ID       int64
	Kind     domain.EntryKind
	Locked   bool
	StartUTC time.Time
	EndUTC   time.Time
	StartGH  float64
	EndGH    float64
}
