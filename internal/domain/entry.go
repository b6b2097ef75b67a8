package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryFlight            Category = "flight"
	CategoryTransfer          Category = "transfer"
	CategoryAirportProcessing Category = "airport_processing"
)

type LinkedType string

const (
	LinkedNone     LinkedType = ""
	LinkedCheckin  LinkedType = "checkin"
	LinkedCheckout LinkedType = "checkout"
)

// EntryKind 在读取时确定一次，之后不再根据名称重新推断
type EntryKind string

const (
	KindFlight            EntryKind = "flight"
	KindTransfer          EntryKind = "transfer"
	KindAirportProcessing EntryKind = "airport_processing"
	KindLeisure           EntryKind = "leisure"
)

// 旧数据里交通条目没有分类，只能靠名称前缀识别
var legacyTransferPrefixes = []string{"drive to", "walk to", "taxi to", "train to", "bus to"}

func ClassifyKind(opt Option) EntryKind {
	switch opt.Category {
	case CategoryFlight:
		return KindFlight
	case CategoryTransfer:
		return KindTransfer
	case CategoryAirportProcessing:
		return KindAirportProcessing
	case "":
		name := strings.ToLower(strings.TrimSpace(opt.Name))
		for _, prefix := range legacyTransferPrefixes {
			if strings.HasPrefix(name, prefix) {
				return KindTransfer
			}
		}
	}
	return KindLeisure
}

// Option 是条目的主选项，只有航班会设置 DepartureTZ / ArrivalTZ
type Option struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	DepartureTZ   string   `json:"departureTZ,omitempty"`
	ArrivalTZ     string   `json:"arrivalTZ,omitempty"`
	Address       string   `json:"address,omitempty"`
	TransportMode string   `json:"transportMode,omitempty"`
}

type Entry struct {
	ID             int64      `json:"id"`
	TripID         int64      `json:"tripID"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        time.Time  `json:"endTime"`
	IsLocked       bool       `json:"isLocked"`
	IsScheduled    bool       `json:"isScheduled"`
	LinkedFlightID *int64     `json:"linkedFlightID"`
	LinkedType     LinkedType `json:"linkedType"`
	FromEntryID    *int64     `json:"fromEntryID"`
	ToEntryID      *int64     `json:"toEntryID"`
	Option         Option     `json:"option"`
	Kind           EntryKind  `json:"kind"`
	Version        int32      `json:"-"`
}

func (e *Entry) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// IsFlight 仅当两端时区都已设置时才按航班处理
func (e *Entry) IsFlight() bool {
	return e.Kind == KindFlight && e.Option.DepartureTZ != "" && e.Option.ArrivalTZ != ""
}

func (e *Entry) IsTransport() bool {
	return e.Kind == KindTransfer
}

// IntervalUpdate 是调度引擎唯一会写回持久层的内容
type IntervalUpdate struct {
	EntryID   int64     `json:"entryID"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}
