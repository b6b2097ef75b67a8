package domain

import "time"

type NotificationType string

const (
	NotificationConflictsChanged NotificationType = "conflicts_changed"
	NotificationLockedRejected   NotificationType = "locked_rejected"
	NotificationSnapSucceeded    NotificationType = "snap_succeeded"
	NotificationSnapFailed       NotificationType = "snap_failed"
	NotificationWriteFailed      NotificationType = "write_failed"
)

type Notification struct {
	Type      NotificationType `json:"type"`
	TripID    int64            `json:"tripID"`
	TripName  string           `json:"tripName,omitempty"`
	EntryID   int64            `json:"entryID,omitempty"`
	To        string           `json:"to,omitempty"` // 行程设置了通知邮箱时才填写
	Message   string           `json:"message"`
	Data      any              `json:"data,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

type ConflictsChangedData struct {
	Previous int `json:"previous"`
	Current  int `json:"current"`
}

type SnapData struct {
	TransportID int64  `json:"transportID"`
	TargetID    int64  `json:"targetID"`
	RouteMode   string `json:"routeMode,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
