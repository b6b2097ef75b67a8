package domain

import "time"

type Trip struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	StartDate    *time.Time `json:"startDate"` // 为空时表示未定日期的行程，按 DayCount 生成 "Day k"
	EndDate      *time.Time `json:"endDate"`
	DayCount     int32      `json:"dayCount"`
	HomeTimezone string     `json:"homeTimezone"`
	NotifyEmail  string     `json:"notifyEmail"`
	CreatedAt    time.Time  `json:"createdAt"`
	Version      int32      `json:"-"`
}

func (t *Trip) IsDated() bool {
	return t.StartDate != nil
}
