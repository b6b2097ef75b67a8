package scheduler

import (
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

func civilDate(t time.Time) string {
	return t.Format(dateLayout)
}

// hourOf 返回当地时间在一天中的小时数（带小数）
func hourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// daysBetween 按日历日计算 b 比 a 晚几天，与各自所在时区无关
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(db.Sub(da).Hours() / 24))
}

func (d Day) at(loc *time.Location, minutes int) time.Time {
	return time.Date(d.year, d.month, d.day, 0, minutes, 0, 0, loc)
}

// SnapHours 把小时数吸附到最近的 gridMinutes 网格
func SnapHours(h float64, gridMinutes int) float64 {
	if gridMinutes <= 0 {
		return h
	}
	steps := 60 / float64(gridMinutes)
	return math.Round(h*steps) / steps
}

// RoundUpMinutes 向上取整到 step 的倍数
func RoundUpMinutes(minutes, step int) int {
	if step <= 0 {
		return minutes
	}
	if rem := minutes % step; rem != 0 {
		return minutes + step - rem
	}
	return minutes
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func parseClock(clock string) (int, error) {
	var h, m int
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	if _, err := fmt.Sscanf(clock, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return h*60 + m, nil
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h*60)) * time.Minute
}
