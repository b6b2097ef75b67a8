package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

func ValidateTimezone(name string) error {
	if name == "" {
		return errors.New("时区不能为空")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("无效的时区 %s", name)
	}
	return nil
}

func ValidateTrip(trip *domain.Trip) error {
	if err := ValidateTimezone(trip.HomeTimezone); err != nil {
		return err
	}

	// 有日期的行程必须同时给出开始和结束日期
	if (trip.StartDate == nil) != (trip.EndDate == nil) {
		return errors.New("开始日期和结束日期必须同时填写")
	}
	if trip.IsDated() {
		if trip.EndDate.Before(*trip.StartDate) {
			return errors.New("结束日期不能早于开始日期")
		}
		return nil
	}

	if trip.DayCount < 1 {
		return errors.New("未定日期的行程至少需要 1 天")
	}
	return nil
}

func ValidateInterval(start, end time.Time) error {
	if end.Before(start) {
		return errors.New("结束时间不能早于开始时间")
	}
	return nil
}

func ValidateEntry(entry *domain.Entry) error {
	if err := ValidateInterval(entry.StartTime, entry.EndTime); err != nil {
		return err
	}

	opt := entry.Option
	if opt.Category == domain.CategoryFlight {
		// 航班两端的时区要么都填，要么都不填（都不填时按普通条目处理）
		if (opt.DepartureTZ == "") != (opt.ArrivalTZ == "") {
			return errors.New("航班的出发时区和到达时区必须同时填写")
		}
		if opt.DepartureTZ != "" {
			if err := ValidateTimezone(opt.DepartureTZ); err != nil {
				return err
			}
			if err := ValidateTimezone(opt.ArrivalTZ); err != nil {
				return err
			}
		}
	}

	if entry.LinkedType != domain.LinkedNone && entry.LinkedFlightID == nil {
		return errors.New("值机或出站条目必须关联航班")
	}
	if entry.FromEntryID != nil && entry.ToEntryID != nil && *entry.FromEntryID == *entry.ToEntryID {
		return errors.New("交通的起点和终点不能是同一个条目")
	}

	return nil
}
