package seed

import (
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/utils"
)

// Store 由 *repository.Repository 实现
type Store interface {
	CreateTrip(trip *domain.Trip) error
	CreateEntry(entry *domain.Entry) error
}

type builder struct {
	store  Store
	tripID int64
}

func (b *builder) add(e *domain.Entry) (int64, error) {
	e.TripID = b.tripID
	e.IsScheduled = true
	if err := utils.ValidateEntry(e); err != nil {
		return 0, err
	}
	if err := b.store.CreateEntry(e); err != nil {
		return 0, err
	}
	return e.ID, nil
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SeedDemoTrip 插入一个 Dubai -> Bangkok 的三天行程：
// 第一天酒店出发打车去机场，值机、航班、出站，再打车去酒店；第二天有两个景点和一段交通。
func SeedDemoTrip(store Store, start time.Time) (*domain.Trip, error) {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	trip := &domain.Trip{
		Name:         "迪拜转曼谷",
		StartDate:    &start,
		EndDate:      &end,
		DayCount:     3,
		HomeTimezone: "Asia/Dubai",
	}
	if err := utils.ValidateTrip(trip); err != nil {
		return nil, err
	}
	if err := store.CreateTrip(trip); err != nil {
		return nil, err
	}

	dubai, bangkok := mustLoad("Asia/Dubai"), mustLoad("Asia/Bangkok")
	day := func(loc *time.Location, offset, hour, minute int) time.Time {
		d := start.AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc).UTC()
	}

	b := &builder{store: store, tripID: trip.ID}

	hotel, err := b.add(&domain.Entry{
		StartTime: day(dubai, 0, 7, 0),
		EndTime:   day(dubai, 0, 7, 30),
		Option:    domain.Option{Name: "Check out of hotel", Address: "Downtown Dubai"},
	})
	if err != nil {
		return nil, err
	}

	flight, err := b.add(&domain.Entry{
		StartTime: day(dubai, 0, 10, 0),
		EndTime:   day(dubai, 0, 16, 0),
		Option: domain.Option{
			Name:        "EK 372 DXB-BKK",
			Category:    domain.CategoryFlight,
			DepartureTZ: "Asia/Dubai",
			ArrivalTZ:   "Asia/Bangkok",
			Address:     "Dubai International Airport",
		},
	})
	if err != nil {
		return nil, err
	}

	checkin, err := b.add(&domain.Entry{
		StartTime:      day(dubai, 0, 8, 0),
		EndTime:        day(dubai, 0, 10, 0),
		LinkedFlightID: &flight,
		LinkedType:     domain.LinkedCheckin,
		Option:         domain.Option{Name: "Check-in DXB", Category: domain.CategoryAirportProcessing, Address: "Dubai International Airport"},
	})
	if err != nil {
		return nil, err
	}

	if _, err := b.add(&domain.Entry{
		StartTime:   day(dubai, 0, 7, 30),
		EndTime:     day(dubai, 0, 8, 0),
		FromEntryID: &hotel,
		ToEntryID:   &checkin,
		Option:      domain.Option{Name: "Taxi to DXB", Category: domain.CategoryTransfer, TransportMode: "taxi"},
	}); err != nil {
		return nil, err
	}

	checkout, err := b.add(&domain.Entry{
		StartTime:      day(dubai, 0, 16, 0),
		EndTime:        day(dubai, 0, 16, 45),
		LinkedFlightID: &flight,
		LinkedType:     domain.LinkedCheckout,
		Option:         domain.Option{Name: "Arrival BKK", Category: domain.CategoryAirportProcessing, Address: "Suvarnabhumi Airport"},
	})
	if err != nil {
		return nil, err
	}

	riverside, err := b.add(&domain.Entry{
		StartTime: day(bangkok, 0, 20, 45),
		EndTime:   day(bangkok, 0, 21, 30),
		Option:    domain.Option{Name: "Riverside hotel", Address: "Charoen Krung Rd, Bangkok"},
	})
	if err != nil {
		return nil, err
	}

	if _, err := b.add(&domain.Entry{
		StartTime:   day(dubai, 0, 16, 45),
		EndTime:     day(dubai, 0, 17, 30),
		FromEntryID: &checkout,
		ToEntryID:   &riverside,
		Option:      domain.Option{Name: "Taxi to hotel", Category: domain.CategoryTransfer, TransportMode: "drive"},
	}); err != nil {
		return nil, err
	}

	palace, err := b.add(&domain.Entry{
		StartTime: day(bangkok, 1, 9, 0),
		EndTime:   day(bangkok, 1, 11, 30),
		Option:    domain.Option{Name: "Grand Palace", Address: "Na Phra Lan Rd, Bangkok"},
	})
	if err != nil {
		return nil, err
	}

	market, err := b.add(&domain.Entry{
		StartTime: day(bangkok, 1, 14, 0),
		EndTime:   day(bangkok, 1, 16, 0),
		IsLocked:  true,
		Option:    domain.Option{Name: "Chatuchak market", Address: "Kamphaeng Phet 2 Rd, Bangkok"},
	})
	if err != nil {
		return nil, err
	}

	// 旧数据没有分类，靠名称前缀识别为交通
	if _, err := b.add(&domain.Entry{
		StartTime:   day(bangkok, 1, 11, 30),
		EndTime:     day(bangkok, 1, 12, 15),
		FromEntryID: &palace,
		ToEntryID:   &market,
		Option:      domain.Option{Name: "Train to Chatuchak", TransportMode: "train"},
	}); err != nil {
		return nil, err
	}

	slog.Info("已插入示例行程", "tripID", trip.ID)
	return trip, nil
}

// SeedRandomTrip 插入一个只有休闲条目的随机行程，条目之间可能重叠
func SeedRandomTrip(store Store, days, perDay int) (*domain.Trip, error) {
	trip := utils.GenerateRandomTrip(days)
	if err := store.CreateTrip(trip); err != nil {
		return nil, err
	}

	loc := mustLoad(trip.HomeTimezone)
	b := &builder{store: store, tripID: trip.ID}

	cnt := 0
	for d := 0; d < days; d++ {
		date := trip.StartDate.AddDate(0, 0, d)
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		for i := 0; i < perDay; i++ {
			if _, err := b.add(utils.GenerateRandomLeisure(trip.ID, dayStart)); err != nil {
				slog.Error("无法插入条目", "tripID", trip.ID, "error", err)
				continue
			}
			cnt++
		}
	}

	slog.Info("已插入随机行程", "tripID", trip.ID, "entries", cnt)
	return trip, nil
}
