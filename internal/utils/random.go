package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

var letters = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
var digits = "0123456789"

var placeNames = []string{
	"Old Town Walk", "Night Market", "City Museum", "Harbour Cruise", "Botanical Garden",
	"Street Food Tour", "Grand Mosque", "Spice Souk", "Rooftop Dinner", "River Temple",
}

var homeZones = []string{"Asia/Dubai", "Asia/Bangkok", "Asia/Singapore", "Europe/London", "Asia/Tokyo"}

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(len(letters))]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

func GenerateRandomPlace() string {
	return placeNames[rand.Intn(len(placeNames))]
}

func GenerateRandomTrip(days int) *domain.Trip {
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, rand.Intn(60)+7)
	end := start.AddDate(0, 0, days-1)
	return &domain.Trip{
		Name:         "行程" + GenerateRandomID(3, 3),
		StartDate:    &start,
		EndDate:      &end,
		DayCount:     int32(days),
		HomeTimezone: homeZones[rand.Intn(len(homeZones))],
	}
}

// GenerateRandomLeisure 在 [dayStart+8h, dayStart+20h) 内生成一个 15 分钟对齐的条目
func GenerateRandomLeisure(tripID int64, dayStart time.Time) *domain.Entry {
	startQuarter := rand.Intn(12*4) + 8*4
	durQuarter := rand.Intn(12) + 2

	start := dayStart.Add(time.Duration(startQuarter) * 15 * time.Minute)
	return &domain.Entry{
		TripID:      tripID,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(durQuarter) * 15 * time.Minute),
		IsScheduled: true,
		Option:      domain.Option{Name: GenerateRandomPlace(), Address: fmt.Sprintf("%d %s", rand.Intn(200)+1, GenerateRandomPlace())},
	}
}
