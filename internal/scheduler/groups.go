package scheduler

import "github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"

// FlightGroup 把航班和它的值机、出站条目合成一个时间轴单元
type FlightGroup struct {
	Flight   *domain.Entry `json:"flight"`
	Checkin  *domain.Entry `json:"checkin,omitempty"`
	Checkout *domain.Entry `json:"checkout,omitempty"`
}

// SegmentFractions 是航班卡片内三段各自所占的高度比例
type SegmentFractions struct {
	Checkin  float64 `json:"checkin"`
	Flight   float64 `json:"flight"`
	Checkout float64 `json:"checkout"`
}

func (g *FlightGroup) Members() []*domain.Entry {
	members := make([]*domain.Entry, 0, 3)
	if g.Checkin != nil {
		members = append(members, g.Checkin)
	}
	members = append(members, g.Flight)
	if g.Checkout != nil {
		members = append(members, g.Checkout)
	}
	return members
}

func (g *FlightGroup) SegmentFractions() SegmentFractions {
	var in, out float64
	if g.Checkin != nil {
		in = g.Checkin.Duration().Minutes()
	}
	if g.Checkout != nil {
		out = g.Checkout.Duration().Minutes()
	}
	flight := g.Flight.Duration().Minutes()

	total := in + flight + out
	if total <= 0 {
		return SegmentFractions{Flight: 1}
	}
	return SegmentFractions{Checkin: in / total, Flight: flight / total, Checkout: out / total}
}

// BuildGroups 按 linked_flight_id 归组。只有至少有一个关联条目的航班才成组；
// 关联到不存在航班的条目按普通条目处理。每个槽位只取最早的一个。
func BuildGroups(entries []*domain.Entry) (map[int64]*FlightGroup, map[int64]bool) {
	flights := make(map[int64]*domain.Entry)
	for _, e := range entries {
		if e.Kind == domain.KindFlight {
			flights[e.ID] = e
		}
	}

	groups := make(map[int64]*FlightGroup)
	linked := make(map[int64]bool)

	for _, e := range entries {
		if e.LinkedFlightID == nil || *e.LinkedFlightID == e.ID {
			continue
		}
		flight, ok := flights[*e.LinkedFlightID]
		if !ok {
			continue
		}

		g, ok := groups[flight.ID]
		if !ok {
			g = &FlightGroup{Flight: flight}
		}

		switch e.LinkedType {
		case domain.LinkedCheckin:
			if g.Checkin != nil {
				continue
			}
			g.Checkin = e
		case domain.LinkedCheckout:
			if g.Checkout != nil {
				continue
			}
			g.Checkout = e
		default:
			continue
		}

		groups[flight.ID] = g
		linked[e.ID] = true
	}

	return groups, linked
}
