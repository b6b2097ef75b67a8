package scheduler

import (
	"math"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

type GapTier string

const (
	TierContiguous  GapTier = "contiguous"
	TierTransport   GapTier = "transport"
	TierGap         GapTier = "gap"
	TierAutoSnapped GapTier = "auto_snapped"
	TierSnap        GapTier = "snap"
)

type Placement string

const (
	PlacementCenter   Placement = "center"
	PlacementNearPrev Placement = "near_prev"
)

type GapAdvice struct {
	PrevID     int64   `json:"prevID"`
	NextID     int64   `json:"nextID"`
	GapMinutes int     `json:"gapMinutes"`
	Tier       GapTier `json:"tier"`
	StartGH    float64 `json:"startGH"`
	EndGH      float64 `json:"endGH"`

	OfferTransportShortcut bool `json:"offerTransportShortcut"`

	OfferSnap     bool      `json:"offerSnap"`
	SnapDisabled  bool      `json:"snapDisabled"`
	SnapReason    string    `json:"snapReason,omitempty"`
	SnapPlacement Placement `json:"snapPlacement,omitempty"`
	SnapAtGH      float64   `json:"snapAtGH,omitempty"`

	OfferAdd     bool      `json:"offerAdd"`
	AddPlacement Placement `json:"addPlacement,omitempty"`
	AddAtGH      float64   `json:"addAtGH,omitempty"`
}

// ClassifyGap 决定两个相邻单元之间的空档显示哪些操作
func ClassifyGap(prev, next Item, th Thresholds) GapAdvice {
	gap := int(math.Round(next.StartUTC.Sub(prev.EndUTC).Minutes()))
	adv := GapAdvice{
		PrevID:     prev.ID,
		NextID:     next.ID,
		GapMinutes: gap,
		StartGH:    prev.EndGH,
		EndGH:      next.StartGH,
	}
	center := (prev.EndGH + next.StartGH) / 2

	if gap <= th.IgnoreGapMinutes {
		adv.Tier = TierContiguous
		return adv
	}

	prevTransport := prev.Kind == domain.KindTransfer
	nextTransport := next.Kind == domain.KindTransfer

	switch {
	case prevTransport && !nextTransport:
		if gap < th.AutoSnapMinutes && !next.Locked {
			// 联动已经会自动吸附
			adv.Tier = TierAutoSnapped
			return adv
		}
		adv.Tier = TierSnap
		adv.OfferSnap = true
		if next.Locked {
			adv.SnapDisabled = true
			adv.SnapReason = SnapReasonLocked
		}
		if gap > th.CenteredSnapMinutes {
			adv.SnapPlacement = PlacementNearPrev
			adv.SnapAtGH = prev.EndGH
			adv.OfferAdd = true
			adv.AddPlacement = PlacementCenter
			adv.AddAtGH = (prev.EndGH + float64(th.AutoSnapMinutes)/60 + next.StartGH) / 2
		} else {
			adv.SnapPlacement = PlacementCenter
			adv.SnapAtGH = center
		}
	case !prevTransport && !nextTransport:
		if gap < th.TransportGapMinutes {
			adv.Tier = TierTransport
			adv.OfferTransportShortcut = true
			return adv
		}
		adv.Tier = TierGap
		adv.OfferAdd = true
		adv.AddPlacement = PlacementCenter
		adv.AddAtGH = center
	default:
		adv.Tier = TierGap
		if gap >= th.TransportGapMinutes {
			adv.OfferAdd = true
			adv.AddPlacement = PlacementCenter
			adv.AddAtGH = center
		}
	}
	return adv
}

const SnapReasonLocked = "locked"

func (s *Scheduler) AdviseGaps() []GapAdvice {
	items := s.Items()
	advice := make([]GapAdvice, 0, len(items))
	for i := 0; i+1 < len(items); i++ {
		advice = append(advice, ClassifyGap(items[i], items[i+1], s.opts.Thresholds))
	}
	return advice
}

// NextItem 返回时间轴上紧跟在 id 之后的单元
func (s *Scheduler) NextItem(id int64) (Item, bool) {
	items := s.Items()
	for i := 0; i+1 < len(items); i++ {
		if items[i].ID == id {
			return items[i+1], true
		}
	}
	return Item{}, false
}

// PlanSnap 让目标条目紧接在交通条目结束时开始。routeMinutes 非空时先按实际路程
// 重新计算交通时长（向上取整到 RouteRoundMinutes），之后从目标条目继续联动。
func (s *Scheduler) PlanSnap(transportID, targetID int64, routeMinutes *int) (CascadePlan, error) {
	t, ok := s.entries[transportID]
	if !ok {
		return CascadePlan{}, ErrEntryNotFound
	}
	if !t.IsTransport() {
		return CascadePlan{}, ErrNotTransport
	}
	target, ok := s.entries[targetID]
	if !ok {
		return CascadePlan{}, ErrEntryNotFound
	}
	if target.IsLocked {
		return CascadePlan{}, ErrEntryLocked
	}

	tEnd := t.EndTime
	if routeMinutes != nil && *routeMinutes > 0 && !t.IsLocked {
		mins := RoundUpMinutes(*routeMinutes, s.opts.Thresholds.RouteRoundMinutes)
		tEnd = t.StartTime.Add(time.Duration(mins) * time.Minute)
	}

	follow, err := s.Cascade(target.ID, tEnd, tEnd.Add(target.Duration()))
	if err != nil {
		return CascadePlan{}, err
	}

	plan := CascadePlan{
		Anchor:  domain.IntervalUpdate{EntryID: t.ID, StartTime: t.StartTime.UTC(), EndTime: tEnd.UTC()},
		Updates: append([]domain.IntervalUpdate{follow.Anchor}, follow.Updates...),
		Skipped: follow.Skipped,
	}
	return plan, nil
}
