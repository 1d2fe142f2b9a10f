package booking

import (
	"sort"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/wellappoint"
)

// SlotDay is one calendar day of available slots, sorted by start time.
type SlotDay struct {
	Date  string                      `json:"date"`  // YYYY-MM-DD, local calendar date
	Label string                      `json:"label"` // e.g. "Mon Oct 20"
	Slots []wellappoint.AvailableSlot `json:"slots"`
}

// GroupSlotsByDay groups slots by the local calendar date of their start time
// and sorts both the days and the slots within each day ascending. The input
// arrives chronologically unsorted from the upstream.
func GroupSlotsByDay(slots []wellappoint.AvailableSlot) []SlotDay {
	var days []SlotDay
	dayIdx := map[string]int{}
	for _, s := range slots {
		d := wellappoint.FormatDate(s.StartTime)
		if idx, ok := dayIdx[d]; ok {
			days[idx].Slots = append(days[idx].Slots, s)
		} else {
			dayIdx[d] = len(days)
			days = append(days, SlotDay{
				Date:  d,
				Label: wellappoint.FormatDisplayDate(s.StartTime),
				Slots: []wellappoint.AvailableSlot{s},
			})
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	for i := range days {
		slots := days[i].Slots
		sort.Slice(slots, func(a, b int) bool {
			return slots[a].StartTime.Before(slots[b].StartTime)
		})
	}
	return days
}
