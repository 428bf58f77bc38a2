package availability

import "time"

// ClockFormat is the wire format for slot-start times.
const ClockFormat = "15:04"

// FreeSlots filters candidate slot-start instants against occupied start
// times and formats the survivors as HH:MM strings, in candidate order
// (ascending by construction).
//
// Occupancy is compared by clock time on the candidate's date: an occupied
// 09:00 removes the 09:00 candidate regardless of seconds or sub-minute
// noise in the stored timestamp. Callers decide which appointments count as
// occupying; the current policy includes canceled ones.
func FreeSlots(candidates []time.Time, occupied []time.Time) []string {
	if len(candidates) == 0 {
		return nil
	}

	taken := make(map[string]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t.Format(ClockFormat)] = struct{}{}
	}

	slots := make([]string, 0, len(candidates))
	for _, c := range candidates {
		clock := c.Format(ClockFormat)
		if _, ok := taken[clock]; ok {
			continue
		}
		slots = append(slots, clock)
	}
	return slots
}
