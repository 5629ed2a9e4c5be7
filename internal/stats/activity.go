package stats

import "time"

// Timezone labels inferred from the busiest hour.
const (
	TimezoneUSEastern  = "US Eastern/Central"
	TimezoneUSPacific  = "US Pacific/Mountain"
	TimezoneEuropean   = "European"
	TimezoneUnassigned = "Unknown pattern"
	TimezoneUnknown    = "Unknown"
)

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DayCount struct {
	Day   int    `json:"day"` // 0 is Monday
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ActivityPattern describes when a user posts.
type ActivityPattern struct {
	HourCounts  [24]int     `json:"hour_counts"`
	DayCounts   [7]int      `json:"day_counts"`
	PeakHours   []HourCount `json:"peak_hours"`
	PeakDays    []DayCount  `json:"peak_days"`
	Consistency float64     `json:"activity_consistency"`
}

// IsEmpty reports whether no timestamps were seen.
func (a ActivityPattern) IsEmpty() bool {
	return len(a.PeakHours) == 0
}

// DayName returns the English name of a Monday-based weekday index.
func DayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return dayNames[day]
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func activityPattern(times []time.Time, loc *time.Location) ActivityPattern {
	var a ActivityPattern
	if len(times) == 0 {
		return a
	}

	hours := make([]int, 0, len(times))
	days := make([]int, 0, len(times))
	for _, t := range times {
		local := t.In(loc)
		h, d := local.Hour(), mondayIndex(local.Weekday())
		a.HourCounts[h]++
		a.DayCounts[d]++
		hours = append(hours, h)
		days = append(days, d)
	}

	for _, c := range rank(hours, peakHourLimit) {
		a.PeakHours = append(a.PeakHours, HourCount{Hour: c.key, Count: c.count})
	}
	for _, c := range rank(days, 7) {
		a.PeakDays = append(a.PeakDays, DayCount{Day: c.key, Name: DayName(c.key), Count: c.count})
	}

	distinct := 0
	for _, n := range a.HourCounts {
		if n > 0 {
			distinct++
		}
	}
	a.Consistency = float64(distinct) / 24
	return a
}

func inferTimezone(times []time.Time, loc *time.Location) string {
	if len(times) == 0 {
		return TimezoneUnknown
	}
	hours := make([]int, len(times))
	for i, t := range times {
		hours[i] = t.In(loc).Hour()
	}
	peak := rank(hours, 1)[0].key

	switch {
	case peak >= 6 && peak <= 12:
		return TimezoneUSEastern
	case peak >= 13 && peak <= 19:
		return TimezoneUSPacific
	case peak >= 20 && peak <= 23:
		return TimezoneEuropean
	default:
		return TimezoneUnassigned
	}
}
