package domain

// Time-of-day buckets partition the hours 0-23 into six 4-hour windows.
const (
	LateNight     = "12am to 4am"
	EarlyMorning  = "4am to 8am"
	Morning       = "8am to 12pm"
	Afternoon     = "12pm to 4pm"
	Evening       = "4pm to 8pm"
	Night         = "8pm to 12am"
	UnknownBucket = "Unknown"
)

var timeOfDayBuckets = [...]string{LateNight, EarlyMorning, Morning, Afternoon, Evening, Night}

// TimeOfDayBuckets returns the six buckets in canonical order.
func TimeOfDayBuckets() []string {
	return timeOfDayBuckets[:]
}

// TimeOfDayFor maps an hour of day to its bucket. Hours outside 0-23 map to
// UnknownBucket.
func TimeOfDayFor(hour int) string {
	if hour < 0 || hour > 23 {
		return UnknownBucket
	}
	return timeOfDayBuckets[hour/4]
}
