package models

import "fmt"

// Bucket is one of the six fixed local time-of-day windows orders are
// grouped into. The zero value is the first bucket of the business day.
type Bucket int

const (
	BucketEarly Bucket = iota
	BucketMorning
	BucketMidday
	BucketAfternoon
	BucketEvening
	BucketLate
)

// BucketCount is the number of buckets in the schedule.
const BucketCount = 6

type bucketSpec struct {
	label string
	hours []int // in business-day order; the last entry is the latest hour
}

var schedule = [BucketCount]bucketSpec{
	BucketEarly:     {label: "1AM - 8AM", hours: []int{1, 2, 3, 4, 5, 6, 7, 8}},
	BucketMorning:   {label: "9AM - 10AM", hours: []int{9, 10}},
	BucketMidday:    {label: "11AM - 2PM", hours: []int{11, 12, 13, 14}},
	BucketAfternoon: {label: "3PM - 5PM", hours: []int{15, 16, 17}},
	BucketEvening:   {label: "6PM - 9PM", hours: []int{18, 19, 20, 21}},
	BucketLate:      {label: "10PM - 12AM", hours: []int{22, 23, 0}},
}

// hourIndex maps a local hour to its bucket; built once from schedule.
var hourIndex = func() [24]Bucket {
	var idx [24]Bucket
	var seen [24]bool
	for b, spec := range schedule {
		for _, h := range spec.hours {
			if seen[h] {
				panic(fmt.Sprintf("bucket schedule: hour %d assigned twice", h))
			}
			seen[h] = true
			idx[h] = Bucket(b)
		}
	}
	for h, ok := range seen {
		if !ok {
			panic(fmt.Sprintf("bucket schedule: hour %d unassigned", h))
		}
	}
	return idx
}()

// Buckets returns all buckets in schedule order.
func Buckets() []Bucket {
	out := make([]Bucket, BucketCount)
	for i := range out {
		out[i] = Bucket(i)
	}
	return out
}

// Valid reports whether b is one of the scheduled buckets.
func (b Bucket) Valid() bool { return b >= 0 && b < BucketCount }

// Label returns the wire label read by the dashboard, e.g. "6PM - 9PM".
func (b Bucket) Label() string {
	if !b.Valid() {
		return ""
	}
	return schedule[b].label
}

func (b Bucket) String() string { return b.Label() }

// Hours returns a copy of the bucket's local hours in business-day order.
func (b Bucket) Hours() []int {
	if !b.Valid() {
		return nil
	}
	return append([]int(nil), schedule[b].hours...)
}

// StartHour is the first local hour of the bucket.
func (b Bucket) StartHour() int { return schedule[b].hours[0] }

// LatestHour is the last local hour of the bucket; 0 for the wrap bucket.
func (b Bucket) LatestHour() int {
	hs := schedule[b].hours
	return hs[len(hs)-1]
}

// ParseBucket resolves a wire label back to its bucket.
func ParseBucket(label string) (Bucket, bool) {
	for b, spec := range schedule {
		if spec.label == label {
			return Bucket(b), true
		}
	}
	return 0, false
}

// Classify maps a local hour (0..23) to its bucket. Minutes and seconds
// play no part. ok is false only for hours outside 0..23.
func Classify(localHour int) (Bucket, bool) {
	if localHour < 0 || localHour > 23 {
		return 0, false
	}
	return hourIndex[localHour], true
}

// IsFutureBucket reports whether b has not yet fully elapsed at currentHour.
// The wrap bucket ends at hour 0 and is future only while currentHour < 1.
func IsFutureBucket(b Bucket, currentHour int) bool {
	latest := b.LatestHour()
	return latest > currentHour || (latest == 0 && currentHour < 1)
}

// IsCurrentBucket reports whether hour falls inside b, wrapping past
// midnight when the end hour is numerically smaller than the start hour.
func IsCurrentBucket(b Bucket, hour int) bool {
	start, end := b.StartHour(), b.LatestHour()
	if end < start {
		return hour >= start || hour <= end
	}
	return hour >= start && hour <= end
}

// HasStarted reports whether the bucket's first hour has been reached.
func HasStarted(b Bucket, currentHour int) bool {
	return currentHour >= b.StartHour()
}

// HasElapsed reports whether b has started and currentHour has moved past it.
// The bucket holding currentHour is still in progress.
func HasElapsed(b Bucket, currentHour int) bool {
	return HasStarted(b, currentHour) && !IsCurrentBucket(b, currentHour)
}
