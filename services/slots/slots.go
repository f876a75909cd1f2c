// Package slots implements the hour-slot arithmetic of a day schedule.
// Slot labels look like "10:00am" or "18:00pm"; minutes are always 00.
package slots

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxIterations bounds slot generation to one full day.
const maxIterations = 24

// ParseHour returns the 0-23 hour of a slot label. It accepts the label
// format produced by Label ("09:00am", "18:00pm") as well as 12-hour input
// ("6:00pm", "12:00am") and bare 24-hour times ("18:00").
func ParseHour(label string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	suffix := ""
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		suffix = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hourPart, minutePart, ok := strings.Cut(s, ":")
	if !ok || hourPart == "" || len(hourPart) > 2 || minutePart != "00" {
		return 0, fmt.Errorf("invalid slot label %q", label)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid slot label %q", label)
	}

	switch suffix {
	case "pm":
		if hour >= 1 && hour <= 11 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, nil
}

// Label renders an hour as a slot label. The suffix derives from the hour alone.
func Label(hour int) string {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	return fmt.Sprintf("%02d:00%s", hour, suffix)
}

// Valid reports whether label parses as a slot label.
func Valid(label string) bool {
	_, err := ParseHour(label)
	return err == nil
}

// GenerateSlots lists the hourly labels from startTime to endTime inclusive.
// The cursor wraps from 23 to 0 and stops once it reaches or passes end, so a
// start later than end yields only the start slot.
func GenerateSlots(startTime, endTime string) ([]string, error) {
	start, err := ParseHour(startTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseHour(endTime)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, maxIterations)
	cur := start
	for i := 0; i < maxIterations; i++ {
		out = append(out, Label(cur))
		if cur >= end {
			break
		}
		cur++
		if cur == 24 {
			cur = 0
		}
	}
	return out, nil
}

// LongestFreeRun counts the leading run of consecutive hours. It stops at the
// first gap and does not look at later runs.
func LongestFreeRun(slots []string) int {
	if len(slots) == 0 {
		return 0
	}
	prev, err := ParseHour(slots[0])
	if err != nil {
		return 0
	}
	run := 1
	for _, s := range slots[1:] {
		h, err := ParseHour(s)
		if err != nil || h != prev+1 {
			break
		}
		run++
		prev = h
	}
	return run
}

// SlotsFromHour keeps every slot whose hour is at or after startHour.
func SlotsFromHour(slots []string, startHour int) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if h, err := ParseHour(s); err == nil && h >= startHour {
			out = append(out, s)
		}
	}
	return out
}

// SlotCount is the number of hourly slots a duration in minutes occupies.
func SlotCount(durationMinutes float64) int {
	if durationMinutes <= 0 {
		return 0
	}
	return int(math.Ceil(durationMinutes / 60))
}

// ConsumedHours returns the hours a booking starting at startHour occupies.
func ConsumedHours(startHour int, durationMinutes float64) []int {
	n := SlotCount(durationMinutes)
	hours := make([]int, 0, n)
	for i := 0; i < n; i++ {
		hours = append(hours, startHour+i)
	}
	return hours
}

// ConsumeSlots removes the slots covered by a booking of durationMinutes
// starting at startHour. Order of the remaining slots is preserved.
func ConsumeSlots(slots []string, startHour int, durationMinutes float64) []string {
	blocked := make(map[int]struct{})
	for _, h := range ConsumedHours(startHour, durationMinutes) {
		blocked[h] = struct{}{}
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		h, err := ParseHour(s)
		if err == nil {
			if _, hit := blocked[h]; hit {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// StartTimesFor lists the labels at which a booking of durationMinutes can
// begin, judged by the leading free run from each candidate hour.
func StartTimesFor(slots []string, durationMinutes float64) []string {
	need := SlotCount(durationMinutes)
	out := make([]string, 0, len(slots))
	if need == 0 {
		return out
	}
	for _, s := range slots {
		h, err := ParseHour(s)
		if err != nil {
			continue
		}
		if LongestFreeRun(SlotsFromHour(slots, h)) >= need {
			out = append(out, s)
		}
	}
	return out
}

// Covers reports whether a booking starting at startTime for durationMinutes
// fits entirely inside the free slots.
func Covers(slots []string, startTime string, durationMinutes float64) (bool, error) {
	h, err := ParseHour(startTime)
	if err != nil {
		return false, err
	}
	from := SlotsFromHour(slots, h)
	if len(from) == 0 {
		return false, nil
	}
	if first, _ := ParseHour(from[0]); first != h {
		return false, nil
	}
	return LongestFreeRun(from) >= SlotCount(durationMinutes), nil
}

// Difference returns the labels of a whose hour does not appear in b.
func Difference(a, b []string) []string {
	seen := make(map[int]struct{}, len(b))
	for _, s := range b {
		if h, err := ParseHour(s); err == nil {
			seen[h] = struct{}{}
		}
	}
	out := make([]string, 0, len(a))
	for _, s := range a {
		h, err := ParseHour(s)
		if err != nil {
			continue
		}
		if _, ok := seen[h]; !ok {
			out = append(out, s)
		}
	}
	return out
}
