package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RoundTo rounds val to the given number of decimal places.
// Ties are resolved on the exact binary value (half-to-even), so the result
// is the closest float64 to the correctly rounded decimal.
func RoundTo(val float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(val, 'f', places, 64), 64)
	if err != nil {
		return val
	}
	return r
}

// RoundDepth rounds a raw depth to 2 decimal places.
func RoundDepth(depth float64) float64 {
	r := RoundTo(depth, 2)
	if r == 0 {
		r = 0 // Drop the sign of -0.
	}
	return r
}

// DepthLabel renders a depth as a file name stem: whole numbers without a
// fractional part ("5"), otherwise the shortest decimal form ("0.49").
func DepthLabel(depth float64) string {
	return strconv.FormatFloat(RoundDepth(depth), 'f', -1, 64)
}

// DepthLabels returns the rounded depths and their labels.
func DepthLabels(depths []float64) ([]float64, []string) {
	rounded := make([]float64, len(depths))
	labels := make([]string, len(depths))
	for i, d := range depths {
		rounded[i] = RoundDepth(d)
		labels[i] = DepthLabel(d)
	}
	return rounded, labels
}

// TimeStyle selects the rendering of a time label.
type TimeStyle int

const (
	// TimeStyleExtended renders "2006-01-02T15:04:05Z".
	TimeStyleExtended TimeStyle = iota
	// TimeStyleCompact renders "20060102T150405Z".
	TimeStyleCompact
)

// Layout returns the time.Format layout of the style.
func (s TimeStyle) Layout() string {
	if s == TimeStyleCompact {
		return "20060102T150405Z"
	}
	return "2006-01-02T15:04:05Z"
}

func (s TimeStyle) String() string {
	if s == TimeStyleCompact {
		return "compact"
	}
	return "extended"
}

// ParseTimeStyle parses "compact" or "extended".
func ParseTimeStyle(name string) (TimeStyle, error) {
	switch strings.ToLower(name) {
	case "", "extended", "iso":
		return TimeStyleExtended, nil
	case "compact", "basic":
		return TimeStyleCompact, nil
	default:
		return 0, fmt.Errorf("unknown time style %q (use compact or extended)", name)
	}
}

// unitSeconds maps CF time unit names to their length in seconds.
var unitSeconds = map[string]float64{
	"seconds": 1, "second": 1, "secs": 1, "sec": 1, "s": 1,
	"minutes": 60, "minute": 60, "mins": 60, "min": 60,
	"hours": 3600, "hour": 3600, "hrs": 3600, "hr": 3600, "h": 3600,
	"days": 86400, "day": 86400, "d": 86400,
}

// Reference date layouts seen in CF "since" clauses. Single-digit fields
// parse against the same layouts.
var referenceLayouts = []string{
	time.RFC3339Nano,
	"2006-1-2T15:4:5Z",
	"2006-1-2T15:4:5",
	"2006-1-2 15:4:5Z07:00",
	"2006-1-2 15:4:5",
	"2006-1-2 15:4",
	"2006-1-2",
}

// ParseTimeUnits parses CF time units such as "hours since 1950-01-01 00:00:00"
// into the unit length and the reference instant (UTC).
func ParseTimeUnits(units string) (time.Duration, time.Time, error) {
	fields := strings.Fields(units)
	if len(fields) < 3 || !strings.EqualFold(fields[1], "since") {
		return 0, time.Time{}, fmt.Errorf("time units %q are not of the form '<unit> since <reference>'", units)
	}
	secs, ok := unitSeconds[strings.ToLower(fields[0])]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", fields[0])
	}

	ref := strings.Join(fields[2:], " ")
	ref = strings.TrimSuffix(ref, " UTC")
	ref = strings.TrimSuffix(ref, " GMT")
	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return time.Duration(secs) * time.Second, t.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unsupported reference date %q", ref)
}

// maxOffsetSeconds keeps offsets well inside int64 and four-digit years.
const maxOffsetSeconds = 1e13

// TimeAt converts a raw time-axis value to a UTC instant floored to whole seconds.
func TimeAt(value float64, units string) (time.Time, error) {
	unit, ref, err := ParseTimeUnits(units)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return time.Time{}, fmt.Errorf("time value %v is not finite", value)
	}
	offset := math.Floor(value * unit.Seconds())
	if math.Abs(offset) > maxOffsetSeconds {
		return time.Time{}, fmt.Errorf("time value %v %s is out of range", value, units)
	}
	t := time.Unix(ref.Unix()+int64(offset), int64(ref.Nanosecond())).UTC().Truncate(time.Second)
	if t.Year() < 0 || t.Year() > 9999 {
		return time.Time{}, fmt.Errorf("time value %v %s is out of range", value, units)
	}
	return t, nil
}

// TimeLabel renders a raw time-axis value as a UTC label in the given style.
// When the value cannot be converted, the raw value is sanitized into a
// usable label instead; TimeLabel never fails.
func TimeLabel(value float64, units string, style TimeStyle) string {
	t, err := TimeAt(value, units)
	if err != nil {
		return SanitizeLabel(strconv.FormatFloat(value, 'f', -1, 64))
	}
	return t.Format(style.Layout())
}

// TimeLabels renders every value of a time axis.
func TimeLabels(values []float64, units string, style TimeStyle) []string {
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = TimeLabel(v, units, style)
	}
	return labels
}

var forbiddenPathChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", " ", "T",
)

// SanitizeLabel replaces characters that cannot appear in a directory name
// and appends the UTC designator "Z" if missing.
func SanitizeLabel(raw string) string {
	s := forbiddenPathChars.Replace(strings.TrimSpace(raw))
	if s == "" || s == "." || s == ".." {
		s = "unknown"
	}
	if !strings.HasSuffix(s, "Z") {
		s += "Z"
	}
	return s
}
