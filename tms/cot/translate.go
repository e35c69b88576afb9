package cot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"aisbridge/tms/aisstream"
	"aisbridge/tms/config"
	"aisbridge/tms/util/clock"

	"github.com/google/uuid"
)

// TimeLayout is the upstream time_utc format. The feed sends up to nine
// fractional digits; fewer (or none) are accepted too.
const TimeLayout = "2006-01-02 15:04:05.999999999 -0700 MST"

// Translator maps position reports to CoT events. The zero value is not
// usable, see NewTranslator.
type Translator struct {
	// Source of "now", used for the event time and as the start fallback
	Clock clock.C
	// Generates the uid of reports without an MMSI
	NewUID func() string
}

func NewTranslator() *Translator {
	return &Translator{
		Clock:  &clock.Real{},
		NewUID: uuid.NewString,
	}
}

// Translate never fails: every missing or unparseable field has a fallback.
//
// When the MMSI is absent the uid is a fresh random identifier, so two such
// reports never correlate into one track, and the remarks show an empty MMSI.
func (t *Translator) Translate(r aisstream.PositionReport, cfg config.Config) Event {
	now := t.Clock.Now().UTC()
	start := ParseTime(r.TimeUTC, now)

	uid := r.MMSI
	if !r.HasMMSI() {
		uid = t.NewUID()
	}

	return Event{
		Version: Version,
		UID:     uid,
		Type:    cfg.CotType,
		How:     HowMachineGenerated,
		Time:    now,
		Start:   start,
		Stale:   start.Add(cfg.StaleTime),
		Point: Point{
			Lat: coordinate(r.Latitude),
			Lon: coordinate(r.Longitude),
			Hae: Unknown,
			Ce:  Unknown,
			Le:  Unknown,
		},
		Detail: Detail{
			Track: Track{
				Course: FormatDecimal(r.CourseOverGround),
				Speed:  FormatDecimal(r.SpeedOverGround),
			},
			Contact: Contact{Callsign: r.ShipName},
			Remarks: fmt.Sprintf("Name: %s, MMSI: %s", r.ShipName, r.MMSI),
		},
	}
}

// ParseTime parses an upstream timestamp into UTC, or returns fallback.
func ParseTime(s string, fallback time.Time) time.Time {
	ts, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return ts.UTC()
}

// FormatDecimal prints v in plain decimal notation, always with a fraction:
// 180 -> "180.0", 12.5 -> "12.5".
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func coordinate(v *float64) string {
	if v == nil {
		return Unknown
	}
	return FormatDecimal(*v)
}
