// Package config holds the configuration snapshot of the AIS stream bridge and
// loads it from the host application's config.yml.
package config

import (
	"regexp"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	DefaultURL      = "wss://stream.aisstream.io/v0/stream"
	DefaultExchange = "cot_controller"
	DefaultCotType  = "a-u-S-X-M"
)

var ErrInvalid = errors.New("invalid configuration")

// CoT types are "a-<affiliation>-<dimension>" with optional function codes.
var cotTypePattern = regexp.MustCompile(`^a-[puafnshjko]-[A-Za-z](-[A-Za-z0-9_]+)*$`)

// Reconnect configures the delay between stream connections. A zero
// InitialDelay reconnects immediately.
type Reconnect struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Config is an immutable snapshot handed to the stream worker at start.
type Config struct {
	// Upstream stream endpoint
	URL string
	// aisstream.io API key
	APIKey string
	// Rectangles as pairs of [lat, lon] corners
	BoundingBoxes [][][]float64
	// CoT type of every produced event, e.g. a-u-S-X-M
	CotType string
	// Validity window added to an event's start to get its stale time
	StaleTime time.Duration
	// Originating node identifier sent with every event
	NodeID string
	// Broker exchange the events are published to
	Exchange string
	// Message expiration on the broker, zero for none
	TTL time.Duration
	// Maximum silence on the stream before the connection is recycled,
	// zero for none
	ReadTimeout time.Duration
	Reconnect   Reconnect
}

// Default mirrors the plugin defaults shipped with the host application.
func Default() Config {
	return Config{
		URL:    DefaultURL,
		APIKey: "",
		BoundingBoxes: [][][]float64{
			{{25.835302, -80.207729}, {25.602700, -79.879297}},
			{{33.772292, -118.356139}, {33.673490, -118.095731}},
		},
		CotType:   DefaultCotType,
		StaleTime: time.Hour,
		Exchange:  DefaultExchange,
		TTL:       time.Minute,
		Reconnect: Reconnect{
			InitialDelay: time.Second,
			Multiplier:   2,
			MaxDelay:     30 * time.Second,
		},
	}
}

// Clone returns a deep copy so a running worker never shares slices with
// its caller.
func (c Config) Clone() Config {
	boxes := make([][][]float64, len(c.BoundingBoxes))
	for i, box := range c.BoundingBoxes {
		boxes[i] = make([][]float64, len(box))
		for j, corner := range box {
			boxes[i][j] = append([]float64(nil), corner...)
		}
	}
	c.BoundingBoxes = boxes
	return c
}

// Validate reports every problem of the snapshot at once.
func (c Config) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalid, format, args...))
	}

	if c.URL == "" {
		fail("stream url is empty")
	}
	if c.APIKey == "" {
		fail("api key is empty")
	}
	if len(c.BoundingBoxes) == 0 {
		fail("no bounding boxes")
	}
	for i, box := range c.BoundingBoxes {
		if len(box) != 2 {
			fail("bounding box %d has %d corners, want 2", i, len(box))
			continue
		}
		for j, corner := range box {
			if len(corner) != 2 {
				fail("bounding box %d corner %d has %d values, want [lat, lon]", i, j, len(corner))
				continue
			}
			if corner[0] < -90 || corner[0] > 90 {
				fail("bounding box %d corner %d latitude %v out of range", i, j, corner[0])
			}
			if corner[1] < -180 || corner[1] > 180 {
				fail("bounding box %d corner %d longitude %v out of range", i, j, corner[1])
			}
		}
	}
	if !cotTypePattern.MatchString(c.CotType) {
		fail("cot type %q does not match a-<affiliation>-<dimension>", c.CotType)
	}
	if c.StaleTime < 0 {
		fail("stale time %v is negative", c.StaleTime)
	}
	if c.NodeID == "" {
		fail("node id is empty")
	}
	if c.Exchange == "" {
		fail("exchange is empty")
	}
	if c.TTL < 0 {
		fail("ttl %v is negative", c.TTL)
	}
	if c.ReadTimeout < 0 {
		fail("read timeout %v is negative", c.ReadTimeout)
	}
	if c.Reconnect.InitialDelay < 0 || c.Reconnect.MaxDelay < 0 {
		fail("reconnect delays must not be negative")
	}
	if c.Reconnect.InitialDelay > 0 && c.Reconnect.MaxDelay > 0 && c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		fail("reconnect max delay %v is below initial delay %v", c.Reconnect.MaxDelay, c.Reconnect.InitialDelay)
	}
	if c.Reconnect.Multiplier != 0 && c.Reconnect.Multiplier < 1 {
		fail("reconnect multiplier %v is below 1", c.Reconnect.Multiplier)
	}
	return result.ErrorOrNil()
}
