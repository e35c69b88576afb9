package aisstream

import (
	"strings"

	"aisbridge/tms/log"
	"aisbridge/tms/util/ais"

	"github.com/buger/jsonparser"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrUpstream wraps an error frame sent by the stream service, usually
	// in reply to a rejected subscription.
	ErrUpstream = errors.New("aisstream error")
	// ErrMalformed wraps frames which are not a JSON object.
	ErrMalformed = errors.New("malformed frame")
)

type frame struct {
	MessageType string    `json:"MessageType"`
	MetaData    *metaData `json:"MetaData"`
	Message     struct {
		PositionReport *positionReport `json:"PositionReport"`
	} `json:"Message"`
}

type metaData struct {
	MMSI      mmsi     `json:"MMSI"`
	ShipName  *string  `json:"ShipName"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeUTC   *string  `json:"time_utc"`
}

type positionReport struct {
	Cog *float64 `json:"Cog"`
	Sog *float64 `json:"Sog"`
}

// mmsi accepts the identifier as a JSON number or string. Numeric values
// are rendered with nine digits either way, so one vessel keeps one uid
// however the feed encodes it. 0 and null mean absent.
type mmsi string

func (m *mmsi) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	var s string
	switch {
	case raw == "null":
	case strings.HasPrefix(raw, `"`):
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = ais.NormalizeMMSI(s)
	default:
		v, err := ais.ParseMMSI(raw)
		if err != nil {
			return err
		}
		s = ais.FormatMMSI(v)
	}
	if s == ais.FormatMMSI(0) {
		s = ""
	}
	*m = mmsi(s)
	return nil
}

// Decode parses one raw frame. It returns (nil, nil) for frames the bridge
// ignores: other message types and position reports without MetaData.
// Malformed frames and upstream error frames return an error.
func Decode(data []byte) (*PositionReport, error) {
	if msg, err := jsonparser.GetString(data, "error"); err == nil {
		return nil, errors.Wrap(ErrUpstream, msg)
	}

	msgType, err := jsonparser.GetString(data, "MessageType")
	if err != nil {
		if err == jsonparser.KeyPathNotFoundError && json.Valid(data) {
			return nil, nil
		}
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if msgType != MessageTypePositionReport {
		return nil, nil
	}

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "unable to decode position report")
	}
	if f.MetaData == nil {
		log.Debug("AIS position report without MetaData, dropped")
		return nil, nil
	}

	md := f.MetaData
	report := &PositionReport{
		MessageType: f.MessageType,
		MMSI:        string(md.MMSI),
		Latitude:    md.Latitude,
		Longitude:   md.Longitude,
	}
	if md.ShipName != nil {
		report.ShipName = strings.TrimSpace(*md.ShipName)
	}
	if md.TimeUTC != nil {
		report.TimeUTC = *md.TimeUTC
	}
	if pr := f.Message.PositionReport; pr != nil {
		if pr.Cog != nil {
			report.CourseOverGround = *pr.Cog
		}
		if pr.Sog != nil {
			report.SpeedOverGround = *pr.Sog
		}
	}
	return report, nil
}
