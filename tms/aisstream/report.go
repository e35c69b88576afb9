// Package aisstream speaks the aisstream.io websocket protocol: the
// subscription request sent on connect and the JSON frames received after it.
package aisstream

// MessageTypePositionReport is the only message type the bridge consumes.
const MessageTypePositionReport = "PositionReport"

// PositionReport is the decoded form of one PositionReport frame. Absent
// upstream values are represented explicitly:
//   - MMSI is empty when the frame carried none (or carried 0)
//   - Latitude/Longitude are nil when unknown, never 0
//   - CourseOverGround/SpeedOverGround are 0 when absent
//   - TimeUTC is the raw upstream string, possibly empty
type PositionReport struct {
	MessageType      string
	MMSI             string
	Latitude         *float64
	Longitude        *float64
	ShipName         string
	CourseOverGround float64
	SpeedOverGround  float64
	TimeUTC          string
}

// HasMMSI reports whether the vessel identity is known.
func (r PositionReport) HasMMSI() bool {
	return r.MMSI != ""
}
