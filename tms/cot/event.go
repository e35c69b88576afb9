// Package cot builds Cursor-on-Target events from AIS position reports.
package cot

import (
	"encoding/xml"
	"time"
)

const (
	Version = "2.0"
	// HowMachineGenerated marks events produced by software from sensor data.
	HowMachineGenerated = "m-g"
	// Unknown is the CoT sentinel for values nobody measured. A missing
	// coordinate renders as Unknown, never as 0.
	Unknown = "9999999.0"
)

// Event is a CoT event. Build it with a Translator and treat it as a value.
type Event struct {
	XMLName xml.Name  `xml:"event"`
	Version string    `xml:"version,attr"`
	UID     string    `xml:"uid,attr"`
	Type    string    `xml:"type,attr"`
	How     string    `xml:"how,attr"`
	Time    time.Time `xml:"time,attr"`
	Start   time.Time `xml:"start,attr"`
	Stale   time.Time `xml:"stale,attr"`
	Point   Point     `xml:"point"`
	Detail  Detail    `xml:"detail"`
}

// Point carries decimal degree strings so Unknown can be expressed.
// Height and error ellipse are always Unknown for AIS.
type Point struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
	Hae string `xml:"hae,attr"`
	Ce  string `xml:"ce,attr"`
	Le  string `xml:"le,attr"`
}

type Detail struct {
	Track   Track   `xml:"track"`
	Contact Contact `xml:"contact"`
	Remarks string  `xml:"remarks"`
}

type Track struct {
	Course string `xml:"course,attr"`
	Speed  string `xml:"speed,attr"`
}

type Contact struct {
	Callsign string `xml:"callsign,attr"`
}

// XML renders the event as a standalone <event> document.
func (e Event) XML() (string, error) {
	data, err := xml.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
