package aisstream

import (
	"aisbridge/tms/config"
)

// Subscription is the only control message the bridge sends, once per
// connection, right after the websocket is open.
type Subscription struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string      `json:"FilterMessageTypes"`
}

func NewSubscription(cfg config.Config) Subscription {
	return Subscription{
		APIKey:             cfg.APIKey,
		BoundingBoxes:      cfg.BoundingBoxes,
		FilterMessageTypes: []string{MessageTypePositionReport},
	}
}

func (s Subscription) Marshal() ([]byte, error) {
	return json.Marshal(s)
}
