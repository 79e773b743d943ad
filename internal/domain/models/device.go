package models

import "time"

// DeviceMessageType tags frames sent by the capture app over the live feed.
type DeviceMessageType string

const (
	DeviceSample    DeviceMessageType = "sample"
	DeviceShot      DeviceMessageType = "shot"
	DeviceStability DeviceMessageType = "stability"
	DeviceRoundEnd  DeviceMessageType = "round_end"
)

type DeviceMessage struct {
	Type       DeviceMessageType `json:"type"`
	RoundID    string            `json:"round_id"`
	Sample     *LocationSample   `json:"sample,omitempty"`
	Shot       *ShotEvent        `json:"shot,omitempty"`
	Stability  *StabilityWindow  `json:"stability,omitempty"`
	ReceivedAt time.Time         `json:"-"`
}
