package models

import "time"

// TransmitterMetricRow is a single time-series observation for a
// transmitter. Composite key is (TransmitterID, Timestamp); rows are
// append-only — no UPDATE or DELETE except by a retention policy outside
// this package.
type TransmitterMetricRow struct {
	TransmitterID   string    `json:"transmitterId"`
	Timestamp       time.Time `json:"timestamp"`
	PowerOutput     *float64  `json:"powerOutput,omitempty"`
	ForwardPower    *float64  `json:"forwardPower,omitempty"`
	ReflectedPower  *float64  `json:"reflectedPower,omitempty"`
	FrequencyMHz    *float64  `json:"frequencyMhz,omitempty"`
	VSWR            *float64  `json:"vswr,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Status          string    `json:"status"` // active | standby | offline | fault | unknown
	RawVarbinds     []Varbind `json:"rawVarbinds"`
	Error           string    `json:"error,omitempty"`
}
