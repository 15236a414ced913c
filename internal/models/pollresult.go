package models

import "time"

// DeviceResult is one poll attempt outcome for a transmitter, as kept in
// the scheduler's bounded per-device ring (§4.5). It is the in-memory twin
// of TransmitterMetricRow — the scheduler appends one DeviceResult per
// poll attempt that passes gating (success or failure) independently of
// whether that attempt's metric row made it to the store. Ticks skipped by
// gating or by an in-flight poll for the same device record nothing.
type DeviceResult struct {
	TransmitterID string    `json:"transmitterId"`
	Timestamp     time.Time `json:"timestamp"`
	Success       bool      `json:"success"`
	Metric        *TransmitterMetricRow `json:"metric,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// DeviceStatus is the derived liveness summary returned by
// pollscheduler.Scheduler.DeviceStatus, computed from the last 10 results
// for a device: online iff fewer than 5 of those 10 failed and at least
// one succeeded.
type DeviceStatus struct {
	TransmitterID string    `json:"transmitterId"`
	Online        bool      `json:"online"`
	LastSeen      time.Time `json:"lastSeen"`
	ErrorCount    int       `json:"errorCount"`
}
