package pollscheduler

import "github.com/txfleet/txcore/internal/models"

// deriveDeviceStatus computes {online, last_seen, error_count} from the
// last 10 results for a device (§4.5): online iff fewer than 5 of those 10
// failed and at least one succeeded.
func deriveDeviceStatus(deviceID string, recent []models.DeviceResult) models.DeviceStatus {
	status := models.DeviceStatus{TransmitterID: deviceID}

	if len(recent) > 10 {
		recent = recent[:10]
	}

	var failures, successes int
	for _, r := range recent {
		if r.Success {
			successes++
			if r.Timestamp.After(status.LastSeen) {
				status.LastSeen = r.Timestamp
			}
		} else {
			failures++
		}
	}

	status.ErrorCount = failures
	status.Online = failures < 5 && successes >= 1
	return status
}
