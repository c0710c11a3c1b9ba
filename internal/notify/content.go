package notify

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// NodeOffline builds the notice sent when the sweep finds a silent node.
func NodeOffline(externalID string, lastSeen, now time.Time) Message {
	elapsed := FormatDuration(now.Sub(lastSeen))
	seenAt := lastSeen.UTC().Format(timestampLayout)
	return Message{
		Subject: fmt.Sprintf("Node OFF-line: %s", externalID),
		BodyPlain: fmt.Sprintf(
			"Node - %s - is OFF-line. It was last seen %s ago on %s.",
			externalID, elapsed, seenAt),
		BodyHTML: fmt.Sprintf(
			"Node - <b>%s</b> - is <span style='color:red'><b>OFF-line</b></span>. It was last seen %s ago on %s.",
			externalID, elapsed, seenAt),
	}
}

// NodeOnline builds the notice sent when a previously offline node checks in.
func NodeOnline(externalID string, lastSeen, now time.Time) Message {
	elapsed := FormatDuration(now.Sub(lastSeen))
	onlineAt := now.UTC().Format(timestampLayout)
	return Message{
		Subject: fmt.Sprintf("Node ON-line: %s", externalID),
		BodyPlain: fmt.Sprintf(
			"Node - %s - is ON-line since %s. It was offline for %s.",
			externalID, onlineAt, elapsed),
		BodyHTML: fmt.Sprintf(
			"Node - <b>%s</b> - is <span style='color:green'><b>ON-line</b></span> since %s. It was offline for %s.",
			externalID, onlineAt, elapsed),
	}
}

// TriggerFailed builds the notice for a validation failure edge.
func TriggerFailed(externalID, sensorID, sensorName, validationMessage string, at time.Time) Message {
	stamp := at.UTC().Format(timestampLayout)
	return Message{
		Subject: fmt.Sprintf("Sensor validation FAILED: %s-%s", externalID, sensorName),
		BodyPlain: fmt.Sprintf(
			"Sensor validation FAILED:\nNode ID: %s\nSensor Name: %s\nSensor ID: %s\nTimestamp: %s\nValidation: %s",
			externalID, sensorName, sensorID, stamp, validationMessage),
		BodyHTML: fmt.Sprintf(
			"Sensor validation <span style='color:red'>FAILED</span>.<br>Node ID: %s<br>Sensor Name: %s<br>Sensor ID: %s<br>Timestamp: %s<br>Validation: <b>%s</b>",
			externalID, sensorName, sensorID, stamp, validationMessage),
	}
}

// TriggerRecovered builds the notice for a validation recovery edge.
func TriggerRecovered(externalID, sensorID, sensorName, validationMessage string, at time.Time) Message {
	stamp := at.UTC().Format(timestampLayout)
	return Message{
		Subject: fmt.Sprintf("Sensor validation OK: %s-%s", externalID, sensorName),
		BodyPlain: fmt.Sprintf(
			"Sensor validation SUCCESSFUL:\nNode ID: %s\nSensor Name: %s\nSensor ID: %s\nTimestamp: %s\nValidation: %s",
			externalID, sensorName, sensorID, stamp, validationMessage),
		BodyHTML: fmt.Sprintf(
			"Sensor validation <span style='color:green'>SUCCESSFUL</span>.<br>Node ID: %s<br>Sensor Name: %s<br>Sensor ID: %s<br>Timestamp: %s<br>Validation: <b>%s</b>",
			externalID, sensorName, sensorID, stamp, validationMessage),
	}
}

// FormatDuration renders an elapsed duration as days/hours/minutes/seconds,
// e.g. "1d2h3m4s". Zero and negative durations render as "0s".
func FormatDuration(d time.Duration) string {
	total := int64(d.Seconds())
	if total <= 0 {
		return "0s"
	}
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm", minutes)
	}
	if seconds > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", seconds)
	}
	return b.String()
}
