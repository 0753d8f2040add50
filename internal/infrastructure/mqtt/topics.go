package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "electricworld"

// Topics builds Electric World topic names under one prefix.
//
//	topics := mqtt.NewTopics("electricworld")
//	topics.Event("device/created")
//	// Returns: "electricworld/event/device/created"
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder. Surrounding slashes are trimmed from
// prefix; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// Event returns the topic for one event kind. Kinds already contain a
// slash, so device/created becomes <prefix>/event/device/created.
func (t Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", t.prefix, kind)
}

// DeviceState returns the retained topic carrying a device's latest state.
//
// Example: electricworld/device/gen-1/state
func (t Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", t.prefix, deviceID)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: electricworld/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}
