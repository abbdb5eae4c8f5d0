package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "campus"

// Topics builds campus-core MQTT topics under a common prefix.
//
//	topics := mqtt.NewTopics("campus")
//	topics.AuthEvent("login_failed") // "campus/auth/events/login_failed"
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder rooted at prefix. Surrounding slashes
// are trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root segment.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// SystemStatus is the retained liveness topic.
func (t Topics) SystemStatus() string {
	return t.Prefix() + "/system/status"
}

// AuthEvent is the topic for one kind of authentication event.
func (t Topics) AuthEvent(kind string) string {
	return fmt.Sprintf("%s/auth/events/%s", t.Prefix(), kind)
}

// AllAuthEvents is the subscription filter matching every auth event.
func (t Topics) AllAuthEvents() string {
	return t.Prefix() + "/auth/events/+"
}

// validatePublishTopic rejects empty topics and MQTT wildcards, which
// brokers refuse on publish.
func validatePublishTopic(topic string) error {
	if topic == "" || strings.ContainsAny(topic, "+#") {
		return ErrInvalidTopic
	}
	return nil
}
