package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// AuthEventMeasurement is the measurement holding authentication outcomes.
const AuthEventMeasurement = "auth_events"

// WriteAuthEvent records one authentication outcome. Kind and reason are
// tags (both low cardinality); identity ids are deliberately not written.
//
//	client.WriteAuthEvent("login_failed", "bad_password", time.Now())
func (c *Client) WriteAuthEvent(kind, reason string, at time.Time) {
	tags := map[string]string{"kind": kind}
	if reason != "" {
		tags["reason"] = reason
	}
	c.WritePointWithTime(AuthEventMeasurement, tags, map[string]any{"count": 1}, at)
}

// WritePoint writes a point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point at timestamp. Points written while
// disconnected are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
