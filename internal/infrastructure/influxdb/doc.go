// Package influxdb writes authentication metrics to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks. Each
// authentication outcome becomes one point in the auth_events
// measurement, tagged by kind and reason, so dashboards can chart login
// failures and rejected tokens over time.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics export is optional
//	}
//	defer client.Close()
//
//	client.WriteAuthEvent("login_failed", "bad_password", time.Now())
//
// # Error Handling
//
// Writes never block the caller. Batch failures are delivered to the
// callback set with SetOnError. Connection and health check errors are
// returned directly.
package influxdb
