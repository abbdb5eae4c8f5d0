// Package authevents delivers authentication events to their consumers.
//
// The authenticator and the request gate report each outcome (registered,
// login, login_failed, token_rejected...) to a single auth.EventSink.
// This package provides the sinks behind it:
//
//   - AuditSink persists events to the audit trail through a buffered
//     channel drained by one writer goroutine
//   - MQTTSink publishes events as JSON on {prefix}/auth/events/{kind}
//   - MetricsSink counts events in Prometheus
//   - InfluxSink writes one point per event to InfluxDB
//   - LogSink logs rejections at debug level
//
// Multi fans one event out to several sinks. No sink ever blocks the
// caller on I/O or influences the authentication decision.
package authevents
