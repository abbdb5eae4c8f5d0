package authevents

import (
	"context"
	"time"

	"github.com/teleinformatics/campus-core/internal/auth"
)

// PointWriter is satisfied by *influxdb.Client.
type PointWriter interface {
	WriteAuthEvent(kind, reason string, at time.Time)
}

// InfluxSink writes one time-series point per event.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink creates an InfluxDB sink.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// Record writes ev. The underlying writer batches and never blocks.
func (s *InfluxSink) Record(_ context.Context, ev auth.Event) {
	s.w.WriteAuthEvent(string(ev.Kind), ev.Reason, ev.At)
}
