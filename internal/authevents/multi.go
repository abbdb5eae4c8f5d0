package authevents

import (
	"context"

	"github.com/teleinformatics/campus-core/internal/auth"
)

type multiSink []auth.EventSink

// Multi returns a sink that forwards each event to every non-nil sink in
// order.
func Multi(sinks ...auth.EventSink) auth.EventSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Record(ctx context.Context, ev auth.Event) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}
