package authevents

import (
	"context"
	"log/slog"

	"github.com/teleinformatics/campus-core/internal/auth"
)

// LogSink logs failures and rejections with their internal reason. The
// reason never reaches the HTTP client, so this is where operators see it.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs rejected logins and tokens; successful outcomes are
// already logged by the authenticator.
func (s *LogSink) Record(ctx context.Context, ev auth.Event) {
	switch ev.Kind {
	case auth.EventLoginFailed, auth.EventTokenRejected, auth.EventRegisterConflict:
		s.logger.DebugContext(ctx, "authentication rejected",
			"kind", ev.Kind,
			"reason", ev.Reason,
			"identity_id", ev.IdentityID,
			"remote_addr", ev.RemoteAddr,
		)
	}
}
