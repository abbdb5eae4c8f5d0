package authevents

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teleinformatics/campus-core/internal/audit"
	"github.com/teleinformatics/campus-core/internal/auth"
)

// DefaultAuditBuffer is the default capacity of the audit channel.
// Events beyond it are dropped rather than applying back-pressure to
// requests.
const DefaultAuditBuffer = 256

// auditSource is the source column written for every auth event.
const auditSource = "auth"

// AuditSink writes events to the audit trail asynchronously. Writes are
// serialised through one goroutine, matching SQLite's single-writer model.
type AuditSink struct {
	repo   audit.Repository
	logger *slog.Logger
	ch     chan *audit.Entry

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewAuditSink creates a sink with the given buffer size. Call Start to
// begin draining and Close to flush on shutdown.
func NewAuditSink(repo audit.Repository, logger *slog.Logger, buffer int) *AuditSink {
	if buffer <= 0 {
		buffer = DefaultAuditBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditSink{
		repo:   repo,
		logger: logger,
		ch:     make(chan *audit.Entry, buffer),
		done:   make(chan struct{}),
	}
}

// Record enqueues ev. It never blocks; a full buffer drops the event with
// a warning.
func (s *AuditSink) Record(_ context.Context, ev auth.Event) {
	entry := &audit.Entry{
		Action:     string(ev.Kind),
		IdentityID: ev.IdentityID,
		Reason:     ev.Reason,
		RemoteAddr: ev.RemoteAddr,
		Source:     auditSource,
		CreatedAt:  ev.At.UTC(),
	}

	select {
	case s.ch <- entry:
	default:
		s.logger.Warn("audit channel full, dropping entry", "action", entry.Action)
	}
}

// Start launches the drain goroutine. It stops when ctx is cancelled or
// Close is called, writing whatever is still buffered first.
func (s *AuditSink) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		defer close(s.done)
		s.drain(ctx)
	}()
}

// Close stops the drain goroutine and waits for buffered entries to be
// written. It is safe to call more than once.
func (s *AuditSink) Close() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
	})
}

func (s *AuditSink) drain(ctx context.Context) {
	for {
		select {
		case entry := <-s.ch:
			s.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.ch:
					s.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditSink) write(entry *audit.Entry) {
	// The request context may already be gone; audit writes outlive it.
	if err := s.repo.Create(context.Background(), entry); err != nil {
		s.logger.Error("audit write failed",
			"action", entry.Action,
			"error", err,
		)
	}
}
