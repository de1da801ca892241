package announce

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/server/broadcast"
	"github.com/palemoky/session-relay/internal/server/session"
	"github.com/palemoky/session-relay/internal/types"
)

// DefaultInterval between two announcement rounds
const DefaultInterval = 2 * time.Second

// StatusSink receives every status dump, e.g. the Redis mirror
type StatusSink interface {
	SaveStatus(ctx context.Context, status protocol.StatusPayload) error
}

// Snapshotter provides a consistent view of connections and sessions
type Snapshotter interface {
	Snapshot() (clients int, sessions []*session.Session)
}

// Announcer periodically pushes diagnostic status to every connection.
// It only reads the stores.
type Announcer struct {
	directory   types.Directory
	store       types.SessionStore
	broadcaster *broadcast.Service
	sink        StatusSink
	snapshotter Snapshotter
	interval    time.Duration
	now         func() time.Time
}

// Option configures an Announcer
type Option func(*Announcer)

// WithSink mirrors every status dump to sink
func WithSink(sink StatusSink) Option {
	return func(a *Announcer) { a.sink = sink }
}

// WithSnapshotter reads each round's view from s instead of the stores
func WithSnapshotter(s Snapshotter) Option {
	return func(a *Announcer) { a.snapshotter = s }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *Announcer) { a.now = now }
}

// New creates an announcer; a non-positive interval falls back to DefaultInterval
func New(directory types.Directory, store types.SessionStore, broadcaster *broadcast.Service, interval time.Duration, opts ...Option) *Announcer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	a := &Announcer{
		directory:   directory,
		store:       store,
		broadcaster: broadcaster,
		interval:    interval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run ticks until ctx is cancelled
func (a *Announcer) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	log.Printf("📣 announcer started, interval %v", a.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("📣 announcer stopped")
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick performs one announcement round: heartbeat, summary, full status
func (a *Announcer) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ announcer tick panicked: %v", r)
		}
	}()

	now := a.now()
	clients, sessions := a.snapshot()

	status := BuildStatus(sessions, now)

	a.broadcaster.BroadcastAll(protocol.HeartbeatPayload{
		MessageType: protocol.OutHeartbeat,
		Text:        "Periodic message from server!",
		ServerTime:  now.UnixMilli(),
	})
	a.broadcaster.BroadcastAll(protocol.SummaryPayload{
		MessageType: protocol.OutSummary,
		Clients:     clients,
		Sessions:    len(sessions),
		Text:        fmt.Sprintf("There are currently %d clients connected across %d sessions.", clients, len(sessions)),
	})
	a.broadcaster.BroadcastAll(status)

	if a.sink != nil {
		if err := a.sink.SaveStatus(ctx, status); err != nil {
			log.Printf("⚠️ status mirror write failed: %v", err)
		}
	}
}

// BuildStatus assembles the full status dump for the given sessions
func BuildStatus(sessions []*session.Session, now time.Time) protocol.StatusPayload {
	infos := make([]protocol.SessionInfo, len(sessions))
	for i, s := range sessions {
		infos[i] = s.ToInfo()
	}
	return protocol.StatusPayload{
		MessageType: protocol.OutStatus,
		Sessions:    infos,
		GeneratedAt: now.UnixMilli(),
	}
}

func (a *Announcer) snapshot() (int, []*session.Session) {
	if a.snapshotter != nil {
		return a.snapshotter.Snapshot()
	}
	return a.directory.Count(), a.store.SnapshotAll()
}
