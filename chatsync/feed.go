package chatsync

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"healthcare-chat/apperror"
	"healthcare-chat/enum"
)

// Snapshot is one consistent read of the three feed tabs.
type Snapshot struct {
	Chats    []ChatRoom
	Friends  []FriendEdge
	Requests []FriendEdge
	// Unread counts chats with a message from someone else newer than the
	// last time the room was open.
	Unread      int
	RefreshedAt time.Time
}

func (s Snapshot) Count(tab enum.Tab) int {
	switch tab {
	case enum.TabChats:
		return len(s.Chats)
	case enum.TabFriends:
		return len(s.Friends)
	case enum.TabRequests:
		return len(s.Requests)
	}
	return 0
}

// ActivityFeed composes the directory and the friend manager into the
// chats / friends / requests tabs. It holds no state of its own beyond the
// last snapshot.
type ActivityFeed struct {
	Logger *logrus.Logger

	directory *RoomDirectory
	friends   *FriendManager
	engine    *Engine
	interval  time.Duration

	mu       sync.RWMutex
	snapshot Snapshot

	trigger chan struct{}
	changes notifier
}

// NewActivityFeed wires the feed to the invalidation events of directory and
// friends. engine may be nil, then Unread stays zero.
func NewActivityFeed(directory *RoomDirectory, friends *FriendManager, engine *Engine, log *logrus.Logger, interval time.Duration) *ActivityFeed {
	if interval <= 0 {
		interval = DefaultOptions().PollInterval
	}
	f := &ActivityFeed{
		Logger:    log,
		directory: directory,
		friends:   friends,
		engine:    engine,
		interval:  interval,
		trigger:   make(chan struct{}, 1),
	}
	directory.OnInvalidate(f.invalidate)
	friends.OnInvalidate(f.invalidate)
	return f
}

func (f *ActivityFeed) invalidate() {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches the three lists concurrently. On error the previous
// snapshot is kept.
func (f *ActivityFeed) Refresh(ctx context.Context) (Snapshot, error) {
	var next Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rooms, err := f.directory.ListRooms(gctx)
		next.Chats = rooms
		return err
	})
	g.Go(func() error {
		friends, err := f.friends.ListFriends(gctx)
		next.Friends = friends
		return err
	})
	g.Go(func() error {
		requests, err := f.friends.ListIncomingRequests(gctx)
		next.Requests = requests
		return err
	})
	if err := g.Wait(); err != nil {
		return f.Snapshot(), err
	}

	if f.engine != nil {
		for _, room := range next.Chats {
			if f.engine.HasUnread(room.ID) {
				next.Unread++
			}
		}
	}
	next.RefreshedAt = time.Now()

	f.mu.Lock()
	f.snapshot = next
	f.mu.Unlock()
	f.changes.notify()
	return next, nil
}

func (f *ActivityFeed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// Subscribe returns a channel signalled after every successful refresh.
// Unsubscribe with the returned func.
func (f *ActivityFeed) Subscribe() (<-chan struct{}, func()) {
	ch := f.changes.subscribe()
	return ch, func() { f.changes.unsubscribe(ch) }
}

// Run refreshes right away, then on every interval tick and invalidation,
// until ctx ends or the session is rejected.
func (f *ActivityFeed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if _, err := f.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if apperror.IsAuth(err) {
				return err
			}
			f.Logger.WithError(err).Warn("activity feed refresh failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-f.trigger:
		}
	}
}
