package chatsync

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"healthcare-chat/apperror"
	"healthcare-chat/enum"
	"healthcare-chat/session"
)

type SendStatus string

const (
	SendStatusSent          SendStatus = "sent"
	SendStatusAlreadyExists SendStatus = "already_exists"
)

type SendResult struct {
	Status SendStatus
	// Edge is nil when the pair already had an active edge.
	Edge *FriendEdge
}

// listeners holds invalidation callbacks shared by the friend manager and
// the room directory.
type listeners struct {
	mu  sync.Mutex
	fns []func()
}

func (l *listeners) add(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners) fire() {
	l.mu.Lock()
	fns := slices.Clone(l.fns)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type FriendManager struct {
	Logger *logrus.Logger

	collab  Collaborator
	session *session.Session
	timeout time.Duration

	mu       sync.RWMutex
	friends  []FriendEdge
	requests []FriendEdge

	invalidated listeners
}

func NewFriendManager(collab Collaborator, s *session.Session, log *logrus.Logger, timeout time.Duration) *FriendManager {
	if timeout <= 0 {
		timeout = DefaultOptions().RequestTimeout
	}
	return &FriendManager{
		Logger:  log,
		collab:  collab,
		session: s,
		timeout: timeout,
	}
}

// OnInvalidate registers fn to run after the friend lists changed on the
// server.
func (m *FriendManager) OnInvalidate(fn func()) {
	m.invalidated.add(fn)
}

func (m *FriendManager) ListFriends(ctx context.Context) ([]FriendEdge, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	list, err := m.collab.ListFriends(ctx)
	if err != nil {
		reportAuth(m.session, err)
		return nil, err
	}
	me := m.session.UserID()
	friends := slices.DeleteFunc(fromFriendResponses(list), func(e FriendEdge) bool {
		return e.Status != enum.FriendStatusAccepted || (e.Sender.ID != me && e.Receiver.ID != me)
	})

	m.mu.Lock()
	m.friends = friends
	m.mu.Unlock()
	return slices.Clone(friends), nil
}

func (m *FriendManager) ListIncomingRequests(ctx context.Context) ([]FriendEdge, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	list, err := m.collab.ListFriendRequests(ctx)
	if err != nil {
		reportAuth(m.session, err)
		return nil, err
	}
	me := m.session.UserID()
	requests := slices.DeleteFunc(fromFriendResponses(list), func(e FriendEdge) bool {
		return e.Status != enum.FriendStatusPending || e.Receiver.ID != me
	})

	m.mu.Lock()
	m.requests = requests
	m.mu.Unlock()
	return slices.Clone(requests), nil
}

// SendFriendRequest asks targetUserID for friendship. An existing pending or
// accepted edge is reported as SendStatusAlreadyExists, not as an error.
func (m *FriendManager) SendFriendRequest(ctx context.Context, targetUserID int64) (SendResult, error) {
	const op = "SendFriendRequest"
	if targetUserID <= 0 {
		return SendResult{}, apperror.Validation(op, "invalid user id")
	}
	if targetUserID == m.session.UserID() {
		return SendResult{}, apperror.Validation(op, "cannot send a friend request to yourself")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	created, err := m.collab.SendFriendRequest(ctx, targetUserID)
	if apperror.IsConflict(err) {
		return SendResult{Status: SendStatusAlreadyExists}, nil
	}
	if err != nil {
		reportAuth(m.session, err)
		return SendResult{}, err
	}
	edge := fromFriendResponse(created)
	return SendResult{Status: SendStatusSent, Edge: &edge}, nil
}

// RespondToRequest accepts or rejects an incoming request, then refetches
// both lists and notifies the listeners.
func (m *FriendManager) RespondToRequest(ctx context.Context, edgeID int64, action enum.FriendAction) (FriendEdge, error) {
	const op = "RespondToRequest"
	if _, ok := action.Status(); !ok {
		return FriendEdge{}, apperror.Validation(op, "action must be accept or reject")
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	updated, err := m.collab.RespondFriendRequest(callCtx, edgeID, action)
	cancel()
	if err != nil {
		reportAuth(m.session, err)
		return FriendEdge{}, err
	}

	if err := m.refresh(ctx); err != nil {
		m.Logger.WithError(err).Warn("friend lists not refreshed after response")
	}
	m.invalidated.fire()
	return fromFriendResponse(updated), nil
}

func (m *FriendManager) refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := m.ListFriends(ctx)
		return err
	})
	g.Go(func() error {
		_, err := m.ListIncomingRequests(ctx)
		return err
	})
	return g.Wait()
}

// Friends returns the last fetched friend list.
func (m *FriendManager) Friends() []FriendEdge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.friends)
}

// IncomingRequests returns the last fetched incoming request list.
func (m *FriendManager) IncomingRequests() []FriendEdge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.requests)
}
