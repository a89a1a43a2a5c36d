package chatsync

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"healthcare-chat/apperror"
	"healthcare-chat/session"
)

type RoomDirectory struct {
	Logger *logrus.Logger

	collab  Collaborator
	session *session.Session
	timeout time.Duration

	mu    sync.RWMutex
	rooms []ChatRoom

	invalidated listeners
}

func NewRoomDirectory(collab Collaborator, s *session.Session, log *logrus.Logger, timeout time.Duration) *RoomDirectory {
	if timeout <= 0 {
		timeout = DefaultOptions().RequestTimeout
	}
	return &RoomDirectory{
		Logger:  log,
		collab:  collab,
		session: s,
		timeout: timeout,
	}
}

// OnInvalidate registers fn to run after a room was started.
func (d *RoomDirectory) OnInvalidate(fn func()) {
	d.invalidated.add(fn)
}

// ListRooms fetches the rooms of the current user. Private rooms carry the
// other participant in OtherUser.
func (d *RoomDirectory) ListRooms(ctx context.Context) ([]ChatRoom, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	list, err := d.collab.ListRooms(ctx)
	if err != nil {
		reportAuth(d.session, err)
		return nil, err
	}
	me := d.session.UserID()
	rooms := make([]ChatRoom, 0, len(list))
	for _, room := range list {
		rooms = append(rooms, fromRoomResponse(room, me))
	}

	d.mu.Lock()
	d.rooms = rooms
	d.mu.Unlock()
	return slices.Clone(rooms), nil
}

// StartChat returns the id of the private room with targetUserID, created by
// the collaborator when missing. The answer always comes from the server.
func (d *RoomDirectory) StartChat(ctx context.Context, targetUserID int64) (int64, error) {
	const op = "StartChat"
	if targetUserID <= 0 {
		return 0, apperror.Validation(op, "invalid user id")
	}
	if targetUserID == d.session.UserID() {
		return 0, apperror.Validation(op, "cannot start a chat with yourself")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started, err := d.collab.StartChat(ctx, targetUserID)
	if err != nil {
		reportAuth(d.session, err)
		d.Logger.WithError(err).Errorf("start chat with user %d failed", targetUserID)
		return 0, err
	}

	if _, known := d.FindPrivateRoom(targetUserID); !known {
		d.invalidated.fire()
	}
	return started.RoomID, nil
}

// FindPrivateRoom looks the last room list up for a private room with
// targetUserID. It is a display hint; StartChat is the source of truth.
func (d *RoomDirectory) FindPrivateRoom(targetUserID int64) (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, room := range d.rooms {
		if room.IsPrivate && room.OtherUser != nil && room.OtherUser.ID == targetUserID {
			return room.ID, true
		}
	}
	return 0, false
}

// Rooms returns the last fetched room list.
func (d *RoomDirectory) Rooms() []ChatRoom {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.rooms)
}
