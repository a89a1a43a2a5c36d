package chatsync

import (
	"errors"
	"fmt"
	"time"

	"healthcare-chat/enum"
)

var ErrIllegalTransition = errors.New("chatsync: illegal pending message transition")

// PendingMessage is a message shown before the server confirmed it.
// It moves from Pending to Confirmed or RolledBack exactly once.
type PendingMessage struct {
	LocalID   int64
	ClientRef string
	RoomID    int64
	Sender    User
	Content   string
	SentAt    time.Time

	status      enum.MessageStatus
	confirmedID int64
	// confirmed ids already visible when the message was sent; the content
	// heuristic never matches them
	baseline map[int64]struct{}
}

func newPendingMessage(localID, roomID int64, sender User, content, clientRef string, sentAt time.Time) *PendingMessage {
	return &PendingMessage{
		LocalID:   localID,
		ClientRef: clientRef,
		RoomID:    roomID,
		Sender:    sender,
		Content:   content,
		SentAt:    sentAt,
		status:    enum.MessageStatusPending,
	}
}

func (p *PendingMessage) Status() enum.MessageStatus {
	return p.status
}

// ConfirmedID is the server id once Confirmed, zero before.
func (p *PendingMessage) ConfirmedID() int64 {
	return p.confirmedID
}

func (p *PendingMessage) Confirm(serverID int64) error {
	if p.status != enum.MessageStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, p.status, enum.MessageStatusConfirmed)
	}
	p.status = enum.MessageStatusConfirmed
	p.confirmedID = serverID
	return nil
}

func (p *PendingMessage) RollBack() error {
	if p.status != enum.MessageStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, p.status, enum.MessageStatusRolledBack)
	}
	p.status = enum.MessageStatusRolledBack
	return nil
}

func (p *PendingMessage) message() Message {
	return Message{
		ID:        p.LocalID,
		RoomID:    p.RoomID,
		SenderID:  p.Sender.ID,
		Sender:    p.Sender,
		Content:   p.Content,
		Timestamp: p.SentAt,
		ClientRef: p.ClientRef,
		Status:    p.status,
	}
}

// matches decides whether a confirmed server message is this pending one.
// The correlation token decides whenever the server echoes one; otherwise
// sender, content and send time have to agree.
func (p *PendingMessage) matches(m Message, skew time.Duration) bool {
	if m.ClientRef != "" {
		return m.ClientRef == p.ClientRef
	}
	if m.SenderID != p.Sender.ID || m.Content != p.Content {
		return false
	}
	if _, seen := p.baseline[m.ID]; seen {
		return false
	}
	return !m.Timestamp.Before(p.SentAt.Add(-skew))
}
