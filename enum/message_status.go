package enum

// MessageStatus is the lifecycle state of a message sent from this client.
type MessageStatus string

const (
	MessageStatusPending    MessageStatus = "pending"
	MessageStatusConfirmed  MessageStatus = "confirmed"
	MessageStatusRolledBack MessageStatus = "rolled_back"
)

// IsTerminal reports whether no further transition is allowed.
func (s MessageStatus) IsTerminal() bool {
	return s == MessageStatusConfirmed || s == MessageStatusRolledBack
}
