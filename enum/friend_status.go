package enum

type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusRejected FriendStatus = "rejected"
)

// IsActive reports whether the edge still blocks a new request for the same pair.
func (s FriendStatus) IsActive() bool {
	return s == FriendStatusPending || s == FriendStatusAccepted
}

type FriendAction string

const (
	FriendActionAccept FriendAction = "accept"
	FriendActionReject FriendAction = "reject"
)

// Status maps a response action to the terminal edge status it produces.
func (a FriendAction) Status() (FriendStatus, bool) {
	switch a {
	case FriendActionAccept:
		return FriendStatusAccepted, true
	case FriendActionReject:
		return FriendStatusRejected, true
	}
	return "", false
}
