package enum

// Tab is one of the activity feed views.
type Tab string

const (
	TabChats    Tab = "chats"
	TabFriends  Tab = "friends"
	TabRequests Tab = "requests"
)
