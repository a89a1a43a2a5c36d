package chatsync

import (
	"context"
	"time"

	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/enum"
)

// Collaborator is the REST backend. restclient.Client implements it.
type Collaborator interface {
	ListRooms(ctx context.Context) ([]res.ChatRoomResponse, error)
	GetMessages(ctx context.Context, roomID int64) ([]res.MessageResponse, error)
	SendMessage(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error)
	StartChat(ctx context.Context, targetUserID int64) (res.StartChatResponse, error)
	ListFriends(ctx context.Context) ([]res.FriendResponse, error)
	ListFriendRequests(ctx context.Context) ([]res.FriendResponse, error)
	SendFriendRequest(ctx context.Context, targetUserID int64) (res.FriendResponse, error)
	RespondFriendRequest(ctx context.Context, edgeID int64, action enum.FriendAction) (res.FriendResponse, error)
}

// Pusher delivers messages of a room as soon as the server stores them.
// The channel is closed when ctx ends or the connection drops.
type Pusher interface {
	Subscribe(ctx context.Context, roomID int64) (<-chan res.MessageResponse, error)
}

type User struct {
	ID       int64
	Username string
	Type     enum.UserType
}

type FriendEdge struct {
	ID        int64
	Sender    User
	Receiver  User
	Status    enum.FriendStatus
	CreatedAt time.Time
}

// OtherParty returns whichever end of the edge is not me.
func (e FriendEdge) OtherParty(me int64) User {
	if e.Sender.ID == me {
		return e.Receiver
	}
	return e.Sender
}

type ChatRoom struct {
	ID           int64
	Participants []User
	IsPrivate    bool
	CreatedAt    time.Time
	// OtherUser is derived from Participants for private rooms.
	OtherUser *User
}

type Message struct {
	ID        int64
	RoomID    int64
	SenderID  int64
	Sender    User
	Content   string
	Timestamp time.Time
	ClientRef string
	Status    enum.MessageStatus
}

// IsPending reports whether the message still waits for the server.
func (m Message) IsPending() bool {
	return m.Status == enum.MessageStatusPending
}

func fromUserResponse(user res.UserResponse) User {
	return User{ID: user.ID, Username: user.Username, Type: user.Type}
}

func fromFriendResponse(edge res.FriendResponse) FriendEdge {
	return FriendEdge{
		ID:        edge.ID,
		Sender:    fromUserResponse(edge.Sender),
		Receiver:  fromUserResponse(edge.Receiver),
		Status:    edge.Status,
		CreatedAt: edge.CreatedAt,
	}
}

func fromFriendResponses(edges []res.FriendResponse) []FriendEdge {
	out := make([]FriendEdge, 0, len(edges))
	for _, edge := range edges {
		out = append(out, fromFriendResponse(edge))
	}
	return out
}

// fromRoomResponse ignores the server's other_user and derives it for me.
func fromRoomResponse(room res.ChatRoomResponse, me int64) ChatRoom {
	out := ChatRoom{
		ID:           room.ID,
		IsPrivate:    room.IsPrivate,
		CreatedAt:    room.CreatedAt,
		Participants: make([]User, 0, len(room.Participants)),
	}
	for _, participant := range room.Participants {
		user := fromUserResponse(participant)
		out.Participants = append(out.Participants, user)
		if out.IsPrivate && out.OtherUser == nil && user.ID != me {
			other := user
			out.OtherUser = &other
		}
	}
	return out
}

func fromMessageResponse(message res.MessageResponse) Message {
	return Message{
		ID:        message.ID,
		RoomID:    message.RoomID,
		SenderID:  message.Sender.ID,
		Sender:    fromUserResponse(message.Sender),
		Content:   message.Content,
		Timestamp: message.Timestamp,
		ClientRef: message.ClientRef,
		Status:    enum.MessageStatusConfirmed,
	}
}
