package chatsync

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"healthcare-chat/apperror"
	"healthcare-chat/config"
	"healthcare-chat/config/logger"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
	"healthcare-chat/enum"
	"healthcare-chat/session"
)

const (
	doctorID  int64 = 1
	patientID int64 = 2
	nurseID   int64 = 3
)

func newTestSession(t *testing.T, userID int64) *session.Session {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id":  strconv.FormatInt(userID, 10),
		"username": fmt.Sprintf("user-%d", userID),
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	s, err := session.New(token)
	require.NoError(t, err)
	return s
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testOptions() Options {
	return Options{
		PollInterval:     10 * time.Millisecond,
		RequestTimeout:   time.Second,
		FailureThreshold: 3,
		MaxBackoff:       40 * time.Millisecond,
		MatchSkew:        time.Minute,
	}
}

func newTestEngine(t *testing.T, collab Collaborator, s *session.Session) *Engine {
	t.Helper()
	e := NewEngine(collab, s, config.NewValidator(), quietLogger(), logger.NewNopLogger(), testOptions())
	t.Cleanup(e.Close)
	return e
}

// fakeCollaborator is an in-memory chat backend seen through the eyes of
// one user. The hook fields replace the default behaviour of a call.
type fakeCollaborator struct {
	mu       sync.Mutex
	me       int64
	users    map[int64]res.UserResponse
	nextID   int64
	rooms    map[int64]res.ChatRoomResponse
	pairs    map[string]int64
	messages map[int64][]res.MessageResponse
	edges    []res.FriendResponse
	calls    map[string]int
	now      func() time.Time

	getMessages func(ctx context.Context, roomID int64) ([]res.MessageResponse, error)
	sendMessage func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error)
}

func newFakeCollaborator(me int64) *fakeCollaborator {
	return &fakeCollaborator{
		me: me,
		users: map[int64]res.UserResponse{
			doctorID:  {ID: doctorID, Username: "dr-ana", Type: enum.UserTypeDoctor},
			patientID: {ID: patientID, Username: "budi", Type: enum.UserTypePatient},
			nurseID:   {ID: nurseID, Username: "citra", Type: enum.UserTypePatient},
		},
		nextID:   500,
		rooms:    make(map[int64]res.ChatRoomResponse),
		pairs:    make(map[string]int64),
		messages: make(map[int64][]res.MessageResponse),
		calls:    make(map[string]int),
		now:      time.Now,
	}
}

func (f *fakeCollaborator) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCollaborator) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

// store adds a message as if another client had posted it.
func (f *fakeCollaborator) store(roomID, senderID int64, content, clientRef string, at time.Time) res.MessageResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := res.MessageResponse{
		ID:        f.nextID,
		RoomID:    roomID,
		Content:   content,
		Sender:    f.users[senderID],
		Timestamp: at,
		ClientRef: clientRef,
	}
	f.messages[roomID] = append(f.messages[roomID], m)
	return m
}

func (f *fakeCollaborator) ListRooms(ctx context.Context) ([]res.ChatRoomResponse, error) {
	f.record("ListRooms")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]res.ChatRoomResponse, 0, len(f.rooms))
	for _, room := range f.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (f *fakeCollaborator) GetMessages(ctx context.Context, roomID int64) ([]res.MessageResponse, error) {
	f.record("GetMessages")
	if f.getMessages != nil {
		return f.getMessages(ctx, roomID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]res.MessageResponse(nil), f.messages[roomID]...), nil
}

func (f *fakeCollaborator) SendMessage(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
	f.record("SendMessage")
	if f.sendMessage != nil {
		return f.sendMessage(ctx, roomID, request)
	}
	return f.store(roomID, f.me, request.Content, request.ClientRef, f.now()), nil
}

func (f *fakeCollaborator) StartChat(ctx context.Context, targetUserID int64) (res.StartChatResponse, error) {
	f.record("StartChat")
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.users[targetUserID]
	if !ok {
		return res.StartChatResponse{}, apperror.NotFound("StartChat", "user not found")
	}
	key := entity.PairKey(f.me, targetUserID)
	if id, ok := f.pairs[key]; ok {
		return res.StartChatResponse{RoomID: id}, nil
	}
	f.nextID++
	f.rooms[f.nextID] = res.ChatRoomResponse{
		ID:           f.nextID,
		IsPrivate:    true,
		Participants: []res.UserResponse{f.users[f.me], target},
	}
	f.pairs[key] = f.nextID
	return res.StartChatResponse{RoomID: f.nextID, Created: true}, nil
}

func (f *fakeCollaborator) ListFriends(ctx context.Context) ([]res.FriendResponse, error) {
	f.record("ListFriends")
	return f.filterEdges(func(e res.FriendResponse) bool {
		return e.Status == enum.FriendStatusAccepted && (e.Sender.ID == f.me || e.Receiver.ID == f.me)
	}), nil
}

func (f *fakeCollaborator) ListFriendRequests(ctx context.Context) ([]res.FriendResponse, error) {
	f.record("ListFriendRequests")
	return f.filterEdges(func(e res.FriendResponse) bool {
		return e.Status == enum.FriendStatusPending && e.Receiver.ID == f.me
	}), nil
}

func (f *fakeCollaborator) filterEdges(keep func(res.FriendResponse) bool) []res.FriendResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []res.FriendResponse
	for _, e := range f.edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeCollaborator) SendFriendRequest(ctx context.Context, targetUserID int64) (res.FriendResponse, error) {
	f.record("SendFriendRequest")
	return f.addEdge(f.me, targetUserID)
}

// addEdge creates a pending edge unless the pair already has an active one.
func (f *fakeCollaborator) addEdge(senderID, receiverID int64) (res.FriendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if entity.PairKey(e.Sender.ID, e.Receiver.ID) == entity.PairKey(senderID, receiverID) && e.Status.IsActive() {
			return res.FriendResponse{}, apperror.Conflict("SendFriendRequest", "friend request already exists")
		}
	}
	f.nextID++
	edge := res.FriendResponse{
		ID:        f.nextID,
		Sender:    f.users[senderID],
		Receiver:  f.users[receiverID],
		Status:    enum.FriendStatusPending,
		CreatedAt: f.now(),
	}
	f.edges = append(f.edges, edge)
	return edge, nil
}

func (f *fakeCollaborator) RespondFriendRequest(ctx context.Context, edgeID int64, action enum.FriendAction) (res.FriendResponse, error) {
	f.record("RespondFriendRequest")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.edges {
		if e.ID != edgeID || e.Receiver.ID != f.me {
			continue
		}
		if e.Status != enum.FriendStatusPending {
			return res.FriendResponse{}, apperror.Conflict("RespondFriendRequest", "request already answered")
		}
		status, _ := action.Status()
		f.edges[i].Status = status
		return f.edges[i], nil
	}
	return res.FriendResponse{}, apperror.NotFound("RespondFriendRequest", "request not found")
}
