package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthcare-chat/apperror"
	"healthcare-chat/config"
	"healthcare-chat/config/logger"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
)

type sendOutcome struct {
	message Message
	err     error
}

func sendAsync(e *Engine, roomID int64, content string) <-chan sendOutcome {
	out := make(chan sendOutcome, 1)
	go func() {
		m, err := e.SendMessage(context.Background(), roomID, content)
		out <- sendOutcome{message: m, err: err}
	}()
	return out
}

func countContent(messages []Message, content string) int {
	n := 0
	for _, m := range messages {
		if m.Content == content {
			n++
		}
	}
	return n
}

func TestStartChatThenSendConvergesToServerMessage(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	s := newTestSession(t, doctorID)
	directory := NewRoomDirectory(collab, s, quietLogger(), time.Second)
	engine := newTestEngine(t, collab, s)

	roomID, err := directory.StartChat(ctx, patientID)
	require.NoError(t, err)

	confirmedAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	release := make(chan struct{})
	collab.sendMessage = func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
		<-release
		collab.mu.Lock()
		collab.nextID = 500
		collab.mu.Unlock()
		return collab.store(roomID, doctorID, request.Content, request.ClientRef, confirmedAt), nil
	}

	outcome := sendAsync(engine, roomID, "hi")
	require.Eventually(t, func() bool { return len(engine.Visible(roomID)) == 1 }, time.Second, 5*time.Millisecond)

	optimistic := engine.Visible(roomID)[0]
	assert.True(t, optimistic.IsPending())
	assert.Negative(t, optimistic.ID)
	assert.Equal(t, "hi", optimistic.Content)
	assert.Equal(t, doctorID, optimistic.SenderID)

	close(release)
	result := <-outcome
	require.NoError(t, result.err)
	assert.Equal(t, int64(501), result.message.ID)

	loaded, err := engine.LoadMessages(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(501), loaded[0].ID)
	assert.Equal(t, "hi", loaded[0].Content)
	assert.Equal(t, doctorID, loaded[0].SenderID)
	assert.True(t, loaded[0].Timestamp.Equal(confirmedAt))
	assert.False(t, loaded[0].IsPending())
}

func TestSentMessageIsVisibleExactlyOnceAfterPoll(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	engine := newTestEngine(t, collab, newTestSession(t, doctorID))

	_, err := engine.SendMessage(ctx, 7, "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, countContent(engine.Visible(7), "hello"))

	loaded, err := engine.LoadMessages(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, countContent(loaded, "hello"))
}

func TestEmptyMessageIsRejectedBeforeAnyCall(t *testing.T) {
	collab := newFakeCollaborator(doctorID)
	engine := newTestEngine(t, collab, newTestSession(t, doctorID))

	_, err := engine.SendMessage(context.Background(), 7, "  \n\t ")
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, collab.count("SendMessage"))
	assert.Empty(t, engine.Visible(7))
}

func TestFailedSendRollsBack(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	engine := newTestEngine(t, collab, newTestSession(t, doctorID))
	collab.store(7, patientID, "good morning doctor", "", base)

	before, err := engine.LoadMessages(ctx, 7)
	require.NoError(t, err)

	collab.sendMessage = func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
		return res.MessageResponse{}, apperror.Network("SendMessage", context.DeadlineExceeded)
	}
	_, err = engine.SendMessage(ctx, 7, "hello")

	assert.True(t, apperror.IsNetwork(err))
	assert.Equal(t, before, engine.Visible(7))
}

func TestHungSendIsBoundedByRequestTimeout(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	opts := testOptions()
	opts.RequestTimeout = 50 * time.Millisecond
	engine := NewEngine(collab, newTestSession(t, doctorID), config.NewValidator(), quietLogger(), logger.NewNopLogger(), opts)
	defer engine.Close()
	collab.store(7, patientID, "is the clinic open on sunday?", "", base)

	before, err := engine.LoadMessages(ctx, 7)
	require.NoError(t, err)

	collab.sendMessage = func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
		<-ctx.Done()
		return res.MessageResponse{}, ctx.Err()
	}
	started := time.Now()
	_, err = engine.SendMessage(ctx, 7, "yes, until noon")

	assert.Less(t, time.Since(started), 500*time.Millisecond)
	assert.True(t, apperror.IsNetwork(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, before, engine.Visible(7))
}

func TestPollBeforeSendResponseDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	engine := newTestEngine(t, collab, newTestSession(t, doctorID))

	stored := make(chan res.MessageResponse, 1)
	release := make(chan struct{})
	collab.sendMessage = func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
		m := collab.store(roomID, doctorID, request.Content, request.ClientRef, time.Now())
		stored <- m
		<-release
		return m, nil
	}

	outcome := sendAsync(engine, 7, "hello")
	created := <-stored

	loaded, err := engine.LoadMessages(ctx, 7)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, created.ID, loaded[0].ID)
	assert.False(t, loaded[0].IsPending())

	close(release)
	result := <-outcome
	require.NoError(t, result.err)
	assert.Equal(t, created.ID, result.message.ID)
	assert.Equal(t, 1, countContent(engine.Visible(7), "hello"))
}

func TestSendResponseBeforeStalePollDoesNotDrop(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	engine := newTestEngine(t, collab, newTestSession(t, doctorID))

	entered := make(chan struct{})
	release := make(chan struct{})
	collab.getMessages = func(ctx context.Context, roomID int64) ([]res.MessageResponse, error) {
		collab.mu.Lock()
		snapshot := append([]res.MessageResponse(nil), collab.messages[roomID]...)
		collab.mu.Unlock()
		close(entered)
		<-release
		return snapshot, nil
	}

	loadDone := make(chan error, 1)
	go func() {
		_, err := engine.LoadMessages(ctx, 7)
		loadDone <- err
	}()
	<-entered

	sent, err := engine.SendMessage(ctx, 7, "hello")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-loadDone)
	assert.Equal(t, []int64{sent.ID}, ids(engine.Visible(7)))

	collab.getMessages = nil
	loaded, err := engine.LoadMessages(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{sent.ID}, ids(loaded))
}

func TestSendFailureAfterPollConfirmationReturnsMessage(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	engine := newTestEngine(t, collab, newTestSession(t, doctorID))

	stored := make(chan res.MessageResponse, 1)
	release := make(chan struct{})
	collab.sendMessage = func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
		stored <- collab.store(roomID, doctorID, request.Content, request.ClientRef, time.Now())
		<-release
		return res.MessageResponse{}, apperror.Network("SendMessage", context.DeadlineExceeded)
	}

	outcome := sendAsync(engine, 7, "hello")
	created := <-stored
	_, err := engine.LoadMessages(ctx, 7)
	require.NoError(t, err)

	close(release)
	result := <-outcome
	require.NoError(t, result.err)
	assert.Equal(t, created.ID, result.message.ID)
	assert.Equal(t, []int64{created.ID}, ids(engine.Visible(7)))
}

func TestAuthFailureOnSendEndsSession(t *testing.T) {
	collab := newFakeCollaborator(doctorID)
	s := newTestSession(t, doctorID)
	engine := newTestEngine(t, collab, s)
	collab.sendMessage = func(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
		return res.MessageResponse{}, apperror.Auth("SendMessage", "token expired")
	}

	_, err := engine.SendMessage(context.Background(), 7, "hello")
	assert.True(t, apperror.IsAuth(err))
	assert.False(t, s.Valid())
	assert.Empty(t, engine.Visible(7))

	_, err = engine.SendMessage(context.Background(), 7, "again")
	assert.True(t, apperror.IsAuth(err))
	assert.Equal(t, 1, collab.count("SendMessage"))
}

func TestOptionsFillDefaults(t *testing.T) {
	opts := Options{PollInterval: 2 * time.Minute}.withDefaults()
	assert.Equal(t, 2*time.Minute, opts.PollInterval)
	assert.Equal(t, 2*time.Minute, opts.MaxBackoff)
	assert.Equal(t, 3, opts.FailureThreshold)
	assert.Equal(t, 10*time.Second, opts.RequestTimeout)
}
