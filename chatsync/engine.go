// Package chatsync keeps a client's view of friends, rooms and messages in
// step with the chat collaborator: optimistic sends, poll reconciliation and
// the activity feed built on top of them.
package chatsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"healthcare-chat/apperror"
	"healthcare-chat/config/common"
	"healthcare-chat/config/logger"
	"healthcare-chat/dto/req"
	"healthcare-chat/session"
)

type Options struct {
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	FailureThreshold int
	MaxBackoff       time.Duration
	// MatchSkew bounds how much earlier than the local send time a server
	// timestamp may be and still confirm a pending message by content.
	MatchSkew time.Duration
}

func DefaultOptions() Options {
	return Options{
		PollInterval:     5 * time.Second,
		RequestTimeout:   10 * time.Second,
		FailureThreshold: 3,
		MaxBackoff:       time.Minute,
		MatchSkew:        2 * time.Minute,
	}
}

// OptionsFromConfig fills unset values with the defaults.
func OptionsFromConfig(cfg common.ClientConfig) Options {
	opts := Options{
		PollInterval:     cfg.PollInterval,
		RequestTimeout:   cfg.RequestTimeout,
		FailureThreshold: cfg.FailureThreshold,
		MaxBackoff:       cfg.MaxBackoff,
		MatchSkew:        cfg.MatchSkew,
	}
	return opts.withDefaults()
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = def.RequestTimeout
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = def.FailureThreshold
	}
	if o.MaxBackoff < o.PollInterval {
		o.MaxBackoff = max(def.MaxBackoff, o.PollInterval)
	}
	if o.MatchSkew <= 0 {
		o.MatchSkew = def.MatchSkew
	}
	return o
}

type Engine struct {
	Logger *logrus.Logger
	Log    *logger.AppLogger

	collab   Collaborator
	session  *session.Session
	validate *validator.Validate
	opts     Options
	pusher   Pusher

	nextLocalID atomic.Int64

	mu    sync.Mutex
	rooms map[int64]*roomState
	views map[int64]*RoomView
}

func NewEngine(collab Collaborator, s *session.Session, validate *validator.Validate, log *logrus.Logger, appLog *logger.AppLogger, opts Options) *Engine {
	return &Engine{
		Logger:   log,
		Log:      appLog,
		collab:   collab,
		session:  s,
		validate: validate,
		opts:     opts.withDefaults(),
		rooms:    make(map[int64]*roomState),
		views:    make(map[int64]*RoomView),
	}
}

// SetPusher enables push delivery for rooms opened afterwards.
func (e *Engine) SetPusher(p Pusher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pusher = p
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) room(roomID int64) *roomState {
	e.mu.Lock()
	defer e.mu.Unlock()
	room, ok := e.rooms[roomID]
	if !ok {
		room = newRoomState(roomID, e.session.UserID())
		e.rooms[roomID] = room
	}
	return room
}

func (e *Engine) knownRoom(roomID int64) (*roomState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	room, ok := e.rooms[roomID]
	return room, ok
}

// LoadMessages fetches the full message list of a room and merges it into
// the local state. The reconciled visible sequence is returned.
func (e *Engine) LoadMessages(ctx context.Context, roomID int64) ([]Message, error) {
	room := e.room(roomID)
	if err := e.load(ctx, room, room.currentGeneration()); err != nil {
		return nil, err
	}
	return room.visible(), nil
}

// load runs one tagged fetch. A result that lost the race is not an error.
func (e *Engine) load(ctx context.Context, room *roomState, generation uint64) error {
	gen, seq := room.beginLoad()
	if gen != generation {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	list, err := e.collab.GetMessages(callCtx, room.id)
	if err != nil {
		err = callError("GetMessages", err)
		reportAuth(e.session, err)
		return err
	}

	messages := make([]Message, 0, len(list))
	for _, m := range list {
		messages = append(messages, fromMessageResponse(m))
	}
	if !room.applyLoad(generation, seq, messages, e.opts.MatchSkew) {
		e.Log.Sync.Trace.Debug().Int64("room", room.id).Uint64("seq", seq).Msg("stale load discarded")
	}
	return nil
}

// SendMessage shows content optimistically, posts it and reconciles the
// outcome. On failure the visible sequence returns to what it was before.
func (e *Engine) SendMessage(ctx context.Context, roomID int64, content string) (Message, error) {
	const op = "SendMessage"

	request := req.MessageRequest{
		Content:   strings.TrimSpace(content),
		ClientRef: uuid.NewString(),
	}
	if request.Content == "" {
		return Message{}, apperror.Validation(op, "message content must not be empty")
	}
	if err := e.validate.Struct(request); err != nil {
		return Message{}, apperror.Validation(op, err.Error())
	}
	if !e.session.Valid() {
		return Message{}, apperror.Auth(op, "session is no longer valid")
	}

	room := e.room(roomID)
	sender := User{ID: e.session.UserID(), Username: e.session.Username(), Type: e.session.UserType()}
	pending := newPendingMessage(e.nextLocalID.Add(-1), roomID, sender, request.Content, request.ClientRef, time.Now())
	room.addPending(pending)

	callCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	created, err := e.collab.SendMessage(callCtx, roomID, request)
	if err != nil {
		err = callError(op, err)
		if stored, ok := room.rollbackSend(pending); ok {
			e.Logger.WithError(err).Warnf("send to room %d failed after a poll confirmed message %d", roomID, stored.ID)
			return stored, nil
		}
		reportAuth(e.session, err)
		e.Logger.WithError(err).Errorf("send to room %d rolled back", roomID)
		return Message{}, err
	}

	return room.confirmSend(pending, fromMessageResponse(created)), nil
}

// Visible returns the reconciled messages of a room known to the engine.
func (e *Engine) Visible(roomID int64) []Message {
	room, ok := e.knownRoom(roomID)
	if !ok {
		return nil
	}
	return room.visible()
}

// HasUnread reports whether the room received a message from someone else
// since it was last open.
func (e *Engine) HasUnread(roomID int64) bool {
	room, ok := e.knownRoom(roomID)
	if !ok {
		return false
	}
	return room.hasUnread()
}

// OpenRoom starts polling a room. A room has at most one view; opening it
// again returns the running one.
func (e *Engine) OpenRoom(ctx context.Context, roomID int64) (*RoomView, error) {
	if !e.session.Valid() {
		return nil, apperror.Auth("OpenRoom", "session is no longer valid")
	}
	room := e.room(roomID)

	e.mu.Lock()
	if view, ok := e.views[roomID]; ok && view.ctx.Err() == nil {
		e.mu.Unlock()
		return view, nil
	}
	view := newRoomView(e, room, ctx)
	e.views[roomID] = view
	pusher := e.pusher
	e.mu.Unlock()

	view.start(pusher)
	return view, nil
}

// CloseRoom stops the view of a room, if any.
func (e *Engine) CloseRoom(roomID int64) {
	e.mu.Lock()
	view, ok := e.views[roomID]
	e.mu.Unlock()
	if ok {
		view.Close()
	}
}

func (e *Engine) forgetView(view *RoomView) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.views[view.room.id] == view {
		delete(e.views, view.room.id)
	}
}

// Close stops every open view.
func (e *Engine) Close() {
	e.mu.Lock()
	views := make([]*RoomView, 0, len(e.views))
	for _, view := range e.views {
		views = append(views, view)
	}
	e.mu.Unlock()

	for _, view := range views {
		view.Close()
	}
}

// callError gives a collaborator error that carries no kind, such as a bare
// deadline from the request timeout, the network kind.
func callError(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Network(op, err)
	}
	return err
}

// reportAuth ends the session when err says the server rejected it.
func reportAuth(s *session.Session, err error) bool {
	if !apperror.IsAuth(err) {
		return false
	}
	s.Invalidate(session.ErrUnauthorized)
	return true
}
