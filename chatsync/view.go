package chatsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"healthcare-chat/apperror"
)

// RoomView is an open room: a poller keeping the room state fresh and the
// handle a UI reads from.
type RoomView struct {
	engine     *Engine
	room       *roomState
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	failures int
	degraded bool
	lastErr  error
	subs     []chan struct{}

	closeOnce sync.Once
}

func newRoomView(e *Engine, room *roomState, parent context.Context) *RoomView {
	ctx, cancel := e.session.Context(parent)
	return &RoomView{
		engine:     e,
		room:       room,
		generation: room.open(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

func (v *RoomView) RoomID() int64 {
	return v.room.id
}

func (v *RoomView) Messages() []Message {
	return v.room.visible()
}

// Subscribe returns a channel signalled after every change of the room
// state. It is closed when the view closes.
func (v *RoomView) Subscribe() <-chan struct{} {
	ch := v.room.changes.subscribe()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil {
		v.room.changes.unsubscribe(ch)
		return ch
	}
	v.subs = append(v.subs, ch)
	return ch
}

// Degraded is set after consecutive poll failures reach the threshold and
// cleared by the next successful poll.
func (v *RoomView) Degraded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.degraded
}

func (v *RoomView) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

func (v *RoomView) Send(ctx context.Context, content string) (Message, error) {
	return v.engine.SendMessage(ctx, v.room.id, content)
}

// Done is closed once the poll loop has exited.
func (v *RoomView) Done() <-chan struct{} {
	return v.done
}

// Close stops polling. Responses still in flight are discarded.
func (v *RoomView) Close() {
	v.closeOnce.Do(func() {
		v.room.close(v.generation)
		v.cancel()
		v.engine.forgetView(v)

		v.mu.Lock()
		subs := v.subs
		v.subs = nil
		v.mu.Unlock()
		for _, ch := range subs {
			v.room.changes.unsubscribe(ch)
		}
	})
}

func (v *RoomView) start(pusher Pusher) {
	go v.run()
	if pusher != nil {
		go v.listen(pusher)
	}
	go func() {
		<-v.ctx.Done()
		v.Close()
	}()
}

func (v *RoomView) run() {
	defer close(v.done)

	opts := v.engine.opts
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.PollInterval
	b.MaxInterval = opts.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-v.ctx.Done():
			return
		case <-timer.C:
		}
		timer.Reset(v.poll(b))
	}
}

// poll runs one load and returns the delay before the next one.
func (v *RoomView) poll(b *backoff.ExponentialBackOff) time.Duration {
	opts := v.engine.opts
	log := v.engine.Log.Sync

	err := v.engine.load(v.ctx, v.room, v.generation)
	if v.ctx.Err() != nil {
		return opts.PollInterval
	}
	if err == nil {
		v.mu.Lock()
		recovered := v.degraded
		v.failures, v.degraded, v.lastErr = 0, false, nil
		v.mu.Unlock()
		b.Reset()
		if recovered {
			log.Info.Info().Int64("room", v.room.id).Msg("polling recovered")
			v.room.changes.notify()
		}
		return opts.PollInterval
	}
	if apperror.IsAuth(err) || errors.Is(err, context.Canceled) {
		return opts.PollInterval
	}

	v.mu.Lock()
	v.failures++
	v.lastErr = err
	failures := v.failures
	becameDegraded := !v.degraded && failures >= opts.FailureThreshold
	if failures >= opts.FailureThreshold {
		v.degraded = true
	}
	v.mu.Unlock()

	v.engine.Logger.WithError(err).Warnf("poll of room %d failed (%d in a row)", v.room.id, failures)
	if failures < opts.FailureThreshold {
		return opts.PollInterval
	}
	if becameDegraded {
		log.Warning.Warn().Int64("room", v.room.id).Int("failures", failures).Msg("polling degraded")
		v.room.changes.notify()
	}
	return min(b.NextBackOff(), opts.MaxBackoff)
}

func (v *RoomView) listen(pusher Pusher) {
	messages, err := pusher.Subscribe(v.ctx, v.room.id)
	if err != nil {
		if v.ctx.Err() == nil {
			v.engine.Logger.WithError(err).Warnf("push for room %d unavailable, polling only", v.room.id)
		}
		return
	}
	for m := range messages {
		v.room.applyPush(v.generation, fromMessageResponse(m), v.engine.opts.MatchSkew)
	}
}
