package chatsync

import (
	"slices"
	"sync"
	"time"

	"healthcare-chat/enum"
)

type localConfirmation struct {
	message Message
	// last load sequence issued when the confirmation arrived
	seq uint64
}

// roomState is the reconciled message state of one room: the confirmed
// server messages ordered by (timestamp, id) followed by the pending
// messages in send order.
type roomState struct {
	id int64
	me int64

	mu         sync.Mutex
	confirmed  []Message
	pending    []*PendingMessage
	issuedSeq  uint64
	appliedSeq uint64
	generation uint64
	// confirmed by a send response or push, not yet seen in a load issued
	// after the confirmation
	local map[int64]localConfirmation
	// server ids that already confirmed a pending message
	claimed map[int64]struct{}

	viewing        bool
	latestIncoming time.Time
	lastRead       time.Time

	changes notifier
}

func newRoomState(id, me int64) *roomState {
	return &roomState{
		id:      id,
		me:      me,
		local:   make(map[int64]localConfirmation),
		claimed: make(map[int64]struct{}),
	}
}

// beginLoad tags a load with the current generation and a fresh sequence.
func (r *roomState) beginLoad() (generation, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issuedSeq++
	return r.generation, r.issuedSeq
}

func (r *roomState) currentGeneration() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// applyLoad replaces the confirmed set with a full server list. Results of
// an older generation or older than the last applied load are dropped.
func (r *roomState) applyLoad(generation, seq uint64, list []Message, skew time.Duration) bool {
	r.mu.Lock()
	applied := r.applyLoadLocked(generation, seq, list, skew)
	r.mu.Unlock()

	if applied {
		r.changes.notify()
	}
	return applied
}

func (r *roomState) applyLoadLocked(generation, seq uint64, list []Message, skew time.Duration) bool {
	if generation != r.generation || seq <= r.appliedSeq {
		return false
	}
	r.appliedSeq = seq

	byID := make(map[int64]Message, len(list))
	for _, m := range list {
		byID[m.ID] = m
	}
	for id, conf := range r.local {
		if _, ok := byID[id]; ok {
			delete(r.local, id)
			continue
		}
		if seq <= conf.seq {
			byID[id] = conf.message
			continue
		}
		delete(r.local, id)
	}

	confirmed := make([]Message, 0, len(byID))
	for _, m := range byID {
		confirmed = append(confirmed, m)
	}
	sortMessages(confirmed)
	r.confirmed = confirmed

	r.matchPending(confirmed, skew)
	r.trackIncoming()
	return true
}

// applyPush inserts a single confirmed message delivered out of band.
func (r *roomState) applyPush(generation uint64, m Message, skew time.Duration) bool {
	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return false
	}
	r.insertConfirmed(m)
	r.matchPending([]Message{m}, skew)
	r.trackIncoming()
	r.mu.Unlock()

	r.changes.notify()
	return true
}

// addPending appends an optimistic message and snapshots the confirmed ids
// it must never be matched against.
func (r *roomState) addPending(p *PendingMessage) {
	r.mu.Lock()
	p.baseline = make(map[int64]struct{}, len(r.confirmed))
	for _, m := range r.confirmed {
		p.baseline[m.ID] = struct{}{}
	}
	r.pending = append(r.pending, p)
	r.mu.Unlock()

	r.changes.notify()
}

// confirmSend applies the authoritative send response. If a load already
// confirmed p, the stored message is returned unchanged.
func (r *roomState) confirmSend(p *PendingMessage, m Message) Message {
	r.mu.Lock()
	if p.Status() == enum.MessageStatusPending {
		_ = p.Confirm(m.ID)
		r.removePending(p)
		r.claimed[m.ID] = struct{}{}
	}
	r.insertConfirmed(m)
	r.trackIncoming()
	stored := r.findConfirmed(m.ID)
	r.mu.Unlock()

	r.changes.notify()
	if stored != nil {
		return *stored
	}
	return m
}

// rollbackSend removes p after a failed send. When a load confirmed p in the
// meantime the message exists on the server and is returned with ok=true.
func (r *roomState) rollbackSend(p *PendingMessage) (Message, bool) {
	r.mu.Lock()
	if p.Status() != enum.MessageStatusPending {
		defer r.mu.Unlock()
		if p.Status() != enum.MessageStatusConfirmed {
			return Message{}, false
		}
		if stored := r.findConfirmed(p.ConfirmedID()); stored != nil {
			return *stored, true
		}
		out := p.message()
		out.ID = p.ConfirmedID()
		return out, true
	}
	_ = p.RollBack()
	r.removePending(p)
	r.mu.Unlock()

	r.changes.notify()
	return Message{}, false
}

// open starts a new generation for a view; loads issued before are dropped.
func (r *roomState) open() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.viewing = true
	r.lastRead = r.latestIncoming
	return r.generation
}

// close invalidates every load issued so far, unless another view already
// took the room over.
func (r *roomState) close(generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != generation {
		return
	}
	r.generation++
	r.viewing = false
}

func (r *roomState) hasUnread() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latestIncoming.After(r.lastRead)
}

func (r *roomState) visible() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, 0, len(r.confirmed)+len(r.pending))
	out = append(out, r.confirmed...)
	for _, p := range r.pending {
		out = append(out, p.message())
	}
	return out
}

func (r *roomState) matchPending(candidates []Message, skew time.Duration) {
	if len(r.pending) == 0 {
		return
	}
	remaining := make([]*PendingMessage, 0, len(r.pending))
	for _, p := range r.pending {
		matched := false
		for _, m := range candidates {
			if _, used := r.claimed[m.ID]; used {
				continue
			}
			if p.matches(m, skew) {
				_ = p.Confirm(m.ID)
				r.claimed[m.ID] = struct{}{}
				matched = true
				break
			}
		}
		if !matched {
			remaining = append(remaining, p)
		}
	}
	r.pending = remaining
}

func (r *roomState) insertConfirmed(m Message) {
	if _, ok := r.local[m.ID]; !ok {
		r.local[m.ID] = localConfirmation{message: m, seq: r.issuedSeq}
	}
	if r.findConfirmed(m.ID) != nil {
		return
	}
	r.confirmed = append(r.confirmed, m)
	sortMessages(r.confirmed)
}

func (r *roomState) findConfirmed(id int64) *Message {
	for i := range r.confirmed {
		if r.confirmed[i].ID == id {
			return &r.confirmed[i]
		}
	}
	return nil
}

func (r *roomState) removePending(p *PendingMessage) {
	r.pending = slices.DeleteFunc(r.pending, func(q *PendingMessage) bool { return q == p })
}

func (r *roomState) trackIncoming() {
	for _, m := range r.confirmed {
		if m.SenderID != r.me && m.Timestamp.After(r.latestIncoming) {
			r.latestIncoming = m.Timestamp
		}
	}
	if r.viewing {
		r.lastRead = r.latestIncoming
	}
}

func sortMessages(messages []Message) {
	slices.SortFunc(messages, func(a, b Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
