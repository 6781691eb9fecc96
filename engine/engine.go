// Package engine implements the per-room game state machine: phase
// transitions, turn rotation, banker offers, settlement and scoring. Every
// exported method locks the room it's given, mutates under that lock, and
// (except Chat, which returns the message for its caller to fan out) fans
// the result out through a Broadcaster before releasing it. Actual
// socket writes never happen under the room lock — see broadcastLocked.
package engine

import (
	"errors"
	"time"

	"boxdrop/config"
	"boxdrop/projector"
	"boxdrop/rng"
	"boxdrop/state"

	"github.com/google/uuid"
)

// Validation, authorisation and state errors. Per spec, non-ack events
// drop these silently at the dispatcher; ack-bearing events surface them.
var (
	ErrNotActor       = errors.New("actor is not permitted to perform this action")
	ErrWrongPhase     = errors.New("wrong phase for this action")
	ErrBoxTaken       = errors.New("box already selected")
	ErrBoxOutOfRange  = errors.New("box number out of range")
	ErrAlreadyReady   = errors.New("player already ready")
	ErrNoBoxSelected  = errors.New("player has not selected a box")
	ErrNotEnoughReady = errors.New("not all contestants are ready, or too few contestants")
	ErrBoxNotOpenable = errors.New("box is not openable")
	ErrNotOfferPhase  = errors.New("no offer is open")
	ErrAlreadyResponded = errors.New("player already responded to this offer")
	ErrChatTooLong    = errors.New("chat message too long")
	ErrChatEmpty      = errors.New("chat message is empty")
	ErrCannotChat     = errors.New("spectators cannot chat")
)

// Broadcaster fans a room's authoritative state out to its connected
// members. Implementations build a per-recipient projector.Snapshot and
// perform transport I/O only after the engine has released the room lock.
type Broadcaster interface {
	BroadcastState(room *state.Room, recentlyOpened *projector.RecentlyOpenedBox)
	BroadcastLeaderboard(room *state.Room, final bool)
	PushLeaderboardSnapshot(room *state.Room, recipientPlayerID string)
}

// Engine orchestrates every room's state machine. One Engine serves every
// room in the store; per-room serialisation comes from each room's own
// mutex, not from the Engine itself.
type Engine struct {
	store *state.Store
	rng   rng.Source
	bc    Broadcaster
}

// New constructs an Engine bound to store, using src for banker variance
// and bc to fan out resulting state.
func New(store *state.Store, src rng.Source, bc Broadcaster) *Engine {
	return &Engine{store: store, rng: src, bc: bc}
}

// SelectBox lets a not-yet-ready contestant claim a personal box during
// waiting or selection.
func (e *Engine) SelectBox(room *state.Room, actorID string, boxNumber int) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhaseWaiting && room.Phase != state.PhaseSelection {
		return ErrWrongPhase
	}
	actor, ok := room.Players[actorID]
	if !ok || actor.Role != state.RoleContestant || actor.IsReady {
		return ErrNotActor
	}
	if boxNumber < 1 || boxNumber > len(room.Boxes) {
		return ErrBoxOutOfRange
	}
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		if p.BoxNumber != nil && *p.BoxNumber == boxNumber && id != actorID {
			return ErrBoxTaken
		}
	}

	n := boxNumber
	actor.BoxNumber = &n
	e.broadcastLocked(room, nil)
	return nil
}

// PlayerReady marks a boxed contestant ready to start.
func (e *Engine) PlayerReady(room *state.Room, actorID string) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhaseWaiting && room.Phase != state.PhaseSelection {
		return ErrWrongPhase
	}
	actor, ok := room.Players[actorID]
	if !ok || actor.Role != state.RoleContestant {
		return ErrNotActor
	}
	if actor.BoxNumber == nil {
		return ErrNoBoxSelected
	}
	if actor.IsReady {
		return ErrAlreadyReady
	}
	actor.IsReady = true
	e.broadcastLocked(room, nil)
	return nil
}

// StartGame transitions waiting -> playing: host-only, requires at least
// config.MinContestants contestants, all ready with a box set.
func (e *Engine) StartGame(room *state.Room, actorID string) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhaseWaiting && room.Phase != state.PhaseSelection {
		return ErrWrongPhase
	}
	actor, ok := room.Players[actorID]
	if !ok || !actor.CanStartGame() {
		return ErrNotActor
	}

	contestants := 0
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		if p.Role != state.RoleContestant {
			continue
		}
		contestants++
		if p.BoxNumber == nil || !p.IsReady {
			return ErrNotEnoughReady
		}
	}
	if contestants < config.MinContestants {
		return ErrNotEnoughReady
	}

	room.Phase = state.PhasePlaying
	room.StartedAt = time.Now()
	room.CurrentRound = 1
	room.RebuildTurnOrder()
	room.CurrentTurnIndex = 0
	if len(room.TurnOrder) > 0 {
		room.CurrentTurnIndex = e.rng.Intn(len(room.TurnOrder))
	}

	// Snapshot every contestant's personal box value now, per the data
	// model: boxValue is filled at game start, not on reveal.
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		if p.Role == state.RoleContestant && p.BoxNumber != nil {
			v := room.Boxes[*p.BoxNumber-1].Value
			p.BoxValue = &v
		}
	}

	e.armTurnOrRouteToOfferLocked(room)
	return nil
}

// Chat posts a contestant chat message, appends it to the room's ring
// buffer and returns it for broadcast.
func (e *Engine) Chat(room *state.Room, actorID, content string) (*state.ChatMessage, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	actor, ok := room.Players[actorID]
	if !ok || !actor.CanChat() {
		return nil, ErrCannotChat
	}
	if len(content) == 0 {
		return nil, ErrChatEmpty
	}
	if len(content) > config.MaxChatMessageLen {
		content = content[:config.MaxChatMessageLen]
	}

	msg := state.ChatMessage{
		ID:          uuid.NewString(),
		SenderID:    actor.ID,
		SenderName:  actor.DisplayName,
		Content:     content,
		TimestampMs: time.Now().UnixMilli(),
	}
	room.AppendChat(msg)
	return &msg, nil
}

// PushJoinSnapshot broadcasts the room's current state to every member,
// used after create-room, join-room and reconnect-player. It sends no
// leaderboard; the caller pushes the arriving player's leaderboard
// snapshot separately.
func (e *Engine) PushJoinSnapshot(room *state.Room) {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	e.broadcastLocked(room, nil)
}

// broadcastLocked asks the Broadcaster to fan out room's current state.
// Called while room.Mu is held. Broadcaster implementations build their
// per-recipient snapshot and hand it to each connection's buffered send
// channel — a non-blocking memory operation — so the room lock is never
// held across an actual socket write; that happens later, in the
// connection's own write goroutine.
func (e *Engine) broadcastLocked(room *state.Room, recentlyOpened *projector.RecentlyOpenedBox) {
	e.bc.BroadcastState(room, recentlyOpened)
}
