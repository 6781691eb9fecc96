package engine

import (
	"time"

	"boxdrop/config"
	"boxdrop/projector"
	"boxdrop/state"
)

// armTurnOrRouteToOfferLocked implements the pre-turn deadlock check: if no
// box is currently openable, the round (and thus the game, if terminal)
// routes straight to an offer instead of arming a turn nobody can act on.
// Callers hold room.Mu.
func (e *Engine) armTurnOrRouteToOfferLocked(room *state.Room) {
	if len(room.OpenableBoxNumbers()) == 0 || len(room.TurnOrder) == 0 {
		e.beginRoundEndLocked(room)
		return
	}
	e.armTurnLocked(room)
}

// armTurnLocked sets the current turn holder from room.TurnOrder at
// room.CurrentTurnIndex and schedules that turn's timeout.
func (e *Engine) armTurnLocked(room *state.Room) {
	playerID := room.TurnOrder[room.CurrentTurnIndex]
	room.CurrentTurnPlayerID = playerID
	room.TurnExpiresAt = time.Now().Add(config.TurnDuration)

	code := room.Code
	room.TurnTimer = time.AfterFunc(config.TurnDuration, func() {
		e.onTurnTimeout(code, playerID)
	})

	e.broadcastLocked(room, nil)
}

// roomByCode is the indirection timers use to reacquire a room: stored on
// the Engine so fired callbacks (which only capture a room code) can look
// the room back up and revalidate before acting. A room deleted by cleanup
// between arming and firing simply yields nil and the timer no-ops.
func (e *Engine) roomByCode(code string) *state.Room {
	return e.store.Room(code)
}

// onTurnTimeout fires config.TurnDuration after a turn was armed. It
// revalidates that the expected player is still the current turn holder in
// the playing phase before acting — the standard defence against a timer
// firing after the state it targeted has already moved on.
func (e *Engine) onTurnTimeout(roomCode, expectedPlayerID string) {
	room := e.roomByCode(roomCode)
	if room == nil {
		return
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhasePlaying || room.CurrentTurnPlayerID != expectedPlayerID {
		return
	}

	if p, ok := room.Players[expectedPlayerID]; ok {
		p.TimeoutCount++
	}
	room.TurnTimer = nil
	e.advanceTurnAfterTimeoutLocked(room)
}

// advanceTurnAfterTimeoutLocked moves the rotation on without opening a
// box, per the turn-timeout contract: no auto-open, just a skip.
func (e *Engine) advanceTurnAfterTimeoutLocked(room *state.Room) {
	if len(room.TurnOrder) == 0 {
		e.beginRoundEndLocked(room)
		return
	}
	room.CurrentTurnIndex = (room.CurrentTurnIndex + 1) % len(room.TurnOrder)

	if len(room.OpenableBoxNumbers()) == 0 {
		e.beginRoundEndLocked(room)
		return
	}
	e.armTurnLocked(room)
}

// OpenBox accepts a box-open from the current turn holder. Cancels the
// turn timer, flips the box, and either arms the next turn or starts the
// round-end sequence when the round's quota is met or no box remains.
func (e *Engine) OpenBox(room *state.Room, actorID string, boxNumber int) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhasePlaying {
		return ErrWrongPhase
	}
	if room.CurrentTurnPlayerID != actorID {
		return ErrNotActor
	}
	actor, ok := room.Players[actorID]
	if !ok || !actor.CanOpenBox() {
		return ErrNotActor
	}
	if boxNumber < 1 || boxNumber > len(room.Boxes) {
		return ErrBoxOutOfRange
	}

	box := &room.Boxes[boxNumber-1]
	owned := room.OwnedBoxNumbers()
	if !box.IsOpenable(owned) {
		return ErrBoxNotOpenable
	}

	if room.TurnTimer != nil {
		room.TurnTimer.Stop()
		room.TurnTimer = nil
	}

	box.IsOpened = true
	box.OpenedByPlayerID = actorID
	room.EliminatedValues = append(room.EliminatedValues, box.Value)
	room.RemainingValues = removeOne(room.RemainingValues, box.Value)
	room.BoxesOpenedThisRound = append(room.BoxesOpenedThisRound, box.Number)

	reveal := &projector.RecentlyOpenedBox{BoxNumber: box.Number, Value: box.Value}

	quotaMet := len(room.BoxesOpenedThisRound) >= config.RoundPlan(room.CurrentRound)
	noneLeft := len(room.OpenableBoxNumbers()) == 0

	if quotaMet || noneLeft {
		if len(room.TurnOrder) > 0 {
			room.CurrentTurnIndex = (room.CurrentTurnIndex + 1) % len(room.TurnOrder)
		}
		room.CurrentTurnPlayerID = ""
		room.TurnExpiresAt = time.Time{}
		e.broadcastLocked(room, reveal)
		e.scheduleRoundEndLocked(room)
		return nil
	}

	room.CurrentTurnIndex = (room.CurrentTurnIndex + 1) % len(room.TurnOrder)
	playerID := room.TurnOrder[room.CurrentTurnIndex]
	room.CurrentTurnPlayerID = playerID
	room.TurnExpiresAt = time.Now().Add(config.TurnDuration)

	code := room.Code
	room.TurnTimer = time.AfterFunc(config.TurnDuration, func() {
		e.onTurnTimeout(code, playerID)
	})

	e.broadcastLocked(room, reveal)
	return nil
}

// scheduleRoundEndLocked arms the cosmetic pause between the last box open
// of a round and offer generation.
func (e *Engine) scheduleRoundEndLocked(room *state.Room) {
	code := room.Code
	if room.RoundTimer != nil {
		room.RoundTimer.Stop()
	}
	room.RoundTimer = time.AfterFunc(config.RoundEndPause, func() {
		e.onRoundEndPause(code)
	})
}

// beginRoundEndLocked routes directly to the round-end sequence without a
// box-open having just occurred — the deadlock-check and
// no-active-players paths.
func (e *Engine) beginRoundEndLocked(room *state.Room) {
	room.CurrentTurnPlayerID = ""
	room.TurnExpiresAt = time.Time{}
	e.broadcastLocked(room, nil)
	e.scheduleRoundEndLocked(room)
}

func (e *Engine) onRoundEndPause(roomCode string) {
	room := e.roomByCode(roomCode)
	if room == nil {
		return
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhasePlaying {
		return
	}
	room.RoundTimer = nil
	e.startOfferLocked(room)
}

// removeOne removes the first occurrence of v from vs, returning a new
// slice. The ladder may contain duplicate values, so this must not remove
// by value-equality alone across unrelated entries beyond the one box.
func removeOne(vs []float64, v float64) []float64 {
	for i, x := range vs {
		if x == v {
			return append(append([]float64{}, vs[:i]...), vs[i+1:]...)
		}
	}
	return vs
}
