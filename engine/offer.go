package engine

import (
	"time"

	"boxdrop/config"
	"boxdrop/game"
	"boxdrop/state"
)

// startOfferLocked computes a banker offer over currently remaining values,
// captures the eligible contestant set, and arms the offer timer. Callers
// hold room.Mu.
func (e *Engine) startOfferLocked(room *state.Room) {
	room.Phase = state.PhaseOffer
	room.HasCurrentOffer = true
	room.CurrentOffer = game.Offer(e.rng, append([]float64{}, room.RemainingValues...), room.CurrentRound)
	room.OfferExpiresAt = time.Now().Add(config.OfferDuration)

	eligible := map[string]bool{}
	for _, id := range room.ActiveContestantIDs() {
		eligible[id] = true
	}
	room.OfferEligiblePlayerIDs = eligible
	room.OfferResponses = map[string]bool{}

	code := room.Code
	room.OfferTimer = time.AfterFunc(config.OfferDuration, func() {
		e.onOfferTimeout(code)
	})

	e.broadcastLocked(room, nil)
	e.bc.BroadcastLeaderboard(room, false)
}

// DealResponse records a contestant's accept/reject of the current offer.
func (e *Engine) DealResponse(room *state.Room, actorID string, accepted bool) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhaseOffer {
		return ErrNotOfferPhase
	}
	if !room.OfferEligiblePlayerIDs[actorID] {
		return ErrNotActor
	}
	if _, responded := room.OfferResponses[actorID]; responded {
		return ErrAlreadyResponded
	}
	room.OfferResponses[actorID] = accepted

	if accepted {
		e.settleDealLocked(room, actorID, room.CurrentOffer, false)
	}

	e.broadcastLocked(room, nil)
	e.bc.BroadcastLeaderboard(room, false)

	if e.allEligibleRespondedLocked(room) {
		e.cancelOfferTimerLocked(room)
		e.resolveOfferLocked(room)
	}
	return nil
}

func (e *Engine) allEligibleRespondedLocked(room *state.Room) bool {
	for id := range room.OfferEligiblePlayerIDs {
		if _, ok := room.OfferResponses[id]; !ok {
			return false
		}
	}
	return true
}

func (e *Engine) cancelOfferTimerLocked(room *state.Room) {
	if room.OfferTimer != nil {
		room.OfferTimer.Stop()
		room.OfferTimer = nil
	}
}

// onOfferTimeout fires config.OfferDuration after an offer was armed.
// Non-responders become implicit rejections and accrue a timeout.
func (e *Engine) onOfferTimeout(roomCode string) {
	room := e.roomByCode(roomCode)
	if room == nil {
		return
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != state.PhaseOffer {
		return
	}
	room.OfferTimer = nil

	for id := range room.OfferEligiblePlayerIDs {
		if _, responded := room.OfferResponses[id]; !responded {
			room.OfferResponses[id] = false
			if p, ok := room.Players[id]; ok {
				p.TimeoutCount++
			}
		}
	}
	e.resolveOfferLocked(room)
}

// settleDealLocked marks a contestant dealt, reveals their personal box,
// and removes them from the turn rotation, preserving currentTurnIndex's
// relative position per the spec's rotation-fairness rule.
func (e *Engine) settleDealLocked(room *state.Room, playerID string, amount float64, lastStanding bool) {
	p := room.Players[playerID]
	p.HasDealt = true
	dealt := amount
	p.DealAmount = &dealt
	round := room.CurrentRound
	p.RoundDealt = &round
	p.IsLastStanding = lastStanding

	if p.BoxNumber != nil {
		box := &room.Boxes[*p.BoxNumber-1]
		if !box.IsOpened {
			box.IsOpened = true
			box.OpenedByPlayerID = playerID
			room.RemainingValues = removeOne(room.RemainingValues, box.Value)
			room.EliminatedValues = append(room.EliminatedValues, box.Value)
		}
		p.BoxValue = &box.Value
	}

	for i, id := range room.TurnOrder {
		if id == playerID {
			room.TurnOrder = append(room.TurnOrder[:i], room.TurnOrder[i+1:]...)
			if i <= room.CurrentTurnIndex && room.CurrentTurnIndex > 0 {
				room.CurrentTurnIndex--
			}
			break
		}
	}

	// Provisional score so in-progress leaderboard pushes show something
	// meaningful for already-settled players. finaliseLocked recomputes
	// every contestant's score once isHighestWinnings is knowable.
	p.Points = game.Score(game.Outcome{
		FinalWinnings:  *p.DealAmount,
		FinalBoxValue:  *p.BoxValue,
		RoundDealt:     *p.RoundDealt,
		IsLastStanding: p.IsLastStanding,
		TimeoutCount:   p.TimeoutCount,
	})
}

// resolveOfferLocked runs once every eligible contestant has responded (or
// the offer deadline fired): finalise if everyone has dealt, auto-reveal
// the last contestant if exactly one remains, or start the next round.
func (e *Engine) resolveOfferLocked(room *state.Room) {
	active := room.ActiveContestantIDs()

	switch len(active) {
	case 0:
		e.finaliseLocked(room)
	case 1:
		e.settleDealLocked(room, active[0], 0, true)
		last := room.Players[active[0]]
		if last.BoxValue != nil {
			last.DealAmount = last.BoxValue
		}
		e.finaliseLocked(room)
	default:
		room.CurrentRound++
		room.BoxesOpenedThisRound = nil
		room.HasCurrentOffer = false
		room.CurrentOffer = 0
		room.OfferExpiresAt = time.Time{}
		room.OfferEligiblePlayerIDs = map[string]bool{}
		room.OfferResponses = map[string]bool{}
		room.Phase = state.PhasePlaying
		e.armTurnOrRouteToOfferLocked(room)
	}
}

// finaliseLocked scores every contestant, upserts the global leaderboard,
// transitions to finished, and cancels any remaining timers.
func (e *Engine) finaliseLocked(room *state.Room) {
	room.CancelTimers()
	room.Phase = state.PhaseFinished
	room.FinishedAt = time.Now()
	room.HasCurrentOffer = false
	room.CurrentTurnPlayerID = ""
	room.TurnExpiresAt = time.Time{}

	maxWinnings := -1.0
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		if p.Role != state.RoleContestant || p.DealAmount == nil {
			continue
		}
		if *p.DealAmount > maxWinnings {
			maxWinnings = *p.DealAmount
		}
	}

	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		if p.Role != state.RoleContestant || p.BoxNumber == nil {
			continue
		}
		finalWinnings := 0.0
		if p.DealAmount != nil {
			finalWinnings = *p.DealAmount
		}
		finalBoxValue := 0.0
		if p.BoxValue != nil {
			finalBoxValue = *p.BoxValue
		} else {
			finalBoxValue = room.Boxes[*p.BoxNumber-1].Value
		}
		roundDealt := room.CurrentRound
		if p.RoundDealt != nil {
			roundDealt = *p.RoundDealt
		}

		p.Points = game.Score(game.Outcome{
			FinalWinnings:     finalWinnings,
			FinalBoxValue:     finalBoxValue,
			RoundDealt:        roundDealt,
			IsLastStanding:    p.IsLastStanding,
			IsHighestWinnings: p.DealAmount != nil && *p.DealAmount == maxWinnings,
			TimeoutCount:      p.TimeoutCount,
		})

		e.store.UpdateGlobal(p.ID, p.DisplayName, p.Points)
	}

	e.broadcastLocked(room, nil)
	e.bc.BroadcastLeaderboard(room, true)
}
