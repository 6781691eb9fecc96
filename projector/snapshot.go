// Package projector converts authoritative room state into per-recipient
// snapshots that redact secrets: unopened box values, and any offer or
// turn sub-state that doesn't apply outside its owning phase.
package projector

import (
	"boxdrop/config"
	"boxdrop/state"
)

// PlayerView is the public projection of one Player.
type PlayerView struct {
	ID           string
	DisplayName  string
	IsHost       bool
	Role         state.Role
	IsReady      bool
	IsConnected  bool
	BoxNumber    *int
	HasDealt     bool
	DealAmount   *float64
	RoundDealt   *int
	IsLastStanding bool
	TimeoutCount int
	Points       int
	IsActive     bool
}

// BoxView is the public projection of one Box. Value is populated only
// once the box is opened; unopened boxes never leak it.
type BoxView struct {
	Number       int
	IsOpened     bool
	Value        *float64
	IsPlayerBox  bool
	OwnerID      string
}

// RecentlyOpenedBox piggybacks on the broadcast that first reveals a box,
// and is never repeated on subsequent broadcasts.
type RecentlyOpenedBox struct {
	BoxNumber int
	Value     float64
}

// Snapshot is the full per-recipient view of a room, the payload behind a
// game-state-update push.
type Snapshot struct {
	Phase                state.Phase
	CurrentRound         int
	BoxesToOpenThisRound int
	BoxesOpenedThisRound []int
	RemainingValues      []float64
	EliminatedValues     []float64

	Players []PlayerView
	Boxes   []BoxView

	HasCurrentOffer bool
	CurrentOffer    float64
	OfferExpiresAt  int64 // epoch ms, 0 if not set

	CurrentTurnPlayerID string
	TurnExpiresAt       int64 // epoch ms, 0 if not set

	RecentlyOpenedBox *RecentlyOpenedBox
}

// Project builds a Snapshot of room for recipientPlayerID. Read-only and
// idempotent: calling it twice under the same lock yields equal values.
// recentlyOpened is attached verbatim; callers pass nil except on the
// broadcast that triggered a reveal. Callers must hold room.Mu.
func Project(room *state.Room, recipientPlayerID string, recentlyOpened *RecentlyOpenedBox) Snapshot {
	recipient := room.Players[recipientPlayerID]
	var recipientBoxNumber int
	if recipient != nil && recipient.BoxNumber != nil {
		recipientBoxNumber = *recipient.BoxNumber
	}

	players := make([]PlayerView, 0, len(room.PlayerOrder))
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		players = append(players, PlayerView{
			ID:             p.ID,
			DisplayName:    p.DisplayName,
			IsHost:         p.IsHost,
			Role:           p.Role,
			IsReady:        p.IsReady,
			IsConnected:    p.IsConnected,
			BoxNumber:      p.BoxNumber,
			HasDealt:       p.HasDealt,
			DealAmount:     p.DealAmount,
			RoundDealt:     p.RoundDealt,
			IsLastStanding: p.IsLastStanding,
			TimeoutCount:   p.TimeoutCount,
			Points:         p.Points,
			IsActive:       p.IsActive(),
		})
	}

	boxes := make([]BoxView, 0, len(room.Boxes))
	for i := range room.Boxes {
		b := &room.Boxes[i]
		view := BoxView{
			Number:      b.Number,
			IsOpened:    b.IsOpened,
			IsPlayerBox: b.Number == recipientBoxNumber && recipientBoxNumber != 0,
			OwnerID:     b.OpenedByPlayerID,
		}
		if b.IsOpened {
			v := b.Value
			view.Value = &v
		}
		boxes = append(boxes, view)
	}

	snap := Snapshot{
		Phase:                room.Phase,
		CurrentRound:         room.CurrentRound,
		BoxesToOpenThisRound: config.RoundPlan(room.CurrentRound),
		BoxesOpenedThisRound: append([]int{}, room.BoxesOpenedThisRound...),
		RemainingValues:      append([]float64{}, room.RemainingValues...),
		EliminatedValues:     append([]float64{}, room.EliminatedValues...),
		Players:              players,
		Boxes:                boxes,
		HasCurrentOffer:      room.HasCurrentOffer,
		CurrentOffer:         room.CurrentOffer,
		CurrentTurnPlayerID:  room.CurrentTurnPlayerID,
		RecentlyOpenedBox:    recentlyOpened,
	}
	if room.HasCurrentOffer && !room.OfferExpiresAt.IsZero() {
		snap.OfferExpiresAt = room.OfferExpiresAt.UnixMilli()
	}
	if room.CurrentTurnPlayerID != "" && !room.TurnExpiresAt.IsZero() {
		snap.TurnExpiresAt = room.TurnExpiresAt.UnixMilli()
	}
	return snap
}
