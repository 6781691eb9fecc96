package state

import (
	"sync"
	"time"

	"boxdrop/config"
	"boxdrop/game"
	"boxdrop/rng"
)

// Phase is a room's position in the waiting -> selection -> playing ->
// offer -> (playing | finished) state machine.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseSelection Phase = "selection"
	PhasePlaying   Phase = "playing"
	PhaseOffer     Phase = "offer"
	PhaseFinished  Phase = "finished"
)

// Room is the authoritative, mutex-guarded state of one game. Every
// mutation — engine-driven or timer-driven — happens while the caller
// holds Mu. The Room owns its Players and Boxes exclusively.
type Room struct {
	Mu sync.Mutex

	Code         string
	HostPlayerID string
	Password     string
	HasPassword  bool
	CreatedAt    time.Time
	StartedAt    time.Time
	FinishedAt   time.Time

	Phase Phase

	// PlayerOrder is insertion order; turn derivation depends on it.
	PlayerOrder []string
	Players     map[string]*Player

	Boxes [20]Box

	CurrentRound         int
	BoxesOpenedThisRound []int

	RemainingValues  []float64
	EliminatedValues []float64

	HasCurrentOffer        bool
	CurrentOffer           float64
	OfferExpiresAt         time.Time
	OfferEligiblePlayerIDs map[string]bool
	OfferResponses         map[string]bool

	TurnOrder           []string
	CurrentTurnIndex    int
	CurrentTurnPlayerID string
	TurnExpiresAt       time.Time

	Chat []ChatMessage

	// Timer handles. Arming a new timer of a class cancels and replaces
	// the prior one; fired timers must revalidate state before acting.
	TurnTimer  *time.Timer
	OfferTimer *time.Timer
	RoundTimer *time.Timer
}

// NewRoom constructs a room in the waiting phase with a freshly shuffled
// box ladder and the given player installed as host.
func NewRoom(code string, src rng.Source, host *Player) *Room {
	values := game.NewShuffledBoxValues(src)
	var boxes [20]Box
	remaining := make([]float64, 0, len(values))
	for i, v := range values {
		boxes[i] = Box{Number: i + 1, Value: v}
		remaining = append(remaining, v)
	}

	r := &Room{
		Code:                   code,
		HostPlayerID:           host.ID,
		CreatedAt:              time.Now(),
		Phase:                  PhaseWaiting,
		PlayerOrder:            []string{host.ID},
		Players:                map[string]*Player{host.ID: host},
		Boxes:                  boxes,
		RemainingValues:        remaining,
		EliminatedValues:       make([]float64, 0, len(values)),
		OfferEligiblePlayerIDs: map[string]bool{},
		OfferResponses:         map[string]bool{},
	}
	return r
}

// AddPlayer appends a player to insertion order and the player map. Callers
// hold the room lock.
func (r *Room) AddPlayer(p *Player) {
	r.PlayerOrder = append(r.PlayerOrder, p.ID)
	r.Players[p.ID] = p
}

// ContestantCount counts players with Role == RoleContestant.
func (r *Room) ContestantCount() int {
	n := 0
	for _, id := range r.PlayerOrder {
		if r.Players[id].Role == RoleContestant {
			n++
		}
	}
	return n
}

// OwnedBoxNumbers returns the set of box numbers reserved as someone's
// personal box, regardless of whether that player has dealt.
func (r *Room) OwnedBoxNumbers() map[int]bool {
	owned := make(map[int]bool, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		if bn := r.Players[id].BoxNumber; bn != nil {
			owned[*bn] = true
		}
	}
	return owned
}

// OpenableBoxNumbers returns every box that is unopened and not reserved as
// a personal box, in ascending order.
func (r *Room) OpenableBoxNumbers() []int {
	owned := r.OwnedBoxNumbers()
	var out []int
	for i := range r.Boxes {
		b := &r.Boxes[i]
		if b.IsOpenable(owned) {
			out = append(out, b.Number)
		}
	}
	return out
}

// RebuildTurnOrder rebuilds TurnOrder as the insertion-ordered list of
// contestants who hold a box and have not dealt. Called at start-game;
// a contestant who later deals is removed from TurnOrder in place.
func (r *Room) RebuildTurnOrder() {
	order := make([]string, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		p := r.Players[id]
		if p.Role == RoleContestant && p.BoxNumber != nil && !p.HasDealt {
			order = append(order, id)
		}
	}
	r.TurnOrder = order
}

// ActiveContestantIDs returns ids of contestants with a box set and not yet
// dealt, in insertion order.
func (r *Room) ActiveContestantIDs() []string {
	var out []string
	for _, id := range r.PlayerOrder {
		if r.Players[id].IsActive() {
			out = append(out, id)
		}
	}
	return out
}

// AppendChat pushes msg onto the room's chat ring buffer, retaining at most
// config.ChatHistorySize messages. Callers hold the room lock.
func (r *Room) AppendChat(msg ChatMessage) {
	r.appendChat(msg, config.ChatHistorySize)
}

// CancelTimers stops every armed timer on the room. Safe to call with any
// subset nil.
func (r *Room) CancelTimers() {
	if r.TurnTimer != nil {
		r.TurnTimer.Stop()
		r.TurnTimer = nil
	}
	if r.OfferTimer != nil {
		r.OfferTimer.Stop()
		r.OfferTimer = nil
	}
	if r.RoundTimer != nil {
		r.RoundTimer.Stop()
		r.RoundTimer = nil
	}
}

// IsIdle reports whether the room is in a phase the cleanup worker is
// allowed to sweep: never playing or offer, which hold live timers.
func (r *Room) IsIdle() bool {
	return r.Phase != PhasePlaying && r.Phase != PhaseOffer
}
