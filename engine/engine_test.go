package engine

import (
	"testing"

	"boxdrop/projector"
	"boxdrop/rng"
	"boxdrop/state"
)

// recordingBroadcaster satisfies Broadcaster without doing any transport
// I/O; tests inspect the room directly instead of decoded wire payloads.
type recordingBroadcaster struct {
	stateBroadcasts int
	leaderboards    int
	finalLeaderboards int
}

func (r *recordingBroadcaster) BroadcastState(room *state.Room, recentlyOpened *projector.RecentlyOpenedBox) {
	r.stateBroadcasts++
}

func (r *recordingBroadcaster) BroadcastLeaderboard(room *state.Room, final bool) {
	r.leaderboards++
	if final {
		r.finalLeaderboards++
	}
}

func (r *recordingBroadcaster) PushLeaderboardSnapshot(room *state.Room, recipientPlayerID string) {}

func newTestEngine() (*Engine, *state.Store, *recordingBroadcaster) {
	store := state.New(state.DefaultTTLs(), rng.New(11))
	bc := &recordingBroadcaster{}
	eng := New(store, rng.New(11), bc)
	return eng, store, bc
}

// setUpTwoPlayerGame creates a room with host H and joiner J, assigns boxes
// 1 and 20, marks both ready, and starts the game.
func setUpTwoPlayerGame(t *testing.T, eng *Engine, store *state.Store) (room *state.Room, hostID, joinerID string) {
	t.Helper()
	room, hostID, err := store.Create("conn-h", "H")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, joinerID, err = store.Join(room.Code, "conn-j", "J", state.JoinOptions{})
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if err := eng.SelectBox(room, hostID, 1); err != nil {
		t.Fatalf("SelectBox(H) error = %v", err)
	}
	if err := eng.SelectBox(room, joinerID, 20); err != nil {
		t.Fatalf("SelectBox(J) error = %v", err)
	}
	if err := eng.PlayerReady(room, hostID); err != nil {
		t.Fatalf("PlayerReady(H) error = %v", err)
	}
	if err := eng.PlayerReady(room, joinerID); err != nil {
		t.Fatalf("PlayerReady(J) error = %v", err)
	}
	if err := eng.StartGame(room, hostID); err != nil {
		t.Fatalf("StartGame() error = %v", err)
	}
	return room, hostID, joinerID
}

// playOutRound opens boxes with whichever contestant holds the turn until
// an offer is generated (round 1's quota is 5).
func playOutRound(t *testing.T, eng *Engine, room *state.Room) {
	t.Helper()
	opened := 0
	for opened < 5 {
		room.Mu.Lock()
		turnPlayer := room.CurrentTurnPlayerID
		owned := room.OwnedBoxNumbers()
		var box int
		for i := range room.Boxes {
			b := &room.Boxes[i]
			if b.IsOpenable(owned) {
				box = b.Number
				break
			}
		}
		room.Mu.Unlock()

		if err := eng.OpenBox(room, turnPlayer, box); err != nil {
			t.Fatalf("OpenBox() error = %v", err)
		}
		opened++
	}

	// the round-end pause is a cosmetic delay before offer generation;
	// invoke it directly instead of sleeping out the real timer
	eng.onRoundEndPause(room.Code)
}

func TestTwoPlayerGameBothAcceptEndsGame(t *testing.T) {
	eng, store, bc := newTestEngine()
	room, hostID, joinerID := setUpTwoPlayerGame(t, eng, store)
	playOutRound(t, eng, room)

	room.Mu.Lock()
	if room.Phase != state.PhaseOffer {
		room.Mu.Unlock()
		t.Fatalf("expected offer phase after round 1, got %v", room.Phase)
	}
	room.Mu.Unlock()

	if err := eng.DealResponse(room, hostID, true); err != nil {
		t.Fatalf("DealResponse(H) error = %v", err)
	}
	if err := eng.DealResponse(room, joinerID, true); err != nil {
		t.Fatalf("DealResponse(J) error = %v", err)
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Phase != state.PhaseFinished {
		t.Fatalf("expected finished phase, got %v", room.Phase)
	}
	if bc.finalLeaderboards != 1 {
		t.Fatalf("expected exactly one final leaderboard push, got %d", bc.finalLeaderboards)
	}
	for _, id := range []string{hostID, joinerID} {
		p := room.Players[id]
		if !p.HasDealt || p.DealAmount == nil || *p.RoundDealt != 1 {
			t.Fatalf("expected %s dealt in round 1, got %+v", id, p)
		}
	}
}

func TestBothRejectAdvancesRoundWithoutEnding(t *testing.T) {
	eng, store, _ := newTestEngine()
	room, hostID, joinerID := setUpTwoPlayerGame(t, eng, store)
	playOutRound(t, eng, room)

	if err := eng.DealResponse(room, hostID, false); err != nil {
		t.Fatalf("DealResponse(H) error = %v", err)
	}
	if err := eng.DealResponse(room, joinerID, false); err != nil {
		t.Fatalf("DealResponse(J) error = %v", err)
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Phase == state.PhaseFinished {
		t.Fatalf("expected game to continue, not finish")
	}
	if room.CurrentRound != 2 {
		t.Fatalf("expected round 2, got %d", room.CurrentRound)
	}
}

func TestLastStandingAutoRevealsOnAsymmetricResponse(t *testing.T) {
	eng, store, _ := newTestEngine()
	room, hostID, joinerID := setUpTwoPlayerGame(t, eng, store)
	playOutRound(t, eng, room)

	if err := eng.DealResponse(room, hostID, true); err != nil {
		t.Fatalf("DealResponse(H) error = %v", err)
	}
	if err := eng.DealResponse(room, joinerID, false); err != nil {
		t.Fatalf("DealResponse(J) error = %v", err)
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Phase != state.PhaseFinished {
		t.Fatalf("expected finished phase, got %v", room.Phase)
	}
	j := room.Players[joinerID]
	if !j.IsLastStanding || j.DealAmount == nil || j.BoxValue == nil || *j.DealAmount != *j.BoxValue {
		t.Fatalf("expected joiner settled as last-standing with dealAmount==boxValue, got %+v", j)
	}
	if !room.Boxes[19].IsOpened {
		t.Fatalf("expected joiner's personal box (20) revealed")
	}
}

func TestTurnTimeoutSkipsToNextPlayer(t *testing.T) {
	eng, store, _ := newTestEngine()
	room, hostID, joinerID := setUpTwoPlayerGame(t, eng, store)

	room.Mu.Lock()
	firstTurn := room.CurrentTurnPlayerID
	timer := room.TurnTimer
	room.Mu.Unlock()
	if timer == nil {
		t.Fatalf("expected a turn timer armed")
	}

	// force the timeout path directly rather than sleeping 20s in a test
	eng.onTurnTimeout(room.Code, firstTurn)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	other := hostID
	if firstTurn == hostID {
		other = joinerID
	}
	if room.CurrentTurnPlayerID != other {
		t.Fatalf("expected turn to pass to %s, got %s", other, room.CurrentTurnPlayerID)
	}
	if room.Players[firstTurn].TimeoutCount != 1 {
		t.Fatalf("expected timed-out player's timeoutCount == 1, got %d", room.Players[firstTurn].TimeoutCount)
	}
	if len(room.BoxesOpenedThisRound) != 0 {
		t.Fatalf("expected no box auto-opened on turn timeout")
	}
}

func TestOfferTimeoutPenalisesNonResponders(t *testing.T) {
	eng, store, _ := newTestEngine()
	room, hostID, joinerID := setUpTwoPlayerGame(t, eng, store)
	playOutRound(t, eng, room)

	if err := eng.DealResponse(room, joinerID, true); err != nil {
		t.Fatalf("DealResponse(J) error = %v", err)
	}

	eng.onOfferTimeout(room.Code)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Phase != state.PhaseFinished {
		t.Fatalf("expected finished phase after offer timeout, got %v", room.Phase)
	}
	if room.Players[hostID].TimeoutCount != 1 {
		t.Fatalf("expected host timeoutCount == 1, got %d", room.Players[hostID].TimeoutCount)
	}
	if !room.Players[hostID].IsLastStanding {
		t.Fatalf("expected host settled as last-standing")
	}
}

func TestReconnectPreservesIdentityAndRoom(t *testing.T) {
	store := state.New(state.DefaultTTLs(), rng.New(1))
	room, hostID, _ := store.Create("conn-1", "H")
	store.HandleDisconnect("conn-1")

	got, err := store.Reconnect(hostID, "conn-new")
	if err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if got.Code != room.Code {
		t.Fatalf("expected same room on reconnect")
	}
	if room.Players[hostID].ConnectionID != "conn-new" {
		t.Fatalf("expected connection rebound")
	}
}
