package state

import (
	"strconv"
	"testing"
	"time"

	"boxdrop/config"
	"boxdrop/rng"
)

func newTestStore() *Store {
	return New(DefaultTTLs(), rng.New(7))
}

func TestCreateInstallsHostAsContestant(t *testing.T) {
	s := newTestStore()
	room, playerID, err := s.Create("conn-1", "Host")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(room.Code) != config.RoomCodeLength {
		t.Fatalf("expected a %d-char room code, got %q", config.RoomCodeLength, room.Code)
	}
	if room.Phase != PhaseWaiting {
		t.Fatalf("expected waiting phase, got %v", room.Phase)
	}
	host := room.Players[playerID]
	if host == nil || !host.IsHost || host.Role != RoleContestant {
		t.Fatalf("expected host contestant, got %+v", host)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	s := newTestStore()
	if _, _, err := s.Create("conn-1", "   "); err != ErrNameRequired {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestJoinUnknownRoomFails(t *testing.T) {
	s := newTestStore()
	if _, _, err := s.Join("ZZZZZZ", "conn-2", "Joiner", JoinOptions{}); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinAddsContestantInWaiting(t *testing.T) {
	s := newTestStore()
	room, _, _ := s.Create("conn-1", "Host")

	joined, playerID, err := s.Join(room.Code, "conn-2", "Joiner", JoinOptions{})
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if joined.Code != room.Code {
		t.Fatalf("expected same room, got %q", joined.Code)
	}
	if joined.Players[playerID].Role != RoleContestant {
		t.Fatalf("expected contestant role")
	}
}

func TestJoinRejectsContestantAfterStart(t *testing.T) {
	s := newTestStore()
	room, _, _ := s.Create("conn-1", "Host")
	room.Mu.Lock()
	room.Phase = PhasePlaying
	room.Mu.Unlock()

	if _, _, err := s.Join(room.Code, "conn-2", "Joiner", JoinOptions{}); err != ErrGameInProgress {
		t.Fatalf("expected ErrGameInProgress, got %v", err)
	}
}

func TestJoinAllowsSpectatorDuringPlay(t *testing.T) {
	s := newTestStore()
	room, _, _ := s.Create("conn-1", "Host")
	room.Mu.Lock()
	room.Phase = PhaseOffer
	room.Mu.Unlock()

	joined, playerID, err := s.Join(room.Code, "conn-2", "Watcher", JoinOptions{AsSpectator: true})
	if err != nil {
		t.Fatalf("Join() as spectator error = %v", err)
	}
	p := joined.Players[playerID]
	if p.Role != RoleSpectator || !p.IsReady || !p.HasDealt {
		t.Fatalf("expected inert spectator, got %+v", p)
	}
}

func TestJoinRejectsBadPassword(t *testing.T) {
	s := newTestStore()
	room, hostID, _ := s.Create("conn-1", "Host")
	if err := s.SetPassword(room.Code, hostID, "secret", true); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	if _, _, err := s.Join(room.Code, "conn-2", "Joiner", JoinOptions{Password: "wrong", HasPassword: true}); err != ErrBadPassword {
		t.Fatalf("expected ErrBadPassword, got %v", err)
	}
	if _, _, err := s.Join(room.Code, "conn-2", "Joiner", JoinOptions{Password: "secret", HasPassword: true}); err != nil {
		t.Fatalf("expected correct password to succeed, got %v", err)
	}
}

func TestJoinRejectsFullRoom(t *testing.T) {
	s := newTestStore()
	room, _, _ := s.Create("conn-0", "P0")
	for i := 1; i < config.MaxContestants; i++ {
		if _, _, err := s.Join(room.Code, connID(i), name(i), JoinOptions{}); err != nil {
			t.Fatalf("unexpected error filling room: %v", err)
		}
	}
	if _, _, err := s.Join(room.Code, "conn-overflow", "Overflow", JoinOptions{}); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestSetPasswordRequiresHostAndWaitingPhase(t *testing.T) {
	s := newTestStore()
	room, hostID, _ := s.Create("conn-1", "Host")
	_, joinerID, _ := s.Join(room.Code, "conn-2", "Joiner", JoinOptions{})

	if err := s.SetPassword(room.Code, joinerID, "x", true); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}

	room.Mu.Lock()
	room.Phase = PhasePlaying
	room.Mu.Unlock()
	if err := s.SetPassword(room.Code, hostID, "x", true); err != ErrWrongPhase {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

func TestHandleDisconnectKeepsPlayerResident(t *testing.T) {
	s := newTestStore()
	room, playerID, _ := s.Create("conn-1", "Host")
	s.HandleDisconnect("conn-1")

	room.Mu.Lock()
	p := room.Players[playerID]
	stillThere := p != nil
	connected := p != nil && p.IsConnected
	room.Mu.Unlock()

	if !stillThere {
		t.Fatalf("expected player to remain resident after disconnect")
	}
	if connected {
		t.Fatalf("expected IsConnected=false after disconnect")
	}
}

func TestReconnectRebindsConnection(t *testing.T) {
	s := newTestStore()
	room, playerID, _ := s.Create("conn-1", "Host")
	s.HandleDisconnect("conn-1")

	got, err := s.Reconnect(playerID, "conn-new")
	if err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if got.Code != room.Code {
		t.Fatalf("expected same room back")
	}
	room.Mu.Lock()
	p := room.Players[playerID]
	connID := p.ConnectionID
	connected := p.IsConnected
	room.Mu.Unlock()
	if connID != "conn-new" || !connected {
		t.Fatalf("expected rebind to conn-new and IsConnected=true, got %q/%v", connID, connected)
	}
}

func TestReconnectUnknownPlayerFails(t *testing.T) {
	s := newTestStore()
	if _, err := s.Reconnect("nonexistent", "conn-x"); err != ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestUpdateGlobalAccumulatesAndTopGlobalRanks(t *testing.T) {
	s := newTestStore()
	s.UpdateGlobal("p1", "Alice", 100)
	s.UpdateGlobal("p1", "Alice", 50)
	s.UpdateGlobal("p2", "Bob", 300)

	top := s.TopGlobal()
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].PlayerID != "p2" || top[0].TotalPoints != 300 {
		t.Fatalf("expected Bob first with 300, got %+v", top[0])
	}
	if top[1].PlayerID != "p1" || top[1].TotalPoints != 150 || top[1].GamesPlayed != 2 {
		t.Fatalf("expected Alice accumulated to 150 over 2 games, got %+v", top[1])
	}
}

func TestSweepDeletesOnlyExpiredIdleRooms(t *testing.T) {
	s := New(TTLs{Waiting: time.Hour, Selection: time.Hour, Finished: time.Hour}, rng.New(1))

	fresh, _, _ := s.Create("conn-1", "Fresh")
	stale, _, _ := s.Create("conn-2", "Stale")
	stale.Mu.Lock()
	stale.CreatedAt = time.Now().Add(-2 * time.Hour)
	stale.Mu.Unlock()

	playing, _, _ := s.Create("conn-3", "Playing")
	playing.Mu.Lock()
	playing.Phase = PhasePlaying
	playing.CreatedAt = time.Now().Add(-48 * time.Hour)
	playing.Mu.Unlock()

	deleted := s.Sweep(time.Now())
	if deleted != 1 {
		t.Fatalf("expected 1 room deleted, got %d", deleted)
	}
	if s.Room(stale.Code) != nil {
		t.Fatalf("expected stale room gone")
	}
	if s.Room(fresh.Code) == nil {
		t.Fatalf("expected fresh room to survive")
	}
	if s.Room(playing.Code) == nil {
		t.Fatalf("expected playing room to survive despite age")
	}
}

func connID(i int) string { return "conn-" + strconv.Itoa(i) }
func name(i int) string   { return "P" + strconv.Itoa(i) }
