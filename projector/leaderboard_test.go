package projector

import (
	"testing"

	"boxdrop/state"
)

func TestRoomLeaderboardOnlyIncludesDealtContestants(t *testing.T) {
	room, host := newTestRoom()
	amount := 500.0
	host.HasDealt = true
	host.DealAmount = &amount
	host.Points = 42

	joiner := state.NewContestant("j1", "conn-2", "Joiner", false)
	room.AddPlayer(joiner) // not dealt yet

	entries := RoomLeaderboard(room)
	if len(entries) != 1 || entries[0].PlayerID != "h1" {
		t.Fatalf("expected only the dealt host included, got %+v", entries)
	}
	if entries[0].Rank != 1 {
		t.Fatalf("expected single entry ranked 1st, got %d", entries[0].Rank)
	}
}

func TestGlobalLeaderboardRanksByTotalPoints(t *testing.T) {
	entries := []state.GlobalLeaderboardEntry{
		{PlayerID: "p1", DisplayName: "Alice", PublicID: "Alice#AAAA", TotalPoints: 50, GamesPlayed: 1},
		{PlayerID: "p2", DisplayName: "Bob", PublicID: "Bob#BBBB", TotalPoints: 200, GamesPlayed: 3},
	}
	ranked := GlobalLeaderboard(entries)
	if ranked[0].PublicID != "Bob#BBBB" || ranked[0].Rank != 1 {
		t.Fatalf("expected Bob ranked first, got %+v", ranked[0])
	}
}
