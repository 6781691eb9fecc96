package projector

import (
	"boxdrop/game"
	"boxdrop/state"
)

// LeaderEntry is one row of a per-room leaderboard push, provisional
// (leaderboard-update) or final (game-ended).
type LeaderEntry struct {
	PlayerID    string  `json:"playerId"`
	PlayerName  string  `json:"playerName"`
	Amount      float64 `json:"amount"`
	Points      int     `json:"points"`
	WasBoxValue bool    `json:"wasBoxValue"`
	Rank        int     `json:"rank"`
}

// RoomLeaderboard ranks every contestant in room who has already dealt.
// Used both for the provisional in-progress snapshot (settled players only)
// and the final snapshot after every contestant has dealt.
func RoomLeaderboard(room *state.Room) []LeaderEntry {
	type payload struct {
		id          string
		name        string
		amount      float64
		wasBoxValue bool
	}

	entries := make([]game.RankEntry[payload], 0, len(room.PlayerOrder))
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		if p.Role != state.RoleContestant || !p.HasDealt || p.DealAmount == nil {
			continue
		}
		entries = append(entries, game.RankEntry[payload]{
			Points: p.Points,
			Value: payload{
				id:          p.ID,
				name:        p.DisplayName,
				amount:      *p.DealAmount,
				wasBoxValue: p.IsLastStanding,
			},
		})
	}

	ranked := game.Rank(entries)
	out := make([]LeaderEntry, len(ranked))
	for i, r := range ranked {
		out[i] = LeaderEntry{
			PlayerID:    r.Value.id,
			PlayerName:  r.Value.name,
			Amount:      r.Value.amount,
			Points:      r.Points,
			WasBoxValue: r.Value.wasBoxValue,
			Rank:        r.Rank,
		}
	}
	return out
}

// GlobalEntry is one row of the process-lifetime global leaderboard push.
type GlobalEntry struct {
	Rank        int    `json:"rank"`
	PublicID    string `json:"publicId"`
	PlayerName  string `json:"playerName"`
	TotalPoints int    `json:"totalPoints"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// GlobalLeaderboard ranks a store's already-capped top-N entries.
func GlobalLeaderboard(entries []state.GlobalLeaderboardEntry) []GlobalEntry {
	type payload struct {
		publicID string
		name     string
		games    int
	}

	rankEntries := make([]game.RankEntry[payload], len(entries))
	for i, e := range entries {
		rankEntries[i] = game.RankEntry[payload]{
			Points: e.TotalPoints,
			Value:  payload{publicID: e.PublicID, name: e.DisplayName, games: e.GamesPlayed},
		}
	}

	ranked := game.Rank(rankEntries)
	out := make([]GlobalEntry, len(ranked))
	for i, r := range ranked {
		out[i] = GlobalEntry{
			Rank:        r.Rank,
			PublicID:    r.Value.publicID,
			PlayerName:  r.Value.name,
			TotalPoints: r.Points,
			GamesPlayed: r.Value.games,
		}
	}
	return out
}
