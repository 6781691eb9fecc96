package state

// GlobalLeaderboardEntry is one process-lifetime leaderboard row, keyed by
// stable player id and independent of any room's lifetime.
type GlobalLeaderboardEntry struct {
	PlayerID    string
	DisplayName string
	PublicID    string
	TotalPoints int
	GamesPlayed int
}
