package config

import "time"

/* =========================
   BOX VALUE LADDER
========================= */

// BoxValueLadder is the fixed set of 20 monetary values shuffled into boxes
// at the start of every game. Identical across every room.
var BoxValueLadder = [20]float64{
	0.01, 1, 5, 10, 25, 50, 75, 100, 200, 300,
	400, 500, 750, 1000, 5000, 10000, 25000, 50000, 100000, 250000,
}

/* =========================
   ROUND PLAN
========================= */

// RoundPlan returns how many boxes must be opened during round r before an
// offer is generated. Rounds beyond the table open a single box each.
func RoundPlan(round int) int {
	switch round {
	case 1:
		return 5
	case 2:
		return 4
	case 3:
		return 3
	case 4:
		return 2
	default:
		return 1
	}
}

// BankerModifier is the per-round baseline applied to the average of the
// remaining values before the random factor. Rounds past the table reuse
// the last entry.
var BankerModifier = [6]float64{0.70, 0.80, 0.90, 0.95, 1.00, 1.05}

func BankerModifierForRound(round int) float64 {
	idx := round - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(BankerModifier) {
		idx = len(BankerModifier) - 1
	}
	return BankerModifier[idx]
}

/* =========================
   TIMEOUTS
========================= */

const (
	TurnDuration  = 20 * time.Second
	OfferDuration = 20 * time.Second
	RoundEndPause = 1500 * time.Millisecond

	DefaultCleanupInterval = 10 * time.Minute
	WaitingRoomTTL         = 12 * time.Hour
	SelectionRoomTTL       = 12 * time.Hour
	FinishedRoomTTL        = 2 * time.Hour
)

/* =========================
   LIMITS
========================= */

const (
	MinContestants     = 2
	MaxContestants     = 6
	MaxDisplayNameLen  = 16
	MaxPasswordLen     = 64
	MaxChatMessageLen  = 500
	ChatHistorySize    = 100
	GlobalLeaderboardCap = 100
	RoomCodeLength     = 6
)

/* =========================
   ROOM CODE ALPHABET
========================= */

// RoomCodeAlphabet excludes visually ambiguous characters (0, 1, I, O).
const RoomCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

/* =========================
   NAME SANITISATION
========================= */

// BannedSubstrings are matched case-insensitively against display names;
// any match triggers vowel-masking of the whole name (see game.Sanitise).
var BannedSubstrings = []string{
	"fuck", "shit", "bitch", "cunt", "nigger", "faggot", "retard",
	"admin", "moderator", "host",
}
