package state

// Role tags a player as a contestant who can act, or a spectator who can
// only observe. A tagged variant rather than a subclass: eligibility checks
// key off Role plus the capability predicates below.
type Role string

const (
	RoleContestant Role = "contestant"
	RoleSpectator  Role = "spectator"
)

// Player is one occupant of a Room. Name is immutable after creation;
// BoxNumber is set during waiting|selection and frozen once IsReady;
// HasDealt is monotonic once true. The entity lives until the owning Room
// is deleted, surviving transport disconnects.
type Player struct {
	ID           string
	ConnectionID string
	DisplayName  string
	IsHost       bool
	Role         Role
	IsReady      bool
	IsConnected  bool

	// Contestant-only fields. BoxNumber, DealAmount, BoxValue and
	// RoundDealt are nil until the corresponding event occurs.
	BoxNumber      *int
	HasDealt       bool
	DealAmount     *float64
	BoxValue       *float64
	RoundDealt     *int
	IsLastStanding bool
	TimeoutCount   int
	Points         int
}

// NewSpectator constructs a spectator. Spectators are marked ready and
// dealt so they are inert to every contestant-only check.
func NewSpectator(id, connectionID, displayName string) *Player {
	return &Player{
		ID:           id,
		ConnectionID: connectionID,
		DisplayName:  displayName,
		Role:         RoleSpectator,
		IsReady:      true,
		HasDealt:     true,
		IsConnected:  true,
	}
}

// NewContestant constructs a contestant, not yet ready and without a box.
func NewContestant(id, connectionID, displayName string, isHost bool) *Player {
	return &Player{
		ID:           id,
		ConnectionID: connectionID,
		DisplayName:  displayName,
		IsHost:       isHost,
		Role:         RoleContestant,
		IsConnected:  true,
	}
}

// CanOpenBox reports whether this player may currently be the turn holder.
func (p *Player) CanOpenBox() bool {
	return p.Role == RoleContestant && !p.HasDealt
}

// CanChat reports whether this player may post chat messages.
func (p *Player) CanChat() bool {
	return p.Role == RoleContestant
}

// CanStartGame reports whether this player may trigger start-game.
func (p *Player) CanStartGame() bool {
	return p.IsHost
}

// IsActive reports whether a contestant still has skin in the game: a box
// chosen and not yet dealt.
func (p *Player) IsActive() bool {
	return p.Role == RoleContestant && p.BoxNumber != nil && !p.HasDealt
}

// PublicID is the stable, human-shareable identity shown on the global
// leaderboard: the display name plus the last four characters of the
// player's id, uppercased.
func (p *Player) PublicID() string {
	return PublicID(p.ID, p.DisplayName)
}

// PublicID derives the "name#XXXX" public identity from a raw player id and
// display name, without requiring a live Player value.
func PublicID(playerID, displayName string) string {
	suffix := playerID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return displayName + "#" + upper(suffix)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
