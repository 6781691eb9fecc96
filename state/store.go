// Package state owns the authoritative in-memory game state: rooms,
// players, boxes, chat history, and the process-lifetime global
// leaderboard. Every room-scoped mutation is serialised by that room's
// mutex; the store's own mutex guards only the cross-room indexes.
package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"boxdrop/config"
	"boxdrop/game"
	"boxdrop/rng"

	"github.com/google/uuid"
)

// Lookup/authorisation errors returned from ack-bearing Store operations.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrBadPassword     = errors.New("incorrect password")
	ErrGameInProgress  = errors.New("game already in progress")
	ErrRoomFull        = errors.New("room is full")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNotHost         = errors.New("not the host")
	ErrWrongPhase      = errors.New("wrong phase for this action")
	ErrNameRequired    = errors.New("player name is required")
	ErrRoomCodeRequired = errors.New("room code is required")
)

// TTLs configures how long idle rooms survive the cleanup sweep.
type TTLs struct {
	Waiting   time.Duration
	Selection time.Duration
	Finished  time.Duration
}

// DefaultTTLs mirrors the constants in the config package.
func DefaultTTLs() TTLs {
	return TTLs{
		Waiting:   config.WaitingRoomTTL,
		Selection: config.SelectionRoomTTL,
		Finished:  config.FinishedRoomTTL,
	}
}

// JoinOptions carries the optional fields of a join-room request.
type JoinOptions struct {
	Password    string
	HasPassword bool
	AsSpectator bool
}

// Store is the process-wide catalog of rooms and the indexes that resolve
// a transport connection down to a room. Lock order is always store first,
// then a room's own lock — never the reverse, and never two room locks at
// once.
type Store struct {
	mu sync.Mutex

	rooms        map[string]*Room
	playerToRoom map[string]string
	connToPlayer map[string]string

	global map[string]*GlobalLeaderboardEntry

	ttls TTLs
	rng  rng.Source
}

// New constructs an empty Store.
func New(ttls TTLs, src rng.Source) *Store {
	return &Store{
		rooms:        map[string]*Room{},
		playerToRoom: map[string]string{},
		connToPlayer: map[string]string{},
		global:       map[string]*GlobalLeaderboardEntry{},
		ttls:         ttls,
		rng:          src,
	}
}

// Create starts a new room with the given connection as host contestant.
func (s *Store) Create(connectionID, name string) (*Room, string, error) {
	name = game.Sanitise(name)
	if name == "" {
		return nil, "", ErrNameRequired
	}

	s.mu.Lock()
	code := s.freshRoomCodeLocked()
	playerID := uuid.NewString()
	host := NewContestant(playerID, connectionID, name, true)
	room := NewRoom(code, s.rng, host)
	s.rooms[code] = room
	s.playerToRoom[playerID] = code
	s.connToPlayer[connectionID] = playerID
	s.mu.Unlock()

	return room, playerID, nil
}

// freshRoomCodeLocked draws room codes until one doesn't collide with a
// live room. Caller holds s.mu.
func (s *Store) freshRoomCodeLocked() string {
	for {
		code := rng.RoomCode(s.rng)
		if _, exists := s.rooms[code]; !exists {
			return code
		}
	}
}

// Join resolves a room by code and adds the connection as a new player,
// contestant or spectator per opts.
func (s *Store) Join(code, connectionID, name string, opts JoinOptions) (*Room, string, error) {
	if code == "" {
		return nil, "", ErrRoomCodeRequired
	}
	name = game.Sanitise(name)
	if name == "" {
		return nil, "", ErrNameRequired
	}

	room := s.lookupRoom(code)
	if room == nil {
		return nil, "", ErrRoomNotFound
	}

	room.Mu.Lock()

	if room.HasPassword && (!opts.HasPassword || opts.Password != room.Password) {
		room.Mu.Unlock()
		return nil, "", ErrBadPassword
	}
	if !opts.AsSpectator {
		if room.Phase != PhaseWaiting {
			room.Mu.Unlock()
			return nil, "", ErrGameInProgress
		}
		if room.ContestantCount() >= config.MaxContestants {
			room.Mu.Unlock()
			return nil, "", ErrRoomFull
		}
	}

	playerID := uuid.NewString()
	var p *Player
	if opts.AsSpectator {
		p = NewSpectator(playerID, connectionID, name)
	} else {
		p = NewContestant(playerID, connectionID, name, false)
	}
	room.AddPlayer(p)
	room.Mu.Unlock()

	s.mu.Lock()
	s.playerToRoom[playerID] = room.Code
	s.connToPlayer[connectionID] = playerID
	s.mu.Unlock()

	return room, playerID, nil
}

// HandleDisconnect marks the player owning connectionID as disconnected
// without deleting it; the player remains resident (AFK) until the room
// itself is swept.
func (s *Store) HandleDisconnect(connectionID string) {
	s.mu.Lock()
	playerID, ok := s.connToPlayer[connectionID]
	if ok {
		delete(s.connToPlayer, connectionID)
	}
	roomCode, hasRoom := "", false
	if ok {
		roomCode, hasRoom = s.playerToRoom[playerID]
	}
	s.mu.Unlock()

	if !ok || !hasRoom {
		return
	}
	room := s.lookupRoom(roomCode)
	if room == nil {
		return
	}
	room.Mu.Lock()
	if p, exists := room.Players[playerID]; exists {
		p.IsConnected = false
	}
	room.Mu.Unlock()
}

// Reconnect rebinds a stable playerId to a new connection.
func (s *Store) Reconnect(playerID, newConnectionID string) (*Room, error) {
	s.mu.Lock()
	roomCode, ok := s.playerToRoom[playerID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrPlayerNotFound
	}
	s.mu.Unlock()

	room := s.lookupRoom(roomCode)
	if room == nil {
		return nil, ErrPlayerNotFound
	}

	room.Mu.Lock()
	p, exists := room.Players[playerID]
	if !exists {
		room.Mu.Unlock()
		return nil, ErrPlayerNotFound
	}
	oldConn := p.ConnectionID
	p.ConnectionID = newConnectionID
	p.IsConnected = true
	room.Mu.Unlock()

	s.mu.Lock()
	if oldConn != "" {
		delete(s.connToPlayer, oldConn)
	}
	s.connToPlayer[newConnectionID] = playerID
	s.mu.Unlock()

	return room, nil
}

// SetPassword updates a room's join password. Host-only, waiting-only.
func (s *Store) SetPassword(roomCode, playerID string, password string, hasPassword bool) error {
	room := s.lookupRoom(roomCode)
	if room == nil {
		return ErrRoomNotFound
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.HostPlayerID != playerID {
		return ErrNotHost
	}
	if room.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	room.Password = password
	room.HasPassword = hasPassword
	return nil
}

// UpdateGlobal upserts a player's accumulated points into the global
// leaderboard, incrementing its games-played counter.
func (s *Store) UpdateGlobal(playerID, displayName string, pointsEarned int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.global[playerID]
	if !ok {
		e = &GlobalLeaderboardEntry{
			PlayerID:    playerID,
			DisplayName: displayName,
			PublicID:    PublicID(playerID, displayName),
		}
		s.global[playerID] = e
	}
	e.TotalPoints += pointsEarned
	e.GamesPlayed++
}

// TopGlobal returns the global leaderboard ranked by total points,
// truncated to config.GlobalLeaderboardCap.
func (s *Store) TopGlobal() []GlobalLeaderboardEntry {
	s.mu.Lock()
	entries := make([]GlobalLeaderboardEntry, 0, len(s.global))
	for _, e := range s.global {
		entries = append(entries, *e)
	}
	s.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	if len(entries) > config.GlobalLeaderboardCap {
		entries = entries[:config.GlobalLeaderboardCap]
	}
	return entries
}

// Sweep deletes rooms past their idle TTL: waiting|selection rooms older
// than s.ttls.Waiting/Selection, finished rooms older than s.ttls.Finished.
// Rooms in playing|offer are never touched: they hold live engine timers,
// and deleting the room entry would leave those timers without a room.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for code, room := range s.rooms {
		room.Mu.Lock()
		expired := s.isExpiredLocked(room, now)
		var playerIDs []string
		var connIDs []string
		if expired {
			for _, id := range room.PlayerOrder {
				p := room.Players[id]
				playerIDs = append(playerIDs, id)
				if p.ConnectionID != "" {
					connIDs = append(connIDs, p.ConnectionID)
				}
			}
		}
		room.Mu.Unlock()

		if !expired {
			continue
		}
		delete(s.rooms, code)
		for _, id := range playerIDs {
			delete(s.playerToRoom, id)
		}
		for _, id := range connIDs {
			delete(s.connToPlayer, id)
		}
		deleted++
	}
	return deleted
}

func (s *Store) isExpiredLocked(room *Room, now time.Time) bool {
	switch room.Phase {
	case PhaseWaiting, PhaseSelection:
		return now.Sub(room.CreatedAt) > s.ttlFor(room.Phase)
	case PhaseFinished:
		return now.Sub(room.FinishedAt) > s.ttls.Finished
	default:
		return false
	}
}

func (s *Store) ttlFor(phase Phase) time.Duration {
	if phase == PhaseSelection {
		return s.ttls.Selection
	}
	return s.ttls.Waiting
}

// Room returns the live room for a code, or nil.
func (s *Store) Room(code string) *Room {
	return s.lookupRoom(code)
}

func (s *Store) lookupRoom(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}
