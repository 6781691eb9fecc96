package ws

import (
	"encoding/json"
	"log"

	"boxdrop/config"
	"boxdrop/projector"
	"boxdrop/state"
)

// inbound is the envelope shape for every client -> server frame: a named
// event, its payload, and an optional request id echoed back on the ack.
type inbound struct {
	Event string          `json:"event"`
	ReqID string          `json:"reqId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound is the envelope shape for every server -> client push or ack.
type outbound struct {
	Event   string      `json:"event"`
	ReqID   string      `json:"reqId,omitempty"`
	Success *bool       `json:"success,omitempty"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

func (s *Server) sendAckOK(c *Connection, reqID string, payload interface{}) {
	c.enqueue(mustMarshal(outbound{Event: "ack", ReqID: reqID, Success: boolPtr(true), Payload: payload}))
}

func (s *Server) sendAckError(c *Connection, reqID, errMsg string) {
	c.enqueue(mustMarshal(outbound{Event: "ack", ReqID: reqID, Success: boolPtr(false), Error: errMsg}))
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("❌ marshal failure for outbound payload: %v", err)
		return []byte(`{"event":"error","error":"internal"}`)
	}
	return b
}

// dispatch decodes one inbound frame and routes it to the matching engine
// or store operation. Validation/authorisation/state errors on non-ack
// events are dropped silently per spec; the next state broadcast is the
// authoritative correction.
func (s *Server) dispatch(c *Connection, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	switch msg.Event {
	case "create-room":
		s.handleCreateRoom(c, msg)
	case "join-room":
		s.handleJoinRoom(c, msg)
	case "reconnect-player":
		s.handleReconnectPlayer(c, msg)
	case "set-room-password":
		s.handleSetRoomPassword(c, msg)
	case "get-global-leaderboard":
		s.handleGetGlobalLeaderboard(c, msg)
	case "select-box":
		s.handleSelectBox(c, msg)
	case "player-ready":
		s.handlePlayerReady(c, msg)
	case "start-game":
		s.handleStartGame(c, msg)
	case "open-box":
		s.handleOpenBox(c, msg)
	case "deal-response":
		s.handleDealResponse(c, msg)
	case "chat-message":
		s.handleChatMessage(c, msg)
	}
}

type createRoomData struct {
	PlayerName string `json:"playerName"`
}

func (s *Server) handleCreateRoom(c *Connection, msg inbound) {
	var data createRoomData
	_ = json.Unmarshal(msg.Data, &data)

	room, playerID, err := s.store.Create(c.ID, data.PlayerName)
	if err != nil {
		s.sendAckError(c, msg.ReqID, err.Error())
		return
	}
	c.bind(playerID, room.Code)
	s.sendAckOK(c, msg.ReqID, map[string]string{"roomCode": room.Code, "playerId": playerID})
	s.engine.PushJoinSnapshot(room)
}

type joinRoomData struct {
	RoomCode    string `json:"roomCode"`
	PlayerName  string `json:"playerName"`
	Password    string `json:"password"`
	HasPassword bool   `json:"-"`
	AsSpectator bool   `json:"asSpectator"`
}

func (s *Server) handleJoinRoom(c *Connection, msg inbound) {
	var raw struct {
		RoomCode    string  `json:"roomCode"`
		PlayerName  string  `json:"playerName"`
		Password    *string `json:"password"`
		AsSpectator bool    `json:"asSpectator"`
	}
	_ = json.Unmarshal(msg.Data, &raw)

	opts := state.JoinOptions{AsSpectator: raw.AsSpectator}
	if raw.Password != nil {
		opts.Password = *raw.Password
		opts.HasPassword = true
	}

	room, playerID, err := s.store.Join(raw.RoomCode, c.ID, raw.PlayerName, opts)
	if err != nil {
		s.sendAckError(c, msg.ReqID, friendlyJoinError(err))
		return
	}
	c.bind(playerID, room.Code)
	s.sendAckOK(c, msg.ReqID, map[string]string{"roomCode": room.Code, "playerId": playerID})
	s.engine.PushJoinSnapshot(room)
	s.PushLeaderboardSnapshot(room, playerID)
}

func friendlyJoinError(err error) string {
	switch err {
	case state.ErrRoomNotFound:
		return "Room not found"
	case state.ErrBadPassword:
		return "Incorrect password"
	case state.ErrGameInProgress:
		return "Game already in progress"
	case state.ErrRoomFull:
		return "Room is full"
	case state.ErrNameRequired:
		return "Player name is required"
	case state.ErrRoomCodeRequired:
		return "Room code is required"
	default:
		return err.Error()
	}
}

type reconnectData struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleReconnectPlayer(c *Connection, msg inbound) {
	var data reconnectData
	_ = json.Unmarshal(msg.Data, &data)

	room, err := s.store.Reconnect(data.PlayerID, c.ID)
	if err != nil {
		s.sendAckError(c, msg.ReqID, "Player not found")
		return
	}
	c.bind(data.PlayerID, room.Code)
	s.sendAckOK(c, msg.ReqID, map[string]string{"roomCode": room.Code})
	s.engine.PushJoinSnapshot(room)
	s.PushLeaderboardSnapshot(room, data.PlayerID)
}

type setPasswordData struct {
	Password *string `json:"password"`
}

func (s *Server) handleSetRoomPassword(c *Connection, msg inbound) {
	playerID, roomCode := c.identity()
	if roomCode == "" {
		s.sendAckError(c, msg.ReqID, "Room not found")
		return
	}
	var data setPasswordData
	_ = json.Unmarshal(msg.Data, &data)

	password, has := "", false
	if data.Password != nil {
		password, has = *data.Password, true
	}

	if err := s.store.SetPassword(roomCode, playerID, password, has); err != nil {
		s.sendAckError(c, msg.ReqID, friendlyPasswordError(err))
		return
	}
	s.sendAckOK(c, msg.ReqID, nil)
}

func friendlyPasswordError(err error) string {
	switch err {
	case state.ErrRoomNotFound:
		return "Room not found"
	case state.ErrNotHost:
		return "Only the host can set the password"
	case state.ErrWrongPhase:
		return "Password can only be changed before the game starts"
	default:
		return err.Error()
	}
}

func (s *Server) handleGetGlobalLeaderboard(c *Connection, msg inbound) {
	top := s.store.TopGlobal()
	s.sendAckOK(c, msg.ReqID, map[string]interface{}{"leaderboard": projector.GlobalLeaderboard(top)})
}

type boxNumberData struct {
	BoxNumber int `json:"boxNumber"`
}

func (s *Server) handleSelectBox(c *Connection, msg inbound) {
	room, playerID := s.roomFor(c)
	if room == nil {
		return
	}
	var data boxNumberData
	if json.Unmarshal(msg.Data, &data) != nil {
		return
	}
	_ = s.engine.SelectBox(room, playerID, data.BoxNumber)
}

func (s *Server) handlePlayerReady(c *Connection, msg inbound) {
	room, playerID := s.roomFor(c)
	if room == nil {
		return
	}
	_ = s.engine.PlayerReady(room, playerID)
}

func (s *Server) handleStartGame(c *Connection, msg inbound) {
	room, playerID := s.roomFor(c)
	if room == nil {
		return
	}
	_ = s.engine.StartGame(room, playerID)
}

func (s *Server) handleOpenBox(c *Connection, msg inbound) {
	room, playerID := s.roomFor(c)
	if room == nil {
		return
	}
	var data boxNumberData
	if json.Unmarshal(msg.Data, &data) != nil {
		return
	}
	_ = s.engine.OpenBox(room, playerID, data.BoxNumber)
}

type dealResponseData struct {
	Accepted bool `json:"accepted"`
}

func (s *Server) handleDealResponse(c *Connection, msg inbound) {
	room, playerID := s.roomFor(c)
	if room == nil {
		return
	}
	var data dealResponseData
	if json.Unmarshal(msg.Data, &data) != nil {
		return
	}
	_ = s.engine.DealResponse(room, playerID, data.Accepted)
}

type chatMessageData struct {
	Content string `json:"content"`
}

func (s *Server) handleChatMessage(c *Connection, msg inbound) {
	room, playerID := s.roomFor(c)
	if room == nil {
		return
	}
	var data chatMessageData
	if json.Unmarshal(msg.Data, &data) != nil {
		return
	}
	if len(data.Content) > config.MaxChatMessageLen {
		data.Content = data.Content[:config.MaxChatMessageLen]
	}
	chatMsg, err := s.engine.Chat(room, playerID, data.Content)
	if err != nil {
		return
	}
	s.broadcastChat(room, *chatMsg)
}

// roomFor resolves a connection's bound player back to its live room, or
// returns nil if the connection never joined one (or the room was swept).
func (s *Server) roomFor(c *Connection) (*state.Room, string) {
	playerID, roomCode := c.identity()
	if roomCode == "" {
		return nil, ""
	}
	room := s.store.Room(roomCode)
	if room == nil {
		return nil, ""
	}
	return room, playerID
}

// onDisconnect marks the player AFK and advises the rest of the room.
func (s *Server) onDisconnect(c *Connection) {
	s.removeConnection(c)

	playerID, roomCode := c.identity()
	s.store.HandleDisconnect(c.ID)
	if roomCode == "" {
		return
	}
	room := s.store.Room(roomCode)
	if room == nil {
		return
	}
	room.Mu.Lock()
	s.BroadcastState(room, nil)
	s.broadcastPlayerLeft(room, playerID)
	room.Mu.Unlock()
}
