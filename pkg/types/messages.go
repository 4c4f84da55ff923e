package types

// Client -> Server
// join:
//   playerId?: string   // identity from a previous assign_id; omit for a new seat
//   equipments: string[]
//
// player_ready: {}     // only when the room runs with the ready gate
//
// guess:
//   value: number      // 1..6
//   slotIndex: number
//
// bonus_guess:
//   value: number
//   slotIndex: number
//
// anim_done: {}
// round_ready: {}

type MessageType string

const (
	MsgAssignID          MessageType = "assign_id"
	MsgWait              MessageType = "wait"
	MsgPlayerJoined      MessageType = "player_joined"
	MsgLobbyReady        MessageType = "lobby_ready"
	MsgMatchStart        MessageType = "match_start"
	MsgGamePrepare       MessageType = "game_prepare"
	MsgTurnStart         MessageType = "turn_start"
	MsgTurnResult        MessageType = "turn_result"
	MsgBonusStart        MessageType = "bonus_start"
	MsgBonusResult       MessageType = "bonus_result"
	MsgNewDiceRound      MessageType = "new_dice_round"
	MsgMatchEnd          MessageType = "match_end"
	MsgOpponentLeft      MessageType = "opponent_left"
	MsgPlayerReconnected MessageType = "player_reconnected"
	MsgReconnect         MessageType = "reconnect"
	MsgFull              MessageType = "full"
)

// Message is any Server -> Client payload. Every payload carries its own
// "type" field so it encodes flat.
type Message interface {
	MessageType() MessageType
}

type AssignID struct {
	Type       MessageType `json:"type"`
	PlayerID   string      `json:"playerId"`
	YourIndex  int         `json:"yourIndex"`
	Equipments []string    `json:"equipments"`
}

type Wait struct {
	Type MessageType `json:"type"`
}

type PlayerJoined struct {
	Type        MessageType `json:"type"`
	PlayerIndex int         `json:"playerIndex"`
	Players     int         `json:"players"`
}

type LobbyReady struct {
	Type MessageType `json:"type"`
}

type MatchStart struct {
	Type MessageType `json:"type"`
}

type GamePrepare struct {
	Type              MessageType `json:"type"`
	Round             int         `json:"round"`
	YourIndex         int         `json:"yourIndex"`
	Health            [2]int      `json:"health"`
	OpponentSlotCount int         `json:"opponentSlotCount"`
	Equipments        []string    `json:"equipments"`
}

type TurnStart struct {
	Type       MessageType `json:"type"`
	Turn       int         `json:"turn"`
	Health     [2]int      `json:"health"`
	DeadlineMs int64       `json:"deadlineMs"`
}

type PlayerOutcome struct {
	Guess   int    `json:"guess"`
	Slot    int    `json:"slotIndex"`
	Item    string `json:"item"`
	Kind    string `json:"kind"`
	Success bool   `json:"success"`
	Damage  int    `json:"dmg"`
	Heal    int    `json:"heal"`
	Dodged  bool   `json:"dodge"`
	Forced  bool   `json:"forced"`
}

type TurnResult struct {
	Type        MessageType   `json:"type"`
	Turn        int           `json:"turn"`
	Dice        int           `json:"dice"`
	Health      [2]int        `json:"health"`
	P1          PlayerOutcome `json:"p1"`
	P2          PlayerOutcome `json:"p2"`
	FirstActor  int           `json:"firstActor"`
	HasBonus    bool          `json:"hasBonus"`
	BonusPlayer int           `json:"bonusPlayer"`
}

type BonusStart struct {
	Type        MessageType `json:"type"`
	PlayerIndex int         `json:"playerIndex"`
	DeadlineMs  int64       `json:"deadlineMs"`
}

type BonusResult struct {
	Type        MessageType `json:"type"`
	PlayerIndex int         `json:"playerIndex"`
	Dice        int         `json:"dice"`
	Guess       int         `json:"guess"`
	Slot        int         `json:"slotIndex"`
	Item        string      `json:"item"`
	Success     bool        `json:"success"`
	Damage      int         `json:"dmg"`
	Forced      bool        `json:"forced"`
	Health      [2]int      `json:"health"`
}

type NewDiceRound struct {
	Type   MessageType `json:"type"`
	Round  int         `json:"round"`
	Health [2]int      `json:"health"`
}

type MatchEnd struct {
	Type   MessageType `json:"type"`
	Round  int         `json:"round"`
	Winner int         `json:"winner"` // -1 on a draw
	Health [2]int      `json:"health"`
	Scores [2]int      `json:"scores"`
}

type OpponentLeft struct {
	Type        MessageType `json:"type"`
	PlayerIndex int         `json:"playerIndex"`
	GraceMs     int64       `json:"graceMs"`
}

type PlayerReconnected struct {
	Type        MessageType `json:"type"`
	PlayerIndex int         `json:"playerIndex"`
}

type Reconnect struct {
	Type       MessageType   `json:"type"`
	PlayerID   string        `json:"playerId"`
	Equipments []string      `json:"equipments"`
	Snapshot   MatchSnapshot `json:"matchSnapshot"`
}

type Full struct {
	Type MessageType `json:"type"`
}

func (AssignID) MessageType() MessageType          { return MsgAssignID }
func (Wait) MessageType() MessageType              { return MsgWait }
func (PlayerJoined) MessageType() MessageType      { return MsgPlayerJoined }
func (LobbyReady) MessageType() MessageType        { return MsgLobbyReady }
func (MatchStart) MessageType() MessageType        { return MsgMatchStart }
func (GamePrepare) MessageType() MessageType       { return MsgGamePrepare }
func (TurnStart) MessageType() MessageType         { return MsgTurnStart }
func (TurnResult) MessageType() MessageType        { return MsgTurnResult }
func (BonusStart) MessageType() MessageType        { return MsgBonusStart }
func (BonusResult) MessageType() MessageType       { return MsgBonusResult }
func (NewDiceRound) MessageType() MessageType      { return MsgNewDiceRound }
func (MatchEnd) MessageType() MessageType          { return MsgMatchEnd }
func (OpponentLeft) MessageType() MessageType      { return MsgOpponentLeft }
func (PlayerReconnected) MessageType() MessageType { return MsgPlayerReconnected }
func (Reconnect) MessageType() MessageType         { return MsgReconnect }
func (Full) MessageType() MessageType              { return MsgFull }
