package types

// MatchSnapshot is everything a returning client needs to redraw the duel.
// Dice only lists values already revealed this round.
type MatchSnapshot struct {
	Phase             string   `json:"phase"`
	Round             int      `json:"round"`
	Turn              int      `json:"turn"`
	TurnsPerRound     int      `json:"turnsPerRound"`
	YourIndex         int      `json:"yourIndex"`
	Health            [2]int   `json:"health"`
	Scores            [2]int   `json:"scores"`
	Dice              []int    `json:"dice"`
	Submitted         [2]bool  `json:"submitted"`
	BonusPlayer       int      `json:"bonusPlayer"`
	Connected         [2]bool  `json:"connected"`
	OpponentSlotCount int      `json:"opponentSlotCount"`
	Equipments        []string `json:"equipments"`
	RemainingMs       int64    `json:"remainingMs"`
}
