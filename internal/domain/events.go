package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventBingoAwarded        EventType = "BINGO_AWARDED"
	EventFullBoardAwarded    EventType = "FULL_BOARD_AWARDED"
	EventLevelUp             EventType = "LEVEL_UP"
	EventAchievementUnlocked EventType = "ACHIEVEMENT_UNLOCKED"
	EventRerollCharged       EventType = "REROLL_CHARGED"
	EventBoardGenerated      EventType = "BOARD_GENERATED"
	EventGenerationFailed    EventType = "GENERATION_FAILED"
	EventBoardReset          EventType = "BOARD_RESET"
	EventDayRolledOver       EventType = "DAY_ROLLED_OVER"
)

// Event is emitted by state transitions for the presentation layer.
// ID and Timestamp are stamped when the event is published.
type Event struct {
	ID        string      `json:"id,omitempty"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

// NewEvent creates a new unstamped event
func NewEvent(eventType EventType, payload interface{}) Event {
	return Event{Type: eventType, Payload: payload}
}

// Payload types for different events

// BingoPayload is sent when the day's first line is completed
type BingoPayload struct {
	Line   [3]int `json:"line"`
	XP     int    `json:"xp"`
	Coins  int    `json:"coins"`
	Streak int    `json:"streak"`
}

// FullBoardPayload is sent when all tiles are done for the first time
type FullBoardPayload struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// LevelUpPayload is sent once per level gained
type LevelUpPayload struct {
	Level int `json:"level"`
}

// AchievementPayload is sent when an achievement unlocks
type AchievementPayload struct {
	Achievement AchievementID `json:"achievement"`
	Emoji       string        `json:"emoji"`
}

// RerollPayload describes what a reroll cost
type RerollPayload struct {
	Free bool `json:"free"`
	Cost int  `json:"cost"`
}

// GenerationPayload describes where a new board came from
type GenerationPayload struct {
	Key         string `json:"key"`
	Regenerated int    `json:"regenerated"`
	Fallback    bool   `json:"fallback"`
	Reason      string `json:"reason,omitempty"`
}

// RolloverPayload is sent when the calendar day changes mid-session
type RolloverPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}
