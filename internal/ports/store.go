package ports

import (
	"context"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

// Preferences are the player's last chosen board identity parts.
type Preferences struct {
	Sign     domain.ZodiacSign `json:"sign"`
	Theme    domain.Theme      `json:"theme"`
	Language string            `json:"language"`
}

// PlayerStore persists the single player record.
// LoadPlayer never fails: unreadable or missing data yields the default state.
type PlayerStore interface {
	LoadPlayer(ctx context.Context) domain.PlayerState
	SavePlayer(ctx context.Context, p domain.PlayerState) error
}

// BoardStore persists one board per key.
type BoardStore interface {
	LoadBoard(ctx context.Context, key domain.BoardKey) (domain.Board, bool)
	SaveBoard(ctx context.Context, key domain.BoardKey, b domain.Board) error
}

// PreferenceStore persists the selected sign, theme and language.
type PreferenceStore interface {
	LoadPreferences(ctx context.Context) (Preferences, bool)
	SavePreferences(ctx context.Context, p Preferences) error
}
