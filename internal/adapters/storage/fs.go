package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

// FS stores the player, preferences and boards as JSON files under dir:
//
//	player.json
//	preferences.json
//	boards/<date>/<sign>_<language>_<theme>.json
type FS struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

func NewFS(dir string, logger *slog.Logger) *FS {
	if dir == "" {
		dir = "data"
	}
	return &FS{dir: dir, logger: logger}
}

func (s *FS) playerPath() string {
	return filepath.Join(s.dir, "player.json")
}

func (s *FS) preferencesPath() string {
	return filepath.Join(s.dir, "preferences.json")
}

func (s *FS) boardPath(key domain.BoardKey) string {
	name := fmt.Sprintf("%s_%s_%s.json", key.Sign, filepath.Base(key.Language), key.Theme)
	return filepath.Join(s.dir, "boards", filepath.Base(key.Date), name)
}

// LoadPlayer returns the stored player, or the default state when the file
// is missing or unreadable.
func (s *FS) LoadPlayer(ctx context.Context) domain.PlayerState {
	var p domain.PlayerState
	if err := s.readJSON(s.playerPath(), &p); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "unreadable player state, starting fresh", "error", err)
		}
		return domain.DefaultPlayerState()
	}
	return normalizePlayer(p)
}

func (s *FS) SavePlayer(_ context.Context, p domain.PlayerState) error {
	return s.writeJSON(s.playerPath(), p)
}

// LoadBoard returns the stored board for key; corrupt files count as absent.
func (s *FS) LoadBoard(ctx context.Context, key domain.BoardKey) (domain.Board, bool) {
	var b domain.Board
	if err := s.readJSON(s.boardPath(key), &b); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "unreadable board, regenerating", "key", key.String(), "error", err)
		}
		return domain.Board{}, false
	}
	if len(b.Tiles) != domain.BoardSize {
		s.logger.WarnContext(ctx, "stored board has wrong size, regenerating", "key", key.String(), "tiles", len(b.Tiles))
		return domain.Board{}, false
	}
	return b, true
}

func (s *FS) SaveBoard(_ context.Context, key domain.BoardKey, b domain.Board) error {
	return s.writeJSON(s.boardPath(key), b)
}

func (s *FS) LoadPreferences(ctx context.Context) (ports.Preferences, bool) {
	var p ports.Preferences
	if err := s.readJSON(s.preferencesPath(), &p); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "unreadable preferences", "error", err)
		}
		return ports.Preferences{}, false
	}
	return p, true
}

func (s *FS) SavePreferences(_ context.Context, p ports.Preferences) error {
	return s.writeJSON(s.preferencesPath(), p)
}

func (s *FS) readJSON(path string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON writes through a temp file and rename so a crash never leaves a
// half-written record behind.
func (s *FS) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// normalizePlayer repairs fields that hand-edited or old records may lack.
func normalizePlayer(p domain.PlayerState) domain.PlayerState {
	if p.XP < 0 {
		p.XP = 0
	}
	if p.Coins < 0 {
		p.Coins = 0
	}
	if p.Streak < 0 {
		p.Streak = 0
	}
	p.Level = domain.LevelForXP(p.XP)
	if p.Achievements == nil {
		p.Achievements = []domain.AchievementID{}
	}
	return p
}
