package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockGenerator struct {
	mu    sync.Mutex
	out   []string
	err   error
	calls int
	last  ports.GenerateInput
}

func (m *mockGenerator) Generate(_ context.Context, in ports.GenerateInput) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = in
	return m.out, m.err
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func aiStatements(prefix string) []string {
	out := make([]string, domain.BoardSize)
	for i := range out {
		out[i] = fmt.Sprintf("%s prediction %d", prefix, i)
	}
	return out
}

type staticPools struct{}

func (staticPools) ThemePool(lang string, theme domain.Theme) []string {
	out := make([]string, 12)
	for i := range out {
		out[i] = fmt.Sprintf("%s %s fallback %d", lang, theme, i)
	}
	return out
}

func (staticPools) SignPool(_ string, sign domain.ZodiacSign) []string {
	if sign == domain.SignUniversal {
		return nil
	}
	return []string{string(sign) + " one", string(sign) + " two"}
}

type fakeLocalizer struct{}

func (fakeLocalizer) SignName(lang string, sign domain.ZodiacSign) string {
	return lang + ":" + string(sign)
}

func (fakeLocalizer) ThemeName(lang string, theme domain.Theme) string {
	return lang + ":" + string(theme)
}

func (fakeLocalizer) Text(lang, key string, vars ...interface{}) string {
	if len(vars) == 0 {
		return lang + ":" + key
	}
	return fmt.Sprintf("%s:%s %v", lang, key, vars)
}

func (fakeLocalizer) Supports(lang string) bool {
	return lang == "en" || lang == "cs"
}

type fixedClock struct {
	mu    sync.Mutex
	today string
}

func (c *fixedClock) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

func (c *fixedClock) set(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = day
}

type memoryStore struct {
	mu        sync.Mutex
	player    *domain.PlayerState
	boards    map[domain.BoardKey]domain.Board
	prefs     *ports.Preferences
	failSaves bool
	saves     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{boards: make(map[domain.BoardKey]domain.Board)}
}

var errDiskFull = errors.New("disk full")

func (m *memoryStore) LoadPlayer(context.Context) domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil {
		return domain.DefaultPlayerState()
	}
	return *m.player
}

func (m *memoryStore) SavePlayer(_ context.Context, p domain.PlayerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSaves {
		return errDiskFull
	}
	m.player = &p
	return nil
}

func (m *memoryStore) LoadBoard(_ context.Context, key domain.BoardKey) (domain.Board, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[key]
	return b.Clone(), ok
}

func (m *memoryStore) SaveBoard(_ context.Context, key domain.BoardKey, b domain.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSaves {
		return errDiskFull
	}
	m.boards[key] = b.Clone()
	return nil
}

func (m *memoryStore) LoadPreferences(context.Context) (ports.Preferences, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		return ports.Preferences{}, false
	}
	return *m.prefs, true
}

func (m *memoryStore) SavePreferences(_ context.Context, p ports.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errDiskFull
	}
	m.prefs = &p
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(events ...domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// switchPools serves staticPools until broken, then nothing at all.
type switchPools struct {
	mu     sync.Mutex
	broken bool
}

func (p *switchPools) breakPools() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broken = true
}

func (p *switchPools) ThemePool(lang string, theme domain.Theme) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken {
		return nil
	}
	return staticPools{}.ThemePool(lang, theme)
}

func (p *switchPools) SignPool(lang string, sign domain.ZodiacSign) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken {
		return nil
	}
	return staticPools{}.SignPool(lang, sign)
}
