package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

// Snapshot is a read-only view of the session.
type Snapshot struct {
	Key        domain.BoardKey
	Board      *domain.Board
	Player     domain.PlayerState
	Quote      domain.RerollQuote
	BingoLine  *[3]int
	Generating bool
}

// Result is what a transition returns: the session afterwards and the events it emitted.
type Result struct {
	State  Snapshot
	Events []domain.Event
}

// Deps wires the collaborators of a GameService.
type Deps struct {
	Players         ports.PlayerStore
	Boards          ports.BoardStore
	Preferences     ports.PreferenceStore
	Generator       *BoardGenerator
	Localizer       ports.Localizer
	Clock           ports.Clock
	Publisher       ports.EventPublisher
	DefaultLanguage string
	Logger          *slog.Logger
}

// GameService owns the single player session. Every transition runs under
// one mutex; the LLM call runs outside it while the generating flag blocks
// other transitions.
type GameService struct {
	players     ports.PlayerStore
	boards      ports.BoardStore
	preferences ports.PreferenceStore
	generator   *BoardGenerator
	localizer   ports.Localizer
	clock       ports.Clock
	publisher   ports.EventPublisher
	defaultLang string
	logger      *slog.Logger
	writer      *asyncWriter

	mu         sync.Mutex
	key        domain.BoardKey
	player     domain.PlayerState
	board      *domain.Board
	generating bool
	// known holds every board committed this session; it is authoritative
	// over the store, whose writes are asynchronous.
	known map[domain.BoardKey]domain.Board
}

func NewGameService(d Deps) *GameService {
	return &GameService{
		players:     d.Players,
		boards:      d.Boards,
		preferences: d.Preferences,
		generator:   d.Generator,
		localizer:   d.Localizer,
		clock:       d.Clock,
		publisher:   d.Publisher,
		defaultLang: d.DefaultLanguage,
		logger:      d.Logger,
		writer:      newAsyncWriter(d.Logger),
		player:      domain.DefaultPlayerState(),
		known:       make(map[domain.BoardKey]domain.Board),
	}
}

// Close flushes pending saves. Transitions after Close still update the
// session in memory but are no longer persisted.
func (s *GameService) Close() {
	s.writer.close()
}

// Open restores the player and preferences and loads or creates today's board.
func (s *GameService) Open(ctx context.Context) (Result, error) {
	prefs, ok := s.preferences.LoadPreferences(ctx)
	if !ok || !s.localizer.Supports(prefs.Language) {
		prefs.Language = s.defaultLang
	}
	if _, err := domain.ParseSign(string(prefs.Sign)); err != nil {
		prefs.Sign = domain.SignUniversal
	}
	if _, err := domain.ParseTheme(string(prefs.Theme)); err != nil {
		prefs.Theme = domain.ThemeUniversal
	}

	s.mu.Lock()
	s.player = s.players.LoadPlayer(ctx)
	s.mu.Unlock()

	return s.LoadOrCreate(ctx, domain.BoardKey{
		Date:     s.clock.Today(),
		Sign:     prefs.Sign,
		Language: prefs.Language,
		Theme:    prefs.Theme,
	})
}

// State returns the current snapshot.
func (s *GameService) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *GameService) snapshotLocked() Snapshot {
	snap := Snapshot{
		Key:        s.key,
		Player:     s.player,
		Generating: s.generating,
	}
	if s.board != nil {
		b := s.board.Clone()
		snap.Board = &b
		snap.Quote = domain.QuoteReroll(b, s.player.Coins)
		if line, ok := domain.FindBingoLine(b.Tiles); ok {
			snap.BingoLine = &line
		}
	}
	return snap
}

// LoadOrCreate switches the session to key, reusing a stored board when
// one exists and generating regeneration 0 otherwise. On failure the
// session stays on its previous board.
func (s *GameService) LoadOrCreate(ctx context.Context, key domain.BoardKey) (Result, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return Result{}, domain.ErrGenerationInProgress
	}
	prevKey, prevBoard := s.key, s.board
	s.key = key
	b, ok := s.known[key]
	if !ok {
		b, ok = s.boards.LoadBoard(ctx, key)
	}
	if ok {
		s.known[key] = b.Clone()
		s.board = &b
		res := Result{State: s.snapshotLocked()}
		s.mu.Unlock()
		return res, nil
	}
	s.board = nil
	s.generating = true
	s.mu.Unlock()

	board, events, err := s.generator.Generate(ctx, key, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if err != nil {
		s.key, s.board = prevKey, prevBoard
		return Result{}, fmt.Errorf("create board %s: %w", key, err)
	}
	s.board = &board
	s.saveBoardLocked()
	return s.commitLocked(events), nil
}

// Toggle flips a tile and applies any bingo or full-board rewards.
func (s *GameService) Toggle(_ context.Context, tileID int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return Result{}, err
	}

	out, err := domain.ApplyToggle(s.player, *s.board, tileID, s.key.Date)
	if err != nil {
		return Result{}, err
	}
	s.player = out.Player
	s.board = &out.Board
	s.savePlayerLocked()
	s.saveBoardLocked()
	return s.commitLocked(out.Events), nil
}

// Reroll replaces the board with regeneration+1, charging coins when the
// reroll is not free. The charge stands whichever generator supplies the
// board and is refunded when no board can be built at all.
func (s *GameService) Reroll(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	player, events, err := domain.ChargeReroll(s.player, *s.board)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	before := s.player
	s.player = player

	key := s.key
	regenerated := s.board.Regenerated + 1
	s.generating = true
	s.mu.Unlock()

	board, genEvents, err := s.generator.Generate(ctx, key, regenerated)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if err != nil {
		s.player = before
		return Result{}, fmt.Errorf("reroll board %s: %w", key, err)
	}
	events = append(events, genEvents...)

	s.board = &board
	var regenEvents []domain.Event
	s.player, regenEvents = domain.CompleteReroll(s.player)
	events = append(events, regenEvents...)

	s.savePlayerLocked()
	s.saveBoardLocked()
	return s.commitLocked(events), nil
}

// Reset rebuilds the fallback board for the current regeneration count and
// clears progress on it. No LLM call and no cost.
func (s *GameService) Reset(_ context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return Result{}, err
	}

	fresh, err := s.generator.Fallback(s.key, s.board.Regenerated)
	if err != nil {
		return Result{}, fmt.Errorf("reset board %s: %w", s.key, err)
	}
	board := domain.ResetBoard(*s.board, fresh)
	s.board = &board
	s.saveBoardLocked()
	return s.commitLocked([]domain.Event{domain.NewEvent(domain.EventBoardReset, domain.GenerationPayload{
		Key:         s.key.String(),
		Regenerated: board.Regenerated,
		Fallback:    true,
	})}), nil
}

// SetPreferences persists a new sign, theme and language and switches to
// the matching board for today.
func (s *GameService) SetPreferences(ctx context.Context, prefs ports.Preferences) (Result, error) {
	if _, err := domain.ParseSign(string(prefs.Sign)); err != nil {
		return Result{}, err
	}
	if _, err := domain.ParseTheme(string(prefs.Theme)); err != nil {
		return Result{}, err
	}
	if !s.localizer.Supports(prefs.Language) {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownLanguage, prefs.Language)
	}

	s.mu.Lock()
	busy := s.generating
	s.mu.Unlock()
	if busy {
		return Result{}, domain.ErrGenerationInProgress
	}

	res, err := s.LoadOrCreate(ctx, domain.BoardKey{
		Date:     s.clock.Today(),
		Sign:     prefs.Sign,
		Language: prefs.Language,
		Theme:    prefs.Theme,
	})
	if err != nil {
		return Result{}, err
	}
	s.writer.enqueue("preferences", func(ctx context.Context) error {
		return s.preferences.SavePreferences(ctx, prefs)
	})
	return res, nil
}

// CheckRollover moves the session to today's board when the calendar day
// has changed. It reports whether a rollover happened.
func (s *GameService) CheckRollover(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.generating || s.board == nil {
		s.mu.Unlock()
		return false, nil
	}
	today := s.clock.Today()
	if today == s.key.Date {
		s.mu.Unlock()
		return false, nil
	}
	from := s.key
	next := from
	next.Date = today
	s.mu.Unlock()

	if _, err := s.LoadOrCreate(ctx, next); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked([]domain.Event{domain.NewEvent(domain.EventDayRolledOver, domain.RolloverPayload{
		From: from.Date,
		To:   today,
	})})
	s.logger.InfoContext(ctx, "day rolled over", "from", from.Date, "to", today)
	return true, nil
}

// Share renders the localized share text for the current board.
func (s *GameService) Share(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return "", domain.ErrNoBoard
	}

	lang := s.key.Language
	status := fmt.Sprintf("%d/%d", s.board.DoneCount(), domain.BoardSize)
	if s.board.BingoAwarded {
		status = s.localizer.Text(lang, "share.status_bingo")
	}
	return s.localizer.Text(lang, "share.text",
		s.localizer.SignName(lang, s.key.Sign),
		s.localizer.ThemeName(lang, s.key.Theme),
		s.key.Date,
		status,
		s.player.Streak,
		s.player.Level,
		s.player.XP,
	), nil
}

func (s *GameService) readyLocked() error {
	if s.generating {
		return domain.ErrGenerationInProgress
	}
	if s.board == nil {
		return domain.ErrNoBoard
	}
	return nil
}

func (s *GameService) savePlayerLocked() {
	p := s.player
	p.Achievements = append([]domain.AchievementID(nil), s.player.Achievements...)
	s.writer.enqueue("player", func(ctx context.Context) error {
		return s.players.SavePlayer(ctx, p)
	})
}

func (s *GameService) saveBoardLocked() {
	key, b := s.key, s.board.Clone()
	s.known[key] = b
	s.writer.enqueue("board "+key.String(), func(ctx context.Context) error {
		return s.boards.SaveBoard(ctx, key, b)
	})
}

// commitLocked stamps and publishes events and returns the resulting snapshot.
func (s *GameService) commitLocked(events []domain.Event) Result {
	now := time.Now()
	for i := range events {
		events[i].ID = uuid.NewString()
		events[i].Timestamp = now
	}
	if len(events) > 0 && s.publisher != nil {
		s.publisher.Publish(events...)
	}
	return Result{State: s.snapshotLocked(), Events: events}
}
