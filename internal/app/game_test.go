package app_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/randomtoy/horobingo-go/internal/app"
	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

type fixture struct {
	svc   *app.GameService
	gen   *mockGenerator
	store *memoryStore
	clock *fixedClock
	pub   *recordingPublisher
}

func newFixture(t *testing.T, gen *mockGenerator) *fixture {
	t.Helper()
	return newFixtureWithPools(t, gen, staticPools{})
}

func newFixtureWithPools(t *testing.T, gen *mockGenerator, pools ports.ContentPools) *fixture {
	t.Helper()
	f := &fixture{
		gen:   gen,
		store: newMemoryStore(),
		clock: &fixedClock{today: "2024-01-01"},
		pub:   &recordingPublisher{},
	}
	f.svc = app.NewGameService(app.Deps{
		Players:         f.store,
		Boards:          f.store,
		Preferences:     f.store,
		Generator:       app.NewBoardGenerator(gen, pools, fakeLocalizer{}, time.Second, discardLogger()),
		Localizer:       fakeLocalizer{},
		Clock:           f.clock,
		Publisher:       f.pub,
		DefaultLanguage: "en",
		Logger:          discardLogger(),
	})
	t.Cleanup(f.svc.Close)
	return f
}

func (f *fixture) open(t *testing.T) app.Result {
	t.Helper()
	res, err := f.svc.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return res
}

func (f *fixture) toggle(t *testing.T, ids ...int) app.Result {
	t.Helper()
	var res app.Result
	for _, id := range ids {
		var err error
		res, err = f.svc.Toggle(context.Background(), id)
		if err != nil {
			t.Fatalf("toggle %d: %v", id, err)
		}
	}
	return res
}

func TestOpen_DefaultsAndAIBoard(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	res := f.open(t)

	want := domain.BoardKey{Date: "2024-01-01", Sign: domain.SignUniversal, Language: "en", Theme: domain.ThemeUniversal}
	if res.State.Key != want {
		t.Errorf("expected key %+v, got %+v", want, res.State.Key)
	}
	if res.State.Board == nil || res.State.Board.Tiles[0].Text != "ai prediction 0" {
		t.Fatalf("expected AI board, got %+v", res.State.Board)
	}
	if !res.State.Quote.Free {
		t.Errorf("first reroll should be free: %+v", res.State.Quote)
	}
	if res.State.Player.Coins != domain.StartingCoins {
		t.Errorf("expected %d coins, got %d", domain.StartingCoins, res.State.Player.Coins)
	}
}

func TestLoadOrCreate_Idempotent(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("first")})
	first := f.open(t)

	f.gen.out = aiStatements("second")
	second, err := f.svc.LoadOrCreate(context.Background(), first.State.Key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.State.Board, second.State.Board) {
		t.Errorf("board changed on re-entry:\n%+v\n%+v", first.State.Board, second.State.Board)
	}
	if f.gen.callCount() != 1 {
		t.Errorf("expected one generation, got %d", f.gen.callCount())
	}
}

func TestOpen_RestoresStoredBoard(t *testing.T) {
	f := newFixture(t, &mockGenerator{err: domain.ErrUpstreamLLM})
	stored, _ := domain.NewBoard(aiStatements("stored"), 2)
	stored.Tiles[4].Done = true
	stored.BingoAwarded = true
	key := domain.BoardKey{Date: "2024-01-01", Sign: domain.SignLeo, Language: "cs", Theme: domain.ThemeSchool}
	f.store.boards[key] = stored
	f.store.prefs = &ports.Preferences{Sign: domain.SignLeo, Theme: domain.ThemeSchool, Language: "cs"}

	res := f.open(t)
	if !reflect.DeepEqual(*res.State.Board, stored) {
		t.Errorf("expected stored board, got %+v", res.State.Board)
	}
	if f.gen.callCount() != 0 {
		t.Errorf("generator should not be called, got %d calls", f.gen.callCount())
	}
}

func TestOpen_FallbackOnGeneratorFailure(t *testing.T) {
	f := newFixture(t, &mockGenerator{err: domain.ErrUpstreamLLM})
	res := f.open(t)

	if res.State.Board == nil || !strings.Contains(res.State.Board.Tiles[0].Text, "fallback") {
		t.Fatalf("expected fallback board, got %+v", res.State.Board)
	}
	if res.State.Board.Regenerated != 0 {
		t.Errorf("expected regenerated 0, got %d", res.State.Board.Regenerated)
	}
	if len(res.Events) == 0 || res.Events[0].Type != domain.EventGenerationFailed {
		t.Errorf("expected generation failure notice, got %+v", res.Events)
	}
	if res.Events[0].ID == "" {
		t.Error("events should be stamped with an id")
	}
}

func TestToggle_BingoRewardsPersisted(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)

	res := f.toggle(t, 0, 4, 8)
	if !res.State.Board.BingoAwarded {
		t.Fatal("bingo not awarded")
	}
	if res.State.BingoLine == nil || *res.State.BingoLine != [3]int{0, 4, 8} {
		t.Errorf("expected diagonal highlight, got %v", res.State.BingoLine)
	}
	if res.State.Player.Streak != 1 || res.State.Player.LastBingoDate != "2024-01-01" {
		t.Errorf("unexpected streak: %+v", res.State.Player)
	}

	f.svc.Close()
	saved := f.store.LoadPlayer(context.Background())
	if saved.Coins != domain.StartingCoins+domain.BingoCoins || saved.XP != domain.BingoXP {
		t.Errorf("player not persisted: %+v", saved)
	}
	board, ok := f.store.LoadBoard(context.Background(), res.State.Key)
	if !ok || !board.BingoAwarded {
		t.Errorf("board not persisted: %+v", board)
	}
}

func TestToggle_UnknownTile(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	if _, err := f.svc.Toggle(context.Background(), 42); !errors.Is(err, domain.ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound, got %v", err)
	}
}

func TestToggle_NoBoard(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	if _, err := f.svc.Toggle(context.Background(), 0); !errors.Is(err, domain.ErrNoBoard) {
		t.Errorf("expected ErrNoBoard, got %v", err)
	}
}

func TestReroll_FreeThenPaid(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	f.toggle(t, 0, 1, 2)

	res, err := f.svc.Reroll(context.Background())
	if err != nil {
		t.Fatalf("free reroll: %v", err)
	}
	coinsAfterBingo := domain.StartingCoins + domain.BingoCoins
	if res.State.Player.Coins != coinsAfterBingo {
		t.Errorf("free reroll charged: %d", res.State.Player.Coins)
	}
	if res.State.Board.Regenerated != 1 || res.State.Board.BingoAwarded || res.State.Board.DoneCount() != 0 {
		t.Errorf("unexpected board after reroll: %+v", res.State.Board)
	}
	if !res.State.Player.HasAchievement(domain.AchievementRegen) {
		t.Error("regen achievement missing")
	}
	if res.State.Quote.Free || res.State.Quote.Cost != domain.RerollCost {
		t.Errorf("second reroll should cost coins: %+v", res.State.Quote)
	}

	f.gen.err = domain.ErrUpstreamLLM
	res, err = f.svc.Reroll(context.Background())
	if err != nil {
		t.Fatalf("paid reroll: %v", err)
	}
	if res.State.Player.Coins != coinsAfterBingo-domain.RerollCost {
		t.Errorf("expected %d coins, got %d", coinsAfterBingo-domain.RerollCost, res.State.Player.Coins)
	}
	if res.State.Board.Regenerated != 2 || !strings.Contains(res.State.Board.Tiles[0].Text, "fallback") {
		t.Errorf("expected fallback board with regenerated 2, got %+v", res.State.Board)
	}
}

func TestReroll_InsufficientCoins(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	p := domain.DefaultPlayerState()
	p.Coins = domain.RerollCost - 1
	f.store.player = &p
	f.open(t)

	if _, err := f.svc.Reroll(context.Background()); err != nil {
		t.Fatalf("free reroll: %v", err)
	}
	_, err := f.svc.Reroll(context.Background())
	if !errors.Is(err, domain.ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	if got := f.svc.State().Player.Coins; got != domain.RerollCost-1 {
		t.Errorf("coins changed on rejected reroll: %d", got)
	}
}

func TestReset_KeepsCounterAndClearsProgress(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	if _, err := f.svc.Reroll(context.Background()); err != nil {
		t.Fatalf("reroll: %v", err)
	}
	before := f.toggle(t, 0, 1, 2)
	calls := f.gen.callCount()

	res, err := f.svc.Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	b := res.State.Board
	if b.Regenerated != 1 || b.BingoAwarded || b.FullAwarded || b.DoneCount() != 0 {
		t.Errorf("unexpected board after reset: %+v", b)
	}
	if !strings.Contains(b.Tiles[0].Text, "fallback") {
		t.Errorf("reset should use fallback statements, got %q", b.Tiles[0].Text)
	}
	if f.gen.callCount() != calls {
		t.Error("reset called the generator")
	}
	if res.State.Player.Coins != before.State.Player.Coins {
		t.Error("reset changed coins")
	}
}

func TestSetPreferences_SwitchesBoardIdentity(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	first := f.open(t)
	f.toggle(t, 0)

	res, err := f.svc.SetPreferences(context.Background(), ports.Preferences{
		Sign: domain.SignPisces, Theme: domain.ThemeSchool, Language: "cs",
	})
	if err != nil {
		t.Fatalf("set preferences: %v", err)
	}
	if res.State.Key.Sign != domain.SignPisces || res.State.Key.Language != "cs" {
		t.Errorf("unexpected key: %+v", res.State.Key)
	}
	if res.State.Board.DoneCount() != 0 {
		t.Error("new identity should start with a fresh board")
	}

	// Switching back restores the first board with its progress.
	res, err = f.svc.SetPreferences(context.Background(), ports.Preferences{
		Sign: first.State.Key.Sign, Theme: first.State.Key.Theme, Language: first.State.Key.Language,
	})
	if err != nil {
		t.Fatalf("set preferences: %v", err)
	}
	if !res.State.Board.Tiles[0].Done {
		t.Error("progress on the first board was lost")
	}

	f.svc.Close()
	if prefs, ok := f.store.LoadPreferences(context.Background()); !ok || prefs.Sign != first.State.Key.Sign {
		t.Errorf("preferences not persisted: %+v", prefs)
	}
}

func TestSetPreferences_Validation(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	cases := []struct {
		prefs ports.Preferences
		want  error
	}{
		{ports.Preferences{Sign: "ophiuchus", Theme: domain.ThemeF1, Language: "en"}, domain.ErrUnknownSign},
		{ports.Preferences{Sign: domain.SignLeo, Theme: "chess", Language: "en"}, domain.ErrUnknownTheme},
		{ports.Preferences{Sign: domain.SignLeo, Theme: domain.ThemeF1, Language: "xx"}, domain.ErrUnknownLanguage},
	}
	for _, tc := range cases {
		if _, err := f.svc.SetPreferences(context.Background(), tc.prefs); !errors.Is(err, tc.want) {
			t.Errorf("%+v: expected %v, got %v", tc.prefs, tc.want, err)
		}
	}
}

func TestCheckRollover(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)

	rolled, err := f.svc.CheckRollover(context.Background())
	if err != nil || rolled {
		t.Fatalf("expected no rollover, got %v %v", rolled, err)
	}

	f.clock.set("2024-01-02")
	rolled, err = f.svc.CheckRollover(context.Background())
	if err != nil || !rolled {
		t.Fatalf("expected rollover, got %v %v", rolled, err)
	}
	if got := f.svc.State().Key.Date; got != "2024-01-02" {
		t.Errorf("expected new date, got %s", got)
	}

	f.pub.mu.Lock()
	defer f.pub.mu.Unlock()
	last := f.pub.events[len(f.pub.events)-1]
	if last.Type != domain.EventDayRolledOver {
		t.Errorf("expected rollover event last, got %s", last.Type)
	}
}

func TestStreakAcrossDays(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	f.toggle(t, 0, 1, 2)

	f.clock.set("2024-01-02")
	if _, err := f.svc.CheckRollover(context.Background()); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	res := f.toggle(t, 3, 4, 5)
	if res.State.Player.Streak != 2 {
		t.Errorf("expected streak 2, got %d", res.State.Player.Streak)
	}
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.store.failSaves = true
	f.open(t)

	res := f.toggle(t, 0, 1, 2)
	if res.State.Player.Coins != domain.StartingCoins+domain.BingoCoins {
		t.Errorf("in-memory state lost: %+v", res.State.Player)
	}
	if got := f.svc.State().Player.XP; got != domain.BingoXP {
		t.Errorf("expected xp %d, got %d", domain.BingoXP, got)
	}
}

func TestShare(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	f.toggle(t, 0)

	text, err := f.svc.Share(context.Background())
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if !strings.Contains(text, "share.text") || !strings.Contains(text, "1/9") {
		t.Errorf("unexpected share text: %s", text)
	}

	f.toggle(t, 1, 2)
	text, _ = f.svc.Share(context.Background())
	if !strings.Contains(text, "en:share.status_bingo") {
		t.Errorf("expected bingo status, got %s", text)
	}
}

// blockingGenerator holds the first call until released.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingGenerator) Generate(ctx context.Context, _ ports.GenerateInput) ([]string, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return aiStatements("slow"), nil
}

func TestReroll_RejectsConcurrentTransitions(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)

	slow := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	svc := app.NewGameService(app.Deps{
		Players:         f.store,
		Boards:          f.store,
		Preferences:     f.store,
		Generator:       app.NewBoardGenerator(slow, staticPools{}, fakeLocalizer{}, 5*time.Second, discardLogger()),
		Localizer:       fakeLocalizer{},
		Clock:           f.clock,
		DefaultLanguage: "en",
		Logger:          discardLogger(),
	})
	defer svc.Close()
	f.svc.Close()
	if _, err := svc.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reroll(context.Background())
		done <- err
	}()
	<-slow.started

	if _, err := svc.Toggle(context.Background(), 0); !errors.Is(err, domain.ErrGenerationInProgress) {
		t.Errorf("toggle: expected ErrGenerationInProgress, got %v", err)
	}
	if _, err := svc.Reroll(context.Background()); !errors.Is(err, domain.ErrGenerationInProgress) {
		t.Errorf("reroll: expected ErrGenerationInProgress, got %v", err)
	}
	if !svc.State().Generating {
		t.Error("state should report generating")
	}

	close(slow.release)
	if err := <-done; err != nil {
		t.Fatalf("reroll: %v", err)
	}
	if got := svc.State().Board.Tiles[0].Text; got != "slow prediction 0" {
		t.Errorf("unexpected board after reroll: %s", got)
	}
}

func TestClose_LaterTransitionsAreNotPersisted(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)
	key := f.svc.State().Key
	f.svc.Close()
	saves := f.store.saves

	res := f.toggle(t, 0)
	if !res.State.Board.Tiles[0].Done {
		t.Error("toggle after close should still update the session")
	}

	f.clock.set("2024-01-02")
	rolled, err := f.svc.CheckRollover(context.Background())
	if err != nil || !rolled {
		t.Fatalf("rollover after close: rolled=%v err=%v", rolled, err)
	}

	if f.store.saves != saves {
		t.Errorf("expected no saves after close, got %d more", f.store.saves-saves)
	}
	if b, _ := f.store.LoadBoard(context.Background(), key); b.Tiles[0].Done {
		t.Error("toggle persisted after close")
	}
	if _, ok := f.store.LoadBoard(context.Background(), f.svc.State().Key); ok {
		t.Error("rolled over board persisted after close")
	}
	f.svc.Close()
}

func TestReroll_RefundsChargeWhenNoBoardCanBeBuilt(t *testing.T) {
	gen := &mockGenerator{out: aiStatements("ai")}
	pools := &switchPools{}
	f := newFixtureWithPools(t, gen, pools)
	f.open(t)
	if _, err := f.svc.Reroll(context.Background()); err != nil {
		t.Fatalf("free reroll: %v", err)
	}
	coins := f.svc.State().Player.Coins

	gen.mu.Lock()
	gen.err = domain.ErrUpstreamLLM
	gen.mu.Unlock()
	pools.breakPools()

	if _, err := f.svc.Reroll(context.Background()); !errors.Is(err, domain.ErrPoolTooSmall) {
		t.Fatalf("expected ErrPoolTooSmall, got %v", err)
	}
	st := f.svc.State()
	if st.Player.Coins != coins {
		t.Errorf("expected coins %d refunded, got %d", coins, st.Player.Coins)
	}
	if st.Board.Regenerated != 1 || st.Generating {
		t.Errorf("board should be unchanged, got %+v generating=%v", st.Board, st.Generating)
	}

	f.svc.Close()
	if got := f.store.LoadPlayer(context.Background()).Coins; got != coins {
		t.Errorf("expected persisted coins %d, got %d", coins, got)
	}
}

func TestSetPreferences_NotSavedWhenBoardSwitchFails(t *testing.T) {
	gen := &mockGenerator{out: aiStatements("ai")}
	pools := &switchPools{}
	f := newFixtureWithPools(t, gen, pools)
	f.open(t)
	before := f.svc.State().Key

	gen.mu.Lock()
	gen.err = domain.ErrUpstreamLLM
	gen.mu.Unlock()
	pools.breakPools()

	_, err := f.svc.SetPreferences(context.Background(), ports.Preferences{
		Sign: domain.SignLeo, Theme: domain.ThemeSchool, Language: "cs",
	})
	if !errors.Is(err, domain.ErrPoolTooSmall) {
		t.Fatalf("expected ErrPoolTooSmall, got %v", err)
	}

	f.svc.Close()
	if _, ok := f.store.LoadPreferences(context.Background()); ok {
		t.Error("preferences persisted although the board switch failed")
	}
	st := f.svc.State()
	if st.Key != before || st.Board == nil {
		t.Errorf("session should stay on %v with its board, got %v board=%v", before, st.Key, st.Board)
	}
}

func TestWatchRollover_RollsAndStopsOnCancel(t *testing.T) {
	f := newFixture(t, &mockGenerator{out: aiStatements("ai")})
	f.open(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.WatchRollover(ctx, 5*time.Millisecond)
	}()

	f.clock.set("2024-01-02")
	deadline := time.Now().Add(5 * time.Second)
	for f.svc.State().Key.Date != "2024-01-02" {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not roll the session over")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
