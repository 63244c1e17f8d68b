package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO 8601 calendar date used for board keys and streaks.
const DateLayout = "2006-01-02"

// Streak thresholds and the achievements they unlock, in ascending order.
var streakAchievements = []struct {
	days int
	id   AchievementID
}{
	{3, AchievementStreak3},
	{7, AchievementStreak7},
	{30, AchievementStreak30},
}

// Outcome is a committed transition: the new state and what happened.
type Outcome struct {
	Player PlayerState
	Board  Board
	Events []Event
	// Line is the line that produced a bingo in this transition, if any.
	Line *[3]int
}

// ThresholdForLevel is the cumulative xp needed to advance past level.
func ThresholdForLevel(level int) int {
	return 100 * level
}

// LevelForXP is the level a player with xp experience is at.
func LevelForXP(xp int) int {
	level := 1
	for xp >= ThresholdForLevel(level) {
		level++
	}
	return level
}

// AddXP credits amount and levels up as many times as the new total allows,
// emitting one LevelUp event per level gained.
func AddXP(p PlayerState, amount int) (PlayerState, []Event) {
	out := p.clone()
	out.XP += amount
	if out.Level < 1 {
		out.Level = 1
	}
	var events []Event
	for out.XP >= ThresholdForLevel(out.Level) {
		out.Level++
		events = append(events, NewEvent(EventLevelUp, LevelUpPayload{Level: out.Level}))
	}
	return out, events
}

// GapDays is the whole number of calendar days from one date to another,
// rounded to absorb DST jitter.
func GapDays(from, to string) (int, error) {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", from, err)
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", to, err)
	}
	return int(math.Round(b.Sub(a).Hours() / 24)), nil
}

// NextStreak computes the streak after a bingo on today.
// A gap of one day extends the streak, a longer gap restarts it and a
// same-day or backwards gap leaves it alone.
func NextStreak(lastBingoDate string, streak int, today string) int {
	if lastBingoDate == "" {
		return 1
	}
	gap, err := GapDays(lastBingoDate, today)
	if err != nil {
		// Unreadable stored date: treat as a first bingo.
		return 1
	}
	switch {
	case gap == 1:
		return streak + 1
	case gap > 1:
		return 1
	default:
		return streak
	}
}

func unlock(p *PlayerState, id AchievementID) []Event {
	if p.HasAchievement(id) {
		return nil
	}
	p.Achievements = append(p.Achievements, id)
	return []Event{NewEvent(EventAchievementUnlocked, AchievementPayload{
		Achievement: id,
		Emoji:       AchievementEmoji[id],
	})}
}

// UnlockAchievement adds id if missing.
func UnlockAchievement(p PlayerState, id AchievementID) (PlayerState, []Event) {
	out := p.clone()
	events := unlock(&out, id)
	return out, events
}

// ApplyToggle flips tile id and evaluates bingo and full-board rewards.
func ApplyToggle(p PlayerState, b Board, id int, today string) (Outcome, error) {
	toggled, err := ToggleTile(b, id)
	if err != nil {
		return Outcome{}, err
	}
	return EvaluateBoard(p, toggled, today)
}

// EvaluateBoard awards the day's bingo and full board, each at most once
// per board. Bingo is evaluated first. Nothing is changed on error.
func EvaluateBoard(p PlayerState, b Board, today string) (Outcome, error) {
	if _, err := time.Parse(DateLayout, today); err != nil {
		return Outcome{}, fmt.Errorf("parse date %q: %w", today, err)
	}

	out := Outcome{Player: p.clone(), Board: b.Clone()}

	if !out.Board.BingoAwarded {
		if line, ok := FindBingoLine(out.Board.Tiles); ok {
			out.Board.BingoAwarded = true
			out.Line = &line

			player := out.Player
			player.Coins += BingoCoins
			player.Streak = NextStreak(player.LastBingoDate, player.Streak, today)
			player.LastBingoDate = today

			out.Events = append(out.Events, NewEvent(EventBingoAwarded, BingoPayload{
				Line:   line,
				XP:     BingoXP,
				Coins:  BingoCoins,
				Streak: player.Streak,
			}))

			var levelEvents []Event
			player, levelEvents = AddXP(player, BingoXP)
			out.Events = append(out.Events, levelEvents...)

			out.Events = append(out.Events, unlock(&player, AchievementFirstBingo)...)
			for _, s := range streakAchievements {
				if player.Streak >= s.days {
					out.Events = append(out.Events, unlock(&player, s.id)...)
				}
			}
			out.Player = player
		}
	}

	if !out.Board.FullAwarded && IsFull(out.Board.Tiles) {
		out.Board.FullAwarded = true

		player := out.Player
		player.Coins += FullBoardCoins
		out.Events = append(out.Events, NewEvent(EventFullBoardAwarded, FullBoardPayload{
			XP:    FullBoardXP,
			Coins: FullBoardCoins,
		}))

		var levelEvents []Event
		player, levelEvents = AddXP(player, FullBoardXP)
		out.Events = append(out.Events, levelEvents...)
		out.Events = append(out.Events, unlock(&player, AchievementFullBoard)...)
		out.Player = player
	}

	return out, nil
}

// RerollQuote is the price and eligibility of replacing the current board.
type RerollQuote struct {
	Free    bool `json:"free"`
	Cost    int  `json:"cost"`
	Allowed bool `json:"allowed"`
}

// QuoteReroll prices a reroll: free while the day's first board has not
// been replaced, RerollCost coins afterwards.
func QuoteReroll(b Board, coins int) RerollQuote {
	if b.Regenerated == 0 {
		return RerollQuote{Free: true, Allowed: true}
	}
	return RerollQuote{Cost: RerollCost, Allowed: coins >= RerollCost}
}

// ChargeReroll debits the reroll price before the new board is generated.
func ChargeReroll(p PlayerState, b Board) (PlayerState, []Event, error) {
	q := QuoteReroll(b, p.Coins)
	if !q.Allowed {
		return PlayerState{}, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCoins, p.Coins, q.Cost)
	}
	out := p.clone()
	out.Coins -= q.Cost
	return out, []Event{NewEvent(EventRerollCharged, RerollPayload{Free: q.Free, Cost: q.Cost})}, nil
}

// CompleteReroll records a successful reroll.
func CompleteReroll(p PlayerState) (PlayerState, []Event) {
	return UnlockAchievement(p, AchievementRegen)
}
