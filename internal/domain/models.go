package domain

import "fmt"

// BoardSize is the number of tiles on a 3x3 board.
const BoardSize = 9

// Reward and pricing constants.
const (
	BingoXP        = 60
	BingoCoins     = 5
	FullBoardXP    = 120
	FullBoardCoins = 10
	RerollCost     = 3
	StartingCoins  = 10
)

// ZodiacSign identifies the player's sign. Values double as storage keys.
type ZodiacSign string

const (
	SignUniversal   ZodiacSign = "universal"
	SignAries       ZodiacSign = "beran"
	SignTaurus      ZodiacSign = "byk"
	SignGemini      ZodiacSign = "blizenci"
	SignCancer      ZodiacSign = "rak"
	SignLeo         ZodiacSign = "lev"
	SignVirgo       ZodiacSign = "panna"
	SignLibra       ZodiacSign = "vahy"
	SignScorpio     ZodiacSign = "stir"
	SignSagittarius ZodiacSign = "strelec"
	SignCapricorn   ZodiacSign = "kozoroh"
	SignAquarius    ZodiacSign = "vodnar"
	SignPisces      ZodiacSign = "ryby"
)

// AllSigns lists every sign in display order.
var AllSigns = []ZodiacSign{
	SignUniversal, SignAries, SignTaurus, SignGemini, SignCancer, SignLeo, SignVirgo,
	SignLibra, SignScorpio, SignSagittarius, SignCapricorn, SignAquarius, SignPisces,
}

// Theme selects the flavour of the day's statements.
type Theme string

const (
	ThemeUniversal Theme = "universal"
	ThemeF1        Theme = "f1"
	ThemeSchool    Theme = "school"
)

// AllThemes lists every theme in display order.
var AllThemes = []Theme{ThemeUniversal, ThemeF1, ThemeSchool}

// AchievementID is a closed set of unlockable achievements.
type AchievementID string

const (
	AchievementFirstBingo AchievementID = "first_bingo"
	AchievementStreak3    AchievementID = "streak3"
	AchievementStreak7    AchievementID = "streak7"
	AchievementStreak30   AchievementID = "streak30"
	AchievementFullBoard  AchievementID = "full_board"
	AchievementRegen      AchievementID = "regen"
)

// AllAchievements lists every achievement in display order.
var AllAchievements = []AchievementID{
	AchievementFirstBingo, AchievementStreak3, AchievementStreak7,
	AchievementStreak30, AchievementFullBoard, AchievementRegen,
}

// AchievementEmoji is the badge shown next to each achievement.
var AchievementEmoji = map[AchievementID]string{
	AchievementFirstBingo: "🎉",
	AchievementStreak3:    "🥉",
	AchievementStreak7:    "🥈",
	AchievementStreak30:   "🥇",
	AchievementFullBoard:  "🏆",
	AchievementRegen:      "🎲",
}

// ParseSign validates a raw sign id.
func ParseSign(raw string) (ZodiacSign, error) {
	for _, s := range AllSigns {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSign, raw)
}

// ParseTheme validates a raw theme id.
func ParseTheme(raw string) (Theme, error) {
	for _, t := range AllThemes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, raw)
}

// ValidateTables checks that every enumerated value has an entry in the
// lookup tables keyed by it.
func ValidateTables() error {
	for _, id := range AllAchievements {
		if AchievementEmoji[id] == "" {
			return fmt.Errorf("achievement %q has no emoji", id)
		}
	}
	return nil
}

// Tile is one cell of the board. ID is the row-major position 0..8.
type Tile struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Board is the per-day state for one BoardKey.
type Board struct {
	Tiles        []Tile `json:"tiles"`
	BingoAwarded bool   `json:"bingoAwarded"`
	FullAwarded  bool   `json:"fullAwarded"`
	Regenerated  int    `json:"regenerated"`
}

// Clone returns a copy that shares no tile storage with b.
func (b Board) Clone() Board {
	out := b
	out.Tiles = make([]Tile, len(b.Tiles))
	copy(out.Tiles, b.Tiles)
	return out
}

// DoneCount returns how many tiles are marked done.
func (b Board) DoneCount() int {
	n := 0
	for _, t := range b.Tiles {
		if t.Done {
			n++
		}
	}
	return n
}

// BoardKey identifies a board: one per date, sign, language and theme.
type BoardKey struct {
	Date     string     `json:"date"`
	Sign     ZodiacSign `json:"sign"`
	Language string     `json:"language"`
	Theme    Theme      `json:"theme"`
}

func (k BoardKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Date, k.Sign, k.Language, k.Theme)
}

// PlayerState is the persistent progression record. An empty LastBingoDate
// means the player has never scored a bingo.
type PlayerState struct {
	XP            int             `json:"xp"`
	Coins         int             `json:"coins"`
	Level         int             `json:"level"`
	LastBingoDate string          `json:"lastBingoDate,omitempty"`
	Streak        int             `json:"streak"`
	Achievements  []AchievementID `json:"achievements"`
}

// DefaultPlayerState is the state of a brand new player.
func DefaultPlayerState() PlayerState {
	return PlayerState{
		Coins:        StartingCoins,
		Level:        1,
		Achievements: []AchievementID{},
	}
}

// HasAchievement reports whether id is already unlocked.
func (p PlayerState) HasAchievement(id AchievementID) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

func (p PlayerState) clone() PlayerState {
	out := p
	out.Achievements = make([]AchievementID, len(p.Achievements))
	copy(out.Achievements, p.Achievements)
	return out
}
