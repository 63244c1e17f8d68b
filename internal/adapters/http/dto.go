package http

import (
	"github.com/randomtoy/horobingo-go/internal/app"
	"github.com/randomtoy/horobingo-go/internal/domain"
)

// StateResponse is the JSON shape returned by GET /v1/state.
type StateResponse struct {
	Date       string             `json:"date"`
	Sign       domain.ZodiacSign  `json:"sign"`
	SignName   string             `json:"sign_name"`
	Language   string             `json:"language"`
	Theme      domain.Theme       `json:"theme"`
	ThemeName  string             `json:"theme_name"`
	Board      *BoardResponse     `json:"board"`
	BingoLine  *[3]int            `json:"bingo_line"`
	Player     PlayerResponse     `json:"player"`
	Reroll     domain.RerollQuote `json:"reroll"`
	Generating bool               `json:"generating"`
}

type BoardResponse struct {
	Tiles        []domain.Tile `json:"tiles"`
	BingoAwarded bool          `json:"bingo_awarded"`
	FullAwarded  bool          `json:"full_awarded"`
	Regenerated  int           `json:"regenerated"`
	DoneCount    int           `json:"done_count"`
}

type PlayerResponse struct {
	XP            int                   `json:"xp"`
	NextLevelXP   int                   `json:"next_level_xp"`
	Coins         int                   `json:"coins"`
	Level         int                   `json:"level"`
	LastBingoDate string                `json:"last_bingo_date,omitempty"`
	Streak        int                   `json:"streak"`
	Achievements  []AchievementResponse `json:"achievements"`
}

type AchievementResponse struct {
	ID    domain.AchievementID `json:"id"`
	Name  string               `json:"name"`
	Emoji string               `json:"emoji"`
}

// TransitionResponse is returned by every mutating endpoint.
type TransitionResponse struct {
	State  StateResponse  `json:"state"`
	Events []domain.Event `json:"events"`
}

type PreferencesRequest struct {
	Sign     string `json:"sign"`
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

type ShareResponse struct {
	Text string `json:"text"`
}

// FeedMessage is one frame on the /v1/events websocket.
type FeedMessage struct {
	Kind  string         `json:"kind"`
	State *StateResponse `json:"state,omitempty"`
	Event *domain.Event  `json:"event,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toStateResponse(s app.Snapshot, names Names) StateResponse {
	lang := s.Key.Language
	resp := StateResponse{
		Date:       s.Key.Date,
		Sign:       s.Key.Sign,
		SignName:   names.SignName(lang, s.Key.Sign),
		Language:   lang,
		Theme:      s.Key.Theme,
		ThemeName:  names.ThemeName(lang, s.Key.Theme),
		BingoLine:  s.BingoLine,
		Reroll:     s.Quote,
		Generating: s.Generating,
		Player: PlayerResponse{
			XP:            s.Player.XP,
			NextLevelXP:   domain.ThresholdForLevel(s.Player.Level),
			Coins:         s.Player.Coins,
			Level:         s.Player.Level,
			LastBingoDate: s.Player.LastBingoDate,
			Streak:        s.Player.Streak,
			Achievements:  make([]AchievementResponse, 0, len(s.Player.Achievements)),
		},
	}
	for _, id := range s.Player.Achievements {
		resp.Player.Achievements = append(resp.Player.Achievements, AchievementResponse{
			ID:    id,
			Name:  names.AchievementName(lang, id),
			Emoji: domain.AchievementEmoji[id],
		})
	}
	if s.Board != nil {
		resp.Board = &BoardResponse{
			Tiles:        s.Board.Tiles,
			BingoAwarded: s.Board.BingoAwarded,
			FullAwarded:  s.Board.FullAwarded,
			Regenerated:  s.Board.Regenerated,
			DoneCount:    s.Board.DoneCount(),
		}
	}
	return resp
}

func toTransitionResponse(r app.Result, names Names) TransitionResponse {
	events := r.Events
	if events == nil {
		events = []domain.Event{}
	}
	return TransitionResponse{State: toStateResponse(r.State, names), Events: events}
}
