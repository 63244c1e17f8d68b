package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// BingoLines enumerates the winning triples: rows, then columns, then diagonals.
var BingoLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// NewBoard builds a fresh board from exactly BoardSize statements.
func NewBoard(statements []string, regenerated int) (Board, error) {
	if len(statements) != BoardSize {
		return Board{}, fmt.Errorf("%w: got %d statements, want %d", ErrInvalidStatements, len(statements), BoardSize)
	}
	tiles := make([]Tile, BoardSize)
	for i, text := range statements {
		if strings.TrimSpace(text) == "" {
			return Board{}, fmt.Errorf("%w: statement %d is empty", ErrInvalidStatements, i)
		}
		tiles[i] = Tile{ID: i, Text: text}
	}
	return Board{Tiles: tiles, Regenerated: regenerated}, nil
}

// FallbackRequest carries everything the deterministic generator needs.
type FallbackRequest struct {
	Date        string
	Sign        ZodiacSign
	Theme       Theme
	Regenerated int
	ThemePool   []string
	SignPool    []string
}

// FallbackSeed is the shuffle seed for a request. Including the regeneration
// count makes every reroll of the same day produce a different board.
func FallbackSeed(date string, sign ZodiacSign, theme Theme, regenerated int) string {
	return strings.Join([]string{date, string(sign), string(theme), strconv.Itoa(regenerated)}, ":")
}

// GenerateFallback picks the first BoardSize statements of the seeded
// shuffle of the theme pool followed by the sign pool.
func GenerateFallback(req FallbackRequest) (Board, error) {
	pool := make([]string, 0, len(req.ThemePool)+len(req.SignPool))
	pool = append(pool, req.ThemePool...)
	pool = append(pool, req.SignPool...)
	if len(pool) < BoardSize {
		return Board{}, fmt.Errorf("%w: theme %q sign %q has %d", ErrPoolTooSmall, req.Theme, req.Sign, len(pool))
	}

	seed := FallbackSeed(req.Date, req.Sign, req.Theme, req.Regenerated)
	shuffled := SeededShuffle(pool, seed)
	return NewBoard(shuffled[:BoardSize], req.Regenerated)
}

// ToggleTile flips the done flag of tile id and returns the updated board.
func ToggleTile(b Board, id int) (Board, error) {
	out := b.Clone()
	for i := range out.Tiles {
		if out.Tiles[i].ID == id {
			out.Tiles[i].Done = !out.Tiles[i].Done
			return out, nil
		}
	}
	return Board{}, fmt.Errorf("%w: %d", ErrTileNotFound, id)
}

// FindBingoLine returns the first complete line in BingoLines order.
func FindBingoLine(tiles []Tile) ([3]int, bool) {
	done := mapset.New[int]()
	for _, t := range tiles {
		if t.Done {
			done.Put(t.ID)
		}
	}
	for _, line := range BingoLines {
		if done.Has(line[0]) && done.Has(line[1]) && done.Has(line[2]) {
			return line, true
		}
	}
	return [3]int{}, false
}

// IsFull reports whether every tile is done.
func IsFull(tiles []Tile) bool {
	if len(tiles) == 0 {
		return false
	}
	for _, t := range tiles {
		if !t.Done {
			return false
		}
	}
	return true
}

// ResetBoard replaces the tiles of current with those of fresh, clears the
// award flags and keeps the regeneration counter of current.
func ResetBoard(current, fresh Board) Board {
	out := fresh.Clone()
	for i := range out.Tiles {
		out.Tiles[i].Done = false
	}
	out.BingoAwarded = false
	out.FullAwarded = false
	out.Regenerated = current.Regenerated
	return out
}
