package domain

import "errors"

var (
	ErrUnknownSign          = errors.New("unknown zodiac sign")
	ErrUnknownTheme         = errors.New("unknown theme")
	ErrUnknownLanguage      = errors.New("unknown language")
	ErrTileNotFound         = errors.New("tile not found")
	ErrPoolTooSmall         = errors.New("fallback pool has fewer than 9 statements")
	ErrInvalidStatements    = errors.New("generator returned invalid statements")
	ErrInsufficientCoins    = errors.New("not enough coins to reroll")
	ErrNoBoard              = errors.New("no board loaded")
	ErrGenerationInProgress = errors.New("board generation already in progress")
	ErrGeneratorUnavailable = errors.New("statement generator not configured")
	ErrUpstreamLLM          = errors.New("upstream LLM failure")
)
