package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

// BoardGenerator produces boards from the LLM and falls back to the curated
// pools when the LLM cannot deliver.
type BoardGenerator struct {
	generator ports.StatementGenerator
	pools     ports.ContentPools
	localizer ports.Localizer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewBoardGenerator(gen ports.StatementGenerator, pools ports.ContentPools, loc ports.Localizer, timeout time.Duration, logger *slog.Logger) *BoardGenerator {
	return &BoardGenerator{
		generator: gen,
		pools:     pools,
		localizer: loc,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fallback builds the deterministic board for key.
func (g *BoardGenerator) Fallback(key domain.BoardKey, regenerated int) (domain.Board, error) {
	return domain.GenerateFallback(domain.FallbackRequest{
		Date:        key.Date,
		Sign:        key.Sign,
		Theme:       key.Theme,
		Regenerated: regenerated,
		ThemePool:   g.pools.ThemePool(key.Language, key.Theme),
		SignPool:    g.pools.SignPool(key.Language, key.Sign),
	})
}

// GenerateAI asks the LLM for a board. It makes exactly one upstream call.
func (g *BoardGenerator) GenerateAI(ctx context.Context, key domain.BoardKey, regenerated int) (domain.Board, error) {
	langName := languageName(key.Language)
	in := ports.GenerateInput{
		Instruction: buildInstruction(langName),
		Prompt: buildPrompt(
			g.localizer.SignName(key.Language, key.Sign),
			g.localizer.ThemeName(key.Language, key.Theme),
			key.Date,
			langName,
		),
		Count: domain.BoardSize,
	}

	statements, err := g.generator.Generate(ctx, in)
	if err != nil {
		return domain.Board{}, fmt.Errorf("generate statements: %w", err)
	}
	return domain.NewBoard(statements, regenerated)
}

// Generate returns an LLM board, or the fallback board when generation
// fails. Only a broken fallback pool is reported as an error.
func (g *BoardGenerator) Generate(ctx context.Context, key domain.BoardKey, regenerated int) (domain.Board, []domain.Event, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	board, err := g.GenerateAI(ctx, key, regenerated)
	if err == nil {
		g.logger.InfoContext(ctx, "board generated",
			"key", key.String(),
			"regenerated", regenerated,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return board, []domain.Event{domain.NewEvent(domain.EventBoardGenerated, domain.GenerationPayload{
			Key:         key.String(),
			Regenerated: regenerated,
		})}, nil
	}

	g.logger.WarnContext(ctx, "LLM board generation failed, using fallback",
		"key", key.String(),
		"regenerated", regenerated,
		"error", err,
	)
	board, ferr := g.Fallback(key, regenerated)
	if ferr != nil {
		return domain.Board{}, nil, fmt.Errorf("fallback board: %w", ferr)
	}
	return board, []domain.Event{
		domain.NewEvent(domain.EventGenerationFailed, domain.GenerationPayload{
			Key:         key.String(),
			Regenerated: regenerated,
			Reason:      err.Error(),
		}),
		domain.NewEvent(domain.EventBoardGenerated, domain.GenerationPayload{
			Key:         key.String(),
			Regenerated: regenerated,
			Fallback:    true,
		}),
	}, nil
}
