package ports

import "context"

// GenerateInput holds everything the LLM needs to write a board.
type GenerateInput struct {
	// Instruction is the system-level rule set.
	Instruction string
	// Prompt is the concrete request for this board.
	Prompt string
	// Count is the exact number of statements expected.
	Count int
}

// StatementGenerator produces predictive horoscope statements via an LLM.
// Implementations make at most one upstream call and do not retry.
type StatementGenerator interface {
	Generate(ctx context.Context, in GenerateInput) ([]string, error)
}
