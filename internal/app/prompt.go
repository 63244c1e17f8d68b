package app

import (
	"fmt"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

// langNames maps supported BCP 47 codes to the language names used in prompts.
var langNames = map[string]string{
	"en": "English",
	"cs": "Czech",
}

func languageName(lang string) string {
	if name, ok := langNames[lang]; ok {
		return name
	}
	return "English"
}

func buildInstruction(langName string) string {
	return fmt.Sprintf(`You are a professional, creative astrologer writing %d unique horoscope predictions for a bingo board.

Rules:
- Predict, never command. Phrase every statement as a potential event, feeling or encounter.
  Bad: "Be creative today." Good: "A wave of creative energy will inspire a new idea."
  Bad: "You should focus on your finances." Good: "A careful look at your finances could reveal a surprising opportunity."
- Be specific and evocative; avoid generic lines such as "Today will be a good day."
- Spread the statements across life areas: career, relationships, finance, health, personal growth, social life.
- Every statement must be different from the others.
- Write everything in %s.

Respond with ONLY a JSON array of exactly %d strings (no markdown, no code fences, no extra text).`,
		domain.BoardSize, langName, domain.BoardSize)
}

func buildPrompt(signName, themeName, date, langName string) string {
	return fmt.Sprintf(`Generate %d unique, insightful horoscope predictions for a person with the zodiac sign %s.
The overarching theme for today is %q. The predictions are for today, %s.
Write them in %s and cover a diverse range of life topics (career, love, finance, personal growth).
Let the sign's character colour the predictions subtly, but tie them strongly to the theme.`,
		domain.BoardSize, signName, themeName, date, langName)
}
