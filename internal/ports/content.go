package ports

import "github.com/randomtoy/horobingo-go/internal/domain"

// ContentPools serves the curated fallback statements in a language.
type ContentPools interface {
	ThemePool(lang string, theme domain.Theme) []string
	SignPool(lang string, sign domain.ZodiacSign) []string
}

// Localizer resolves display strings for a language.
type Localizer interface {
	SignName(lang string, sign domain.ZodiacSign) string
	ThemeName(lang string, theme domain.Theme) string
	Text(lang, key string, vars ...interface{}) string
	Supports(lang string) bool
}

// Clock reports the local calendar day as YYYY-MM-DD.
type Clock interface {
	Today() string
}

// EventPublisher delivers domain events to whoever is listening.
type EventPublisher interface {
	Publish(events ...domain.Event)
}
