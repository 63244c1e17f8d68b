package content

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

// One file per language: data/<lang>.yaml.
//
//go:embed data/*.yaml
var poolFS embed.FS

type poolDocument struct {
	Themes map[domain.Theme][]string      `yaml:"themes"`
	Signs  map[domain.ZodiacSign][]string `yaml:"signs"`
}

// EmbeddedStore serves fallback statements from the embedded YAML files.
// Languages without a file are served from the fallback language.
type EmbeddedStore struct {
	once     sync.Once
	docs     map[string]poolDocument
	err      error
	fallback string
}

func NewEmbeddedStore(fallback string) *EmbeddedStore {
	return &EmbeddedStore{fallback: fallback}
}

func (s *EmbeddedStore) init() {
	entries, err := poolFS.ReadDir("data")
	if err != nil {
		s.err = fmt.Errorf("read embedded pools: %w", err)
		return
	}
	s.docs = make(map[string]poolDocument, len(entries))
	for _, e := range entries {
		raw, err := poolFS.ReadFile(path.Join("data", e.Name()))
		if err != nil {
			s.err = fmt.Errorf("read embedded pools %s: %w", e.Name(), err)
			return
		}
		var doc poolDocument
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			s.err = fmt.Errorf("parse embedded pools %s: %w", e.Name(), err)
			return
		}
		s.docs[strings.TrimSuffix(e.Name(), ".yaml")] = doc
	}
}

func (s *EmbeddedStore) doc(lang string) poolDocument {
	s.once.Do(s.init)
	if d, ok := s.docs[lang]; ok {
		return d
	}
	return s.docs[s.fallback]
}

// Languages lists the languages with their own pools, sorted.
func (s *EmbeddedStore) Languages() []string {
	s.once.Do(s.init)
	langs := make([]string, 0, len(s.docs))
	for lang := range s.docs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ThemePool returns the statements for theme, nil if the data failed to load.
func (s *EmbeddedStore) ThemePool(lang string, theme domain.Theme) []string {
	return s.doc(lang).Themes[theme]
}

// SignPool returns the statements for sign. The universal sign has none.
func (s *EmbeddedStore) SignPool(lang string, sign domain.ZodiacSign) []string {
	return s.doc(lang).Signs[sign]
}

// Validate checks that the fallback language has pools and that in every
// language each theme and sign has an entry and every pairing offers
// enough statements for a board.
func (s *EmbeddedStore) Validate() error {
	s.once.Do(s.init)
	if s.err != nil {
		return s.err
	}
	if _, ok := s.docs[s.fallback]; !ok {
		return fmt.Errorf("%w: default %q has no pools", domain.ErrUnknownLanguage, s.fallback)
	}
	for _, lang := range s.Languages() {
		doc := s.docs[lang]
		for _, theme := range domain.AllThemes {
			if _, ok := doc.Themes[theme]; !ok {
				return fmt.Errorf("%s: theme %q missing from pools", lang, theme)
			}
		}
		for _, sign := range domain.AllSigns {
			if _, ok := doc.Signs[sign]; !ok {
				return fmt.Errorf("%s: sign %q missing from pools", lang, sign)
			}
		}
		for _, theme := range domain.AllThemes {
			for _, sign := range domain.AllSigns {
				if n := len(doc.Themes[theme]) + len(doc.Signs[sign]); n < domain.BoardSize {
					return fmt.Errorf("%w: %s theme %q sign %q has %d", domain.ErrPoolTooSmall, lang, theme, sign, n)
				}
			}
		}
	}
	return nil
}
