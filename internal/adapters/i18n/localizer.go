package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

//go:embed locales/*.po
var localesFS embed.FS

// noticeKeys are the free-form messages every catalog must carry.
var noticeKeys = []string{"share.text", "share.status_bingo"}

// Catalogs serves translations from the embedded gettext catalogs, one per
// language, parsed on first use.
type Catalogs struct {
	once     sync.Once
	catalogs map[string]*gotext.Po
	err      error
	fallback string
}

// NewCatalogs returns catalogs that resolve unsupported languages through
// fallback.
func NewCatalogs(fallback string) *Catalogs {
	return &Catalogs{fallback: fallback}
}

func (c *Catalogs) load() {
	c.once.Do(func() {
		entries, err := localesFS.ReadDir("locales")
		if err != nil {
			c.err = fmt.Errorf("read locales: %w", err)
			return
		}
		c.catalogs = make(map[string]*gotext.Po, len(entries))
		for _, e := range entries {
			data, err := localesFS.ReadFile(path.Join("locales", e.Name()))
			if err != nil {
				c.err = fmt.Errorf("read %s: %w", e.Name(), err)
				return
			}
			po := gotext.NewPo()
			po.Parse(data)
			c.catalogs[strings.TrimSuffix(e.Name(), ".po")] = po
		}
	})
}

// Languages lists the supported language codes in sorted order.
func (c *Catalogs) Languages() []string {
	c.load()
	langs := make([]string, 0, len(c.catalogs))
	for lang := range c.catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func (c *Catalogs) Supports(lang string) bool {
	c.load()
	_, ok := c.catalogs[lang]
	return ok
}

func (c *Catalogs) catalog(lang string) (*gotext.Po, error) {
	c.load()
	if c.err != nil {
		return nil, c.err
	}
	if po, ok := c.catalogs[lang]; ok {
		return po, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownLanguage, lang)
}

// Text translates key for lang, formatting vars into the translation.
// Unknown languages use the fallback catalog; missing keys come back verbatim.
func (c *Catalogs) Text(lang, key string, vars ...interface{}) string {
	po, err := c.catalog(lang)
	if err != nil {
		if po, err = c.catalog(c.fallback); err != nil {
			return key
		}
	}
	return po.Get(key, vars...)
}

func (c *Catalogs) SignName(lang string, sign domain.ZodiacSign) string {
	return c.Text(lang, "zodiac."+string(sign))
}

func (c *Catalogs) ThemeName(lang string, theme domain.Theme) string {
	return c.Text(lang, "theme."+string(theme))
}

func (c *Catalogs) AchievementName(lang string, id domain.AchievementID) string {
	return c.Text(lang, "achievement."+string(id))
}

// Validate checks that every catalog translates every sign, theme,
// achievement and notice, and that the fallback language exists.
func (c *Catalogs) Validate() error {
	c.load()
	if c.err != nil {
		return c.err
	}
	if !c.Supports(c.fallback) {
		return fmt.Errorf("%w: default %q has no catalog", domain.ErrUnknownLanguage, c.fallback)
	}

	keys := append([]string(nil), noticeKeys...)
	for _, s := range domain.AllSigns {
		keys = append(keys, "zodiac."+string(s))
	}
	for _, t := range domain.AllThemes {
		keys = append(keys, "theme."+string(t))
	}
	for _, a := range domain.AllAchievements {
		keys = append(keys, "achievement."+string(a))
	}

	for _, lang := range c.Languages() {
		po := c.catalogs[lang]
		for _, k := range keys {
			if po.Get(k) == k {
				return fmt.Errorf("language %q: missing translation for %q", lang, k)
			}
		}
	}
	return nil
}
