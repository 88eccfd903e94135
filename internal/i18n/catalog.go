// Package i18n serves the console's per-language message tables. Catalogs
// are embedded; a key missing from the active language falls back to the
// default language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog holds every loaded language table.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// Load parses the embedded locale files. fallback must name one of them.
func Load(fallback string) (*Catalog, error) {
	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("i18n: parse fallback %q: %w", fallback, err)
	}

	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales: %w", err)
	}

	c := &Catalog{
		fallback: fallbackTag,
		messages: make(map[language.Tag]map[string]string),
	}
	// The fallback tag must come first: language.NewMatcher treats the first
	// entry as the default.
	c.tags = append(c.tags, fallbackTag)
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse locale %q: %w", name, err)
		}
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, err
		}
		table := make(map[string]string)
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("i18n: decode %s: %w", entry.Name(), err)
		}
		c.messages[tag] = table
		if tag != fallbackTag {
			c.tags = append(c.tags, tag)
		}
	}
	if _, ok := c.messages[fallbackTag]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %q has no catalog", fallback)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Resolve matches the requested language and returns the resolved tag plus
// the full table for it, with fallback values filled in for missing keys.
func (c *Catalog) Resolve(lang string) (language.Tag, map[string]string) {
	tag, _ := language.MatchStrings(c.matcher, lang)
	base := c.tableFor(tag)

	merged := make(map[string]string, len(c.messages[c.fallback]))
	for key, value := range c.messages[c.fallback] {
		merged[key] = value
	}
	for key, value := range base {
		merged[key] = value
	}
	return tag, merged
}

// Lookup returns one message, applying fallback.
func (c *Catalog) Lookup(lang, key string) string {
	tag, _ := language.MatchStrings(c.matcher, lang)
	if value, ok := c.tableFor(tag)[key]; ok {
		return value
	}
	return c.messages[c.fallback][key]
}

// Languages lists the loaded language tags, fallback first.
func (c *Catalog) Languages() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

func (c *Catalog) tableFor(tag language.Tag) map[string]string {
	if table, ok := c.messages[tag]; ok {
		return table
	}
	// Matcher may return a regional variant of a loaded base language.
	base, _ := tag.Base()
	for loaded, table := range c.messages {
		if lb, _ := loaded.Base(); lb == base {
			return table
		}
	}
	return c.messages[c.fallback]
}
