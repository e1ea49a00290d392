// Package locale maps localization keys to strings per language.
//
// A Collection holds one Locale per language tag and resolves keys against
// a list of preferred languages, falling back through parent tags (for
// example "en-GB" to "en") and finally to the collection default:
//
//	c := locale.NewCollection(language.English)
//	c.Add(language.English, locale.Locale{"greet": "Hello"})
//	c.Add(language.Indonesian, locale.Locale{"greet": "Halo"})
//
//	s, err := c.Localize("greet", language.MustParse("id-ID"))
//
// Func adapts a collection to the text.Drawer Localize hook.
package locale

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GglLfr/hephae"
	golocale "github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

var (
	// ErrMissingKey is returned when no candidate locale defines a key.
	ErrMissingKey = errors.New("locale: missing key")

	// ErrNoLocale is returned when the collection has no locale at all,
	// or its default language was never added.
	ErrNoLocale = errors.New("locale: no locale for language")
)

// Locale maps localization keys to localized strings.
type Locale map[string]string

// Collection is a set of locales keyed by language. It is safe for
// concurrent use.
type Collection struct {
	mu      sync.RWMutex
	def     language.Tag
	locales map[language.Tag]Locale
	tags    []language.Tag
	matcher language.Matcher
}

// NewCollection creates an empty collection whose fallback language is def.
func NewCollection(def language.Tag) *Collection {
	return &Collection{def: def, locales: make(map[language.Tag]Locale)}
}

// Default returns the fallback language.
func (c *Collection) Default() language.Tag { return c.def }

// Add registers loc for tag, merging into any locale already present.
// Later additions win on key conflicts.
func (c *Collection) Add(tag language.Tag, loc Locale) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dst, ok := c.locales[tag]
	if !ok {
		dst = make(Locale, len(loc))
		c.locales[tag] = dst
		c.tags = append(c.tags, tag)
		c.matcher = nil
	}
	for k, v := range loc {
		dst[k] = v
	}
}

// Languages returns the registered languages in insertion order.
func (c *Collection) Languages() []language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]language.Tag(nil), c.tags...)
}

// Validate reports whether the default language has a locale.
func (c *Collection) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.locales[c.def]; !ok {
		return fmt.Errorf("%w: default %s", ErrNoLocale, c.def)
	}
	return nil
}

// Localize resolves key against the preferred languages in order. For each
// preferred language the best registered match and its parents are tried;
// the default language is tried last.
func (c *Collection) Localize(key string, preferred ...language.Tag) (string, error) {
	c.mu.Lock()
	if len(c.tags) == 0 {
		c.mu.Unlock()
		return "", ErrNoLocale
	}
	if c.matcher == nil {
		c.matcher = language.NewMatcher(c.tags)
	}
	matcher := c.matcher
	c.mu.Unlock()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, tag := range c.candidates(matcher, preferred) {
		loc, ok := c.locales[tag]
		if !ok {
			continue
		}
		if s, ok := loc[key]; ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
}

// candidates lists the tags to try, without duplicates.
func (c *Collection) candidates(m language.Matcher, preferred []language.Tag) []language.Tag {
	var out []language.Tag
	seen := make(map[language.Tag]bool)
	add := func(t language.Tag) {
		for ; ; t = t.Parent() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
			if t.IsRoot() {
				return
			}
		}
	}
	for _, p := range preferred {
		add(p)
		if _, i, conf := m.Match(p); conf != language.No {
			add(c.tags[i])
		}
	}
	add(c.def)
	return out
}

// Func returns a lookup function bound to the preferred languages, suitable
// for text.Drawer.Localize.
func (c *Collection) Func(preferred ...language.Tag) func(key string) (string, error) {
	preferred = append([]language.Tag(nil), preferred...)
	return func(key string) (string, error) {
		return c.Localize(key, preferred...)
	}
}

// SystemLanguage returns the user's preferred language as reported by the
// operating system, or fallback when it cannot be determined.
func SystemLanguage(fallback language.Tag) language.Tag {
	name, err := golocale.GetLocale()
	if err != nil || name == "" {
		hephae.Logger().Debug("locale: system language unavailable", "err", err)
		return fallback
	}
	tag, err := language.Parse(name)
	if err != nil || tag == language.Und {
		hephae.Logger().Debug("locale: unparsable system language", "locale", name, "err", err)
		return fallback
	}
	return tag
}
