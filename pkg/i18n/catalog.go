// Package i18n loads the embedded locale catalogs and resolves request locales.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the source locale every other locale falls back to
const BaseLocale = "en-GB"

// Message keys
const (
	KeyNoMatches      = "facets.no_matches"
	KeyAllPrisons     = "facets.all_prisons"
	KeyAllRegions     = "facets.all_regions"
	KeyAllCategories  = "facets.all_categories"
	KeyAllPopulations = "facets.all_populations"
)

var (
	// ErrNoCatalogs is returned when no catalog files are found
	ErrNoCatalogs = errors.New("no catalog files found")
	// ErrBaseLocaleMissing is returned when the base locale has no catalog
	ErrBaseLocaleMissing = errors.New("base locale catalog missing")
)

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every loaded locale
type Bundle struct {
	messages map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
	catalog  *catalog.Builder
}

// LoadEmbedded loads the catalogs compiled into the binary
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads catalogs laid out as locales/<locale>/<namespace>.yaml
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNoCatalogs
	}
	sort.Strings(paths)

	b := &Bundle{messages: map[string]map[string]string{}}

	for _, path := range paths {
		data, err := fs.ReadFile(catalogFS, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}

		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}

		if err := b.addFile(path, file); err != nil {
			return nil, err
		}
	}

	if _, ok := b.messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrBaseLocaleMissing, BaseLocale)
	}

	// the base locale goes first so the matcher falls back to it
	locales := b.Locales()
	b.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range locales {
		if locale != BaseLocale {
			b.tags = append(b.tags, language.MustParse(locale))
		}
	}
	b.matcher = language.NewMatcher(b.tags)

	if err := b.register(); err != nil {
		return nil, err
	}

	return b, nil
}

// register builds the x/text catalog. Keys missing from a locale are
// registered with the base locale message so every loaded locale resolves
// every base key.
func (b *Bundle) register() error {
	base := language.MustParse(BaseLocale)
	b.catalog = catalog.NewBuilder(catalog.Fallback(base))

	baseMessages := b.messages[BaseLocale]

	for _, tag := range b.tags {
		locale := tag.String()
		messages := b.messages[locale]

		keys := make([]string, 0, len(baseMessages)+len(messages))
		for key := range baseMessages {
			keys = append(keys, key)
		}
		for key := range messages {
			if _, ok := baseMessages[key]; !ok {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)

		for _, key := range keys {
			value, ok := messages[key]
			if !ok {
				value = baseMessages[key]
			}
			if err := b.catalog.SetString(tag, key, value); err != nil {
				return fmt.Errorf("register %q in locale %q: %w", key, locale, err)
			}
		}
	}

	return nil
}

func (b *Bundle) addFile(path string, file catalogFile) error {
	localeFromPath := filepath.Base(filepath.Dir(path))

	locale := strings.TrimSpace(file.Locale)
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", path, locale, localeFromPath)
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("catalog %s: invalid locale %q: %w", path, locale, err)
	}
	if strings.TrimSpace(file.Namespace) == "" {
		return fmt.Errorf("catalog %s: namespace is required", path)
	}

	messages, ok := b.messages[locale]
	if !ok {
		messages = map[string]string{}
		b.messages[locale] = messages
	}

	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", path)
		}
		if _, exists := messages[key]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", path, key, locale)
		}
		messages[key] = value
	}

	return nil
}

// Locales returns the loaded locale identifiers, sorted
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.messages))
	for locale := range b.messages {
		out = append(out, locale)
	}
	sort.Strings(out)

	return out
}

// Has reports whether a locale is loaded
func (b *Bundle) Has(locale string) bool {
	_, ok := b.messages[locale]
	return ok
}

// Message returns a message, falling back to the base locale and then to the key
func (b *Bundle) Message(locale, key string) string {
	return b.printer(locale).Sprintf(key)
}

// printer returns a printer over the bundle catalog; unknown locales print
// in the base locale
func (b *Bundle) printer(locale string) *message.Printer {
	tag := b.tags[0]
	if b.Has(locale) {
		tag = language.MustParse(locale)
	}

	return message.NewPrinter(tag, message.Catalog(b.catalog))
}

// Resolve picks a loaded locale from an explicit language parameter, then from
// an Accept-Language header, then the base locale.
func (b *Bundle) Resolve(lang, acceptLanguage string) string {
	if lang = strings.TrimSpace(lang); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return b.match(tag)
		}
	}

	if acceptLanguage = strings.TrimSpace(acceptLanguage); acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			return b.match(tags...)
		}
	}

	return BaseLocale
}

func (b *Bundle) match(tags ...language.Tag) string {
	_, index, confidence := b.matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}

	return b.tags[index].String()
}

// NoMatchesLabel returns the localized "no matches" label
func (b *Bundle) NoMatchesLabel(locale string) string {
	return b.Message(locale, KeyNoMatches)
}

// BlankChoiceLabel returns the localized label of a facet's "no filter" option
func (b *Bundle) BlankChoiceLabel(locale string, facet facets.Facet) string {
	switch facet {
	case facets.FacetRegion:
		return b.Message(locale, KeyAllRegions)
	case facets.FacetCategory:
		return b.Message(locale, KeyAllCategories)
	case facets.FacetPopulation:
		return b.Message(locale, KeyAllPopulations)
	default:
		return ""
	}
}

// FacetLabel returns the localized label of a facet selector
func (b *Bundle) FacetLabel(locale string, facet facets.Facet) string {
	return b.Message(locale, "facets.label."+string(facet))
}
