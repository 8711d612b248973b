// Package i18n provides the translated UI strings.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

// Data is the template data of a message.
type Data map[string]any

// Translator looks up messages for one locale, falling back to English.
type Translator struct {
	bundle    *goi18n.Bundle
	localizer *goi18n.Localizer
	lang      language.Tag
	logger    *zap.Logger
}

// New loads the embedded catalogues and returns a translator for locale.
func New(locale string, logger *zap.Logger) (*Translator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("failed to load translation file %s: %w", f, err)
		}
	}

	matcher := language.NewMatcher(bundle.LanguageTags())
	tag, _ := language.MatchStrings(matcher, locale)
	base, _ := tag.Base()

	return &Translator{
		bundle:    bundle,
		localizer: goi18n.NewLocalizer(bundle, base.String(), language.English.String()),
		lang:      tag,
		logger:    logger,
	}, nil
}

// MustNew is New for callers that cannot recover, such as tests.
func MustNew(locale string) *Translator {
	t, err := New(locale, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Language returns the matched locale.
func (t *Translator) Language() language.Tag {
	return t.lang
}

// Languages lists the available catalogues.
func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}

// T returns the message for id rendered with data. Unknown ids are returned
// as is.
func (t *Translator) T(id string, data ...Data) string {
	cfg := &goi18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = map[string]any(data[0])
	}
	msg, err := t.localizer.Localize(cfg)
	if err != nil {
		t.logger.Warn("translation not found", zap.String("lang", t.lang.String()), zap.String("message_id", id), zap.Error(err))
		return id
	}
	return msg
}
