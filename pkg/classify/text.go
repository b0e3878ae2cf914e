package classify

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyPositive = "verdict.positive"
	keyNegative = "verdict.negative"
)

// SupportedLocales lists the languages verdict text is available in.
// The first entry is the fallback.
var SupportedLocales = []language.Tag{language.English, language.Russian}

var (
	localeMatcher = language.NewMatcher(SupportedLocales)
	verdictText   = newVerdictCatalog()
)

func newVerdictCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	b.SetString(language.English, keyPositive, "This is a %s")
	b.SetString(language.English, keyNegative, "This is not a %s")

	b.SetString(language.Russian, keyPositive, "Это %s")
	b.SetString(language.Russian, keyNegative, "Это не %s")
	// Target nouns. Unknown targets are shown as given.
	b.SetString(language.Russian, DefaultTarget, "часы")

	return b
}

// MatchLocale picks the closest supported locale for an Accept-Language
// style string such as "ru-RU" or "de, en;q=0.8". Unparseable input gives
// English.
func MatchLocale(s string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return SupportedLocales[0]
	}
	_, idx, _ := localeMatcher.Match(tags...)
	return SupportedLocales[idx]
}

// VerdictText returns the user-facing sentence for a verdict about target.
func VerdictText(positive bool, target string, locale language.Tag) string {
	p := message.NewPrinter(locale, message.Catalog(verdictText))

	// The target doubles as the catalog key; escape it so a '%' in a
	// user-supplied target is not read as a verb.
	noun := p.Sprintf(strings.ReplaceAll(target, "%", "%%"))
	if positive {
		return p.Sprintf(keyPositive, noun)
	}
	return p.Sprintf(keyNegative, noun)
}
