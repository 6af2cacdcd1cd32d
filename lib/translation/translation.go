package translation

import (
	"github.com/leonelquinteros/gotext"
	"strings"
)

// Configure loads the gettext catalog for lang from localesDir.
// Message ids are English sentences, so a missing catalog falls back to English.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, strings.ToLower(lang), "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
