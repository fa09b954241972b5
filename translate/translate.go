// Package translate formats user visible messages for the COM simulator
// in the language of the current user's locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// Fallback is the locale used when the system reports none.
const Fallback = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("comsoc: locale: %v", err)
	}

	SetLocales(locales...)
}

// SetLocales selects the message printer from a preference-ordered list of
// BCP 47 locale names.
func SetLocales(locales ...string) {
	if len(locales) == 0 {
		locales = []string{Fallback}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
