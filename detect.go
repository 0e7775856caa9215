package agrivaani

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// DefaultLanguage is used whenever detection is unreliable.
const DefaultLanguage = "eng"

// detectMinLength is the minimum sample length, in runes, for statistical
// detection to be trusted.
const detectMinLength = 3

// detectWhitelist restricts detection to the supported set. Assamese is not
// covered by the detector and is reachable via override only.
var detectWhitelist = map[whatlanggo.Lang]bool{
	whatlanggo.Eng: true,
	whatlanggo.Hin: true,
	whatlanggo.Tam: true,
	whatlanggo.Tel: true,
	whatlanggo.Kan: true,
	whatlanggo.Ben: true,
	whatlanggo.Guj: true,
	whatlanggo.Mal: true,
	whatlanggo.Mar: true,
	whatlanggo.Pan: true,
	whatlanggo.Ori: true,
	whatlanggo.Urd: true,
	whatlanggo.Nep: true,
	whatlanggo.Fra: true,
	whatlanggo.Spa: true,
}

// Detect returns the language code for text. A non-empty override other than
// "auto" wins: its primary subtag is returned without running detection
// ("hi-IN" forces "hi"). Otherwise statistical detection runs against the
// supported set, falling back to DefaultLanguage when the sample is too
// short or the result unreliable. Detect never fails.
func Detect(text, override string) string {
	if override != "" && override != "auto" {
		subtag, _, _ := strings.Cut(override, "-")
		return subtag
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < detectMinLength {
		return DefaultLanguage
	}

	info := whatlanggo.DetectWithOptions(text, whatlanggo.Options{
		Whitelist: detectWhitelist,
	})
	code := whatlanggo.LangToString(info.Lang)
	if code == "" {
		return DefaultLanguage
	}
	return code
}
