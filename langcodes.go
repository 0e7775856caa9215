package agrivaani

// The detector emits ISO 639-3 codes ("hin"); a caller override contributes
// its primary subtag ("hi"). Both forms are canonicalized through iso3to2
// before the lookup, so every code either path can produce maps to a real
// entry. An unmapped code silently gets the English defaults.

var iso3to2 = map[string]string{
	"eng": "en",
	"hin": "hi",
	"tam": "ta",
	"tel": "te",
	"kan": "kn",
	"asm": "as",
	"ben": "bn",
	"guj": "gu",
	"mal": "ml",
	"mar": "mr",
	"pan": "pa",
	"ori": "or",
	"urd": "ur",
	"nep": "ne",
	"fra": "fr",
	"spa": "es",
}

var speechLocales = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"kn": "kn-IN",
	"as": "as-IN",
	"bn": "bn-IN",
	"gu": "gu-IN",
	"ml": "ml-IN",
	"mr": "mr-IN",
	"pa": "pa-IN",
	"or": "or-IN",
	"ur": "ur-IN",
	"ne": "ne-NP",
	"fr": "fr-FR",
	"es": "es-ES",
}

var ttsLanguages = map[string]string{
	"en": "en",
	"hi": "hi",
	"ta": "ta",
	"te": "te",
	"kn": "kn",
	"as": "as",
	"bn": "bn",
	"gu": "gu",
	"ml": "ml",
	"mr": "mr",
	"pa": "pa",
	"or": "or",
	"ur": "ur",
	"ne": "ne",
	"fr": "fr",
	"es": "es",
}

func canonicalLang(code string) string {
	if two, ok := iso3to2[code]; ok {
		return two
	}
	return code
}

// ToSpeechLocale maps a detected language code to a BCP-47 locale for
// browser speech APIs. Unmapped codes default to "en-US".
func ToSpeechLocale(code string) string {
	if locale, ok := speechLocales[canonicalLang(code)]; ok {
		return locale
	}
	return "en-US"
}

// ToTTSLanguage maps a detected language code to the TTS provider's language
// tag. Unmapped codes default to "en".
func ToTTSLanguage(code string) string {
	if lang, ok := ttsLanguages[canonicalLang(code)]; ok {
		return lang
	}
	return "en"
}
