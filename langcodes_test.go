package agrivaani

import "testing"

func TestSpeechLocaleCoversSupportedSet(t *testing.T) {
	cases := []struct {
		iso3, iso2, locale string
	}{
		{"eng", "en", "en-US"},
		{"hin", "hi", "hi-IN"},
		{"tam", "ta", "ta-IN"},
		{"tel", "te", "te-IN"},
		{"kan", "kn", "kn-IN"},
		{"asm", "as", "as-IN"},
		{"ben", "bn", "bn-IN"},
		{"guj", "gu", "gu-IN"},
		{"mal", "ml", "ml-IN"},
		{"mar", "mr", "mr-IN"},
		{"pan", "pa", "pa-IN"},
		{"ori", "or", "or-IN"},
		{"urd", "ur", "ur-IN"},
		{"nep", "ne", "ne-NP"},
		{"fra", "fr", "fr-FR"},
		{"spa", "es", "es-ES"},
	}
	for _, tc := range cases {
		if got := ToSpeechLocale(tc.iso3); got != tc.locale {
			t.Errorf("ToSpeechLocale(%q) = %q, want %q", tc.iso3, got, tc.locale)
		}
		if got := ToSpeechLocale(tc.iso2); got != tc.locale {
			t.Errorf("ToSpeechLocale(%q) = %q, want %q", tc.iso2, got, tc.locale)
		}
		if got := ToTTSLanguage(tc.iso3); got != tc.iso2 {
			t.Errorf("ToTTSLanguage(%q) = %q, want %q", tc.iso3, got, tc.iso2)
		}
		if got := ToTTSLanguage(tc.iso2); got != tc.iso2 {
			t.Errorf("ToTTSLanguage(%q) = %q, want %q", tc.iso2, got, tc.iso2)
		}
	}
}

func TestUnsupportedCodesUseDefaults(t *testing.T) {
	for _, code := range []string{"", "de", "jpn", "zzz", "und"} {
		if got := ToSpeechLocale(code); got != "en-US" {
			t.Errorf("ToSpeechLocale(%q) = %q, want en-US", code, got)
		}
		if got := ToTTSLanguage(code); got != "en" {
			t.Errorf("ToTTSLanguage(%q) = %q, want en", code, got)
		}
	}
}
