package agrivaani

import "testing"

func TestDetectOverride(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		override string
		want     string
	}{
		{"region tag stripped", "whatever text", "hi-IN", "hi"},
		{"bare code kept", "whatever text", "ta", "ta"},
		{"assamese via override", "whatever text", "as-IN", "as"},
		{"auto falls through to detection", "the quick brown fox jumps over the lazy dog", "auto", "eng"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.text, tc.override); got != tc.want {
				t.Errorf("Detect(%q, %q) = %q, want %q", tc.text, tc.override, got, tc.want)
			}
		})
	}
}

func TestDetectShortInputFallsBack(t *testing.T) {
	for _, text := range []string{"", "ab", "  a  "} {
		if got := Detect(text, ""); got != DefaultLanguage {
			t.Errorf("Detect(%q) = %q, want %q", text, got, DefaultLanguage)
		}
	}
}

func TestDetectScripts(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"What is the best time to sow wheat this season?", "eng"},
		{"இந்த பருவத்தில் நெல் விதைக்க சிறந்த நேரம் எது?", "tam"},
		{"ఈ సీజన్‌లో వరి నాటడానికి మంచి సమయం ఏది?", "tel"},
	}
	for _, tc := range cases {
		if got := Detect(tc.text, ""); got != tc.want {
			t.Errorf("Detect(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
