package agrivaani

import (
	"strings"
	"testing"
	"time"
)

func promptFixture() (PromptInput, string) {
	in := PromptInput{
		Language: "hin",
		History: []Message{
			{Role: RoleUser, Text: "मेरे पास दो एकड़ ज़मीन है"},
			{Role: RoleAssistant, Text: "बहुत अच्छा!"},
		},
		Facts: []Fact{
			{Key: "crop", Value: "wheat"},
			{Key: "soil", Value: "black"},
		},
		Location: Snapshot{
			WeatherText: "Temp: 28°C, Partly cloudy",
			Timezone:    "Asia/Kolkata",
			City:        "Nagpur",
		},
		Now: time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC),
	}
	return in, "गेहूं कब बोना चाहिए?"
}

func TestAssemblePromptContents(t *testing.T) {
	in, userText := promptFixture()
	prompt := AssemblePrompt(in, userText)

	for _, want := range []string{
		"The user is speaking hin",
		"user: मेरे पास दो एकड़ ज़मीन है\nassistant: बहुत अच्छा!",
		"crop: wheat, soil: black",
		"(Nagpur)",
		// 04:00 UTC is 09:30 in Asia/Kolkata.
		"Monday, 2 June 2025, 09:30 AM",
		"Temp: 28°C, Partly cloudy",
		"User: गेहूं कब बोना चाहिए?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if !strings.HasSuffix(prompt, "Assistant:") {
		t.Errorf("prompt should end with the assistant cue:\n%s", prompt)
	}
}

func TestAssemblePromptDeterministic(t *testing.T) {
	in, userText := promptFixture()
	first := AssemblePrompt(in, userText)
	second := AssemblePrompt(in, userText)
	if first != second {
		t.Error("identical inputs produced different prompts")
	}
}

func TestAssemblePromptDefaults(t *testing.T) {
	prompt := AssemblePrompt(PromptInput{
		Language: "eng",
		Location: Snapshot{Timezone: "UTC", City: "Unknown"},
		Now:      time.Date(2025, 6, 2, 14, 5, 0, 0, time.UTC),
	}, "hello")

	if !strings.Contains(prompt, "Not requested") {
		t.Errorf("empty weather should read as not requested:\n%s", prompt)
	}
	if !strings.Contains(prompt, "(Unknown)") {
		t.Errorf("missing default city:\n%s", prompt)
	}
	if !strings.Contains(prompt, "02:05 PM") {
		t.Errorf("time should be formatted in UTC:\n%s", prompt)
	}
}

func TestAssemblePromptBadTimezoneFallsBackToUTC(t *testing.T) {
	prompt := AssemblePrompt(PromptInput{
		Language: "eng",
		Location: Snapshot{Timezone: "Not/AZone", City: "Unknown"},
		Now:      time.Date(2025, 6, 2, 14, 5, 0, 0, time.UTC),
	}, "hello")

	if !strings.Contains(prompt, "02:05 PM") {
		t.Errorf("bad timezone should fall back to UTC:\n%s", prompt)
	}
}
