package agrivaani

import (
	"fmt"
	"strings"
	"time"
)

// PromptInput carries everything the assembler needs for one turn.
type PromptInput struct {
	Language string
	History  []Message // oldest first
	Facts    []Fact
	Location Snapshot
	Now      time.Time
}

// AssemblePrompt builds the generation prompt for a turn. Output is fully
// determined by its inputs so that identical turns produce identical
// prompts.
func AssemblePrompt(in PromptInput, userText string) string {
	lines := make([]string, 0, len(in.History))
	for _, m := range in.History {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}
	history := strings.Join(lines, "\n")

	facts := make([]string, 0, len(in.Facts))
	for _, f := range in.Facts {
		facts = append(facts, fmt.Sprintf("%s: %s", f.Key, f.Value))
	}
	memory := strings.Join(facts, ", ")

	loc, err := time.LoadLocation(in.Location.Timezone)
	if err != nil || in.Location.Timezone == "" {
		loc = time.UTC
	}
	local := in.Now.In(loc)
	localDate := local.Format("Monday, 2 January 2006")
	localTime := local.Format("03:04 PM")

	weather := in.Location.WeatherText
	if weather == "" {
		weather = "Not requested"
	}

	system := fmt.Sprintf(`You are a helpful farmer assistant. The user is speaking %s. You MUST reply in the same language.
Current context:
- User's previous messages: %s
- Remembered facts: %s
- Current Date/Time in user's location (%s): %s, %s.
- Current Weather: %s

Important: Respond ONLY with your answer in %s language. Do not include any system prompts or internal thoughts in your response.`,
		in.Language, history, memory, in.Location.City, localDate, localTime, weather, in.Language)

	return fmt.Sprintf("%s\n\nUser: %s\n\nAssistant:", system, userText)
}
