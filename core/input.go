package orchestration

import "strings"

// ExtractBracketedAction splits player input of the form
// "dialogue [action]" into its parts. Only a trailing bracket counts;
// brackets mid-sentence stay part of the dialogue. The action defaults
// to "speaks" when no bracket is present.
func ExtractBracketedAction(raw string) (dialogue, action string) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasSuffix(trimmed, "]") {
		if open := strings.LastIndex(trimmed, "["); open >= 0 {
			action = strings.TrimSpace(trimmed[open+1 : len(trimmed)-1])
			dialogue = strings.TrimSpace(trimmed[:open])
		}
	}

	if action == "" {
		return trimmed, "speaks"
	}
	if dialogue == "" {
		// Pure action input still needs a line for the message event;
		// keep the action text as the spoken beat.
		dialogue = "..."
	}
	return dialogue, action
}
