package oracles

import (
	"fmt"
	"strings"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// System prompts shared by every provider. Providers send them verbatim
// so scripted tests can assert on the user prompt alone.
const (
	DecideSystemPrompt = `You role-play a single character in an ensemble scene.
Decide whether the character speaks, acts, or stays silent this round.
Stay in character. Do not narrate for anyone else. Priority reflects how
urgently the character wants this turn: 0 means content to wait, 1 means
they must react right now. Silence is a valid, often correct choice.`

	TransitionSystemPrompt = `You are the narrator of an ongoing scene.
Decide whether the story should move to a new location right now. Move
only when the current setting is exhausted or the story clearly pulls
elsewhere. Most of the time the answer is no.`

	CastingSystemPrompt = `You are the narrator managing an ensemble cast.
Given who is on scene and who is waiting in the wings, decide who should
enter and who should leave. Keep changes rare and motivated by the
fiction; an empty answer is the usual one.`

	SceneSystemPrompt = `You are the narrator of a scene that has gone
quiet. Introduce one concrete new development the characters can react
to: something arrives, breaks, is overheard, or changes. Never repeat a
beat you have already used.`

	SummarySystemPrompt = `You condense role-play transcripts. Write a
compact running summary in past tense, keeping names, open threads, and
anything characters would remember.`

	JudgeSystemPrompt = `You judge objective progress in an ongoing
role-play. For each listed character, either assign a fresh personal
objective, mark their current one completed, or mark it continuing.
Separately judge whether the shared story objective has been reached.
Be strict: objectives complete only when the transcript shows it.`
)

// RenderEvents flattens events into transcript lines for a prompt.
func RenderEvents(events []timeline.Event) string {
	if len(events) == 0 {
		return "(nothing has happened yet)"
	}

	b := strings.Builder{}
	for _, event := range events {
		switch e := event.(type) {
		case timeline.MessageEvent:
			fmt.Fprintf(&b, "%s (%s): %q\n", e.Character, e.ActionDescription, e.Dialogue)
		case timeline.SceneEvent:
			fmt.Fprintf(&b, "[Scene - %s] %s\n", e.Location, e.Description)
		case timeline.ActionEvent:
			fmt.Fprintf(&b, "* %s %s\n", e.Character, e.Description)
		case timeline.CharacterEntryEvent:
			fmt.Fprintf(&b, "-> %s enters (%s)\n", e.Character, e.Circumstances)
		case timeline.CharacterExitEvent:
			fmt.Fprintf(&b, "<- %s leaves (%s)\n", e.Character, e.Circumstances)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderPersona(persona characters.Persona) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "You are %s.\n", persona.Name)
	if len(persona.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s\n", strings.Join(persona.Traits, ", "))
	}
	if persona.SpeakingStyle != "" {
		fmt.Fprintf(&b, "Speaking style: %s\n", persona.SpeakingStyle)
	}
	if persona.Background != "" {
		fmt.Fprintf(&b, "Background: %s\n", persona.Background)
	}
	if len(persona.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s\n", strings.Join(persona.Goals, "; "))
	}
	if len(persona.Knowledge) > 0 {
		fmt.Fprintf(&b, "You know: %s\n", strings.Join(persona.Knowledge, "; "))
	}
	for name, relation := range persona.Relationships {
		fmt.Fprintf(&b, "Relationship with %s: %s\n", name, relation)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSection(b *strings.Builder, heading, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "%s:\n%s\n\n", heading, body)
}

func (r DecisionRequest) Prompt() string {
	b := strings.Builder{}
	renderSection(&b, "Character", RenderPersona(r.Persona))
	renderSection(&b, "Story", r.StoryContext)
	if r.Objective != "" {
		renderSection(&b, "Your current personal objective", r.Objective)
	}
	if r.Location != "" {
		renderSection(&b, "Current location", r.Location)
	}
	if len(r.Participants) > 0 {
		renderSection(&b, "Present", strings.Join(r.Participants, ", "))
	}
	renderSection(&b, "What you have witnessed", RenderEvents(r.Memory))
	b.WriteString("Decide your move for this round.")
	return b.String()
}

func (r TransitionRequest) Prompt() string {
	b := strings.Builder{}
	renderSection(&b, "Story", r.StoryContext)
	renderSection(&b, "Current location", r.Location)
	if len(r.Participants) > 0 {
		renderSection(&b, "On scene", strings.Join(r.Participants, ", "))
	}
	renderSection(&b, "Recent events", RenderEvents(r.Recent))
	b.WriteString("Should the story transition to a new location now?")
	return b.String()
}

func (r CastingRequest) Prompt() string {
	b := strings.Builder{}
	renderSection(&b, "Story", r.StoryContext)
	renderSection(&b, "Current location", r.Location)
	renderSection(&b, "On scene", strings.Join(r.Present, ", "))
	if len(r.Absent) > 0 {
		renderSection(&b, "Off scene, available", strings.Join(r.Absent, ", "))
	}
	renderSection(&b, "Recent events", RenderEvents(r.Recent))
	b.WriteString("Decide the cast changes for the coming rounds. Only name characters from the lists above.")
	return b.String()
}

func (r SceneRequest) Prompt() string {
	b := strings.Builder{}
	renderSection(&b, "Story", r.StoryContext)
	renderSection(&b, "Current location", r.Location)
	if r.Environment.TimeOfDay != "" || r.Environment.Weather != "" {
		renderSection(&b, "Environment", strings.TrimSpace(r.Environment.TimeOfDay+" "+r.Environment.Weather))
	}
	renderSection(&b, "Recent events", RenderEvents(r.Recent))
	if len(r.AvoidDescriptions) > 0 {
		renderSection(&b, "Beats already used, do not repeat any of these", strings.Join(r.AvoidDescriptions, "\n"))
	}
	b.WriteString("The conversation has stalled. Introduce one new development.")
	return b.String()
}

func (r SummaryRequest) Prompt() string {
	b := strings.Builder{}
	renderSection(&b, "Summary so far", r.PreviousSummary)
	renderSection(&b, "New events", RenderEvents(r.Events))
	b.WriteString("Update the summary to cover the new events.")
	return b.String()
}

func (r JudgeRequest) Prompt() string {
	b := strings.Builder{}
	renderSection(&b, "Story", r.StoryContext)
	renderSection(&b, "Shared story objective", r.Objective)

	roster := strings.Builder{}
	for _, progress := range r.Characters {
		if progress.Objective == "" {
			fmt.Fprintf(&roster, "%s: no objective yet\n", progress.Name)
		} else {
			fmt.Fprintf(&roster, "%s: %s\n", progress.Name, progress.Objective)
		}
	}
	renderSection(&b, "Characters and their objectives", strings.TrimRight(roster.String(), "\n"))
	renderSection(&b, "Recent events", RenderEvents(r.Recent))
	b.WriteString("Return one verdict per listed character.")
	return b.String()
}
