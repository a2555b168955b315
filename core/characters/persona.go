package characters

import "slices"

// GenerationParams are the sampling knobs a character's oracle calls run
// with. Zero values mean "infer from traits".
type GenerationParams struct {
	Temperature      float64 `json:"temperature,omitempty"`
	TopP             float64 `json:"top_p,omitempty"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
}

type Persona struct {
	Name          string            `json:"name"`
	Traits        []string          `json:"traits,omitempty"`
	Relationships map[string]string `json:"relationships,omitempty"`
	SpeakingStyle string            `json:"speaking_style,omitempty"`
	Background    string            `json:"background,omitempty"`
	Goals         []string          `json:"goals,omitempty"`
	Knowledge     []string          `json:"knowledge,omitempty"`

	GenerationParams GenerationParams `json:"generation_params,omitempty"`
}

const (
	defaultTemperature      = 0.75
	defaultTopP             = 0.9
	defaultFrequencyPenalty = 0.2
)

// InferGenerationParams fills any unset sampling knob from the persona's
// traits. Logical characters sample tighter, impulsive ones looser, quiet
// ones repeat less freely and humorous ones are pushed away from stock
// phrasings.
func (p Persona) InferGenerationParams() GenerationParams {
	params := p.GenerationParams

	temperature := defaultTemperature
	topP := defaultTopP
	frequencyPenalty := defaultFrequencyPenalty

	if p.hasTrait("logical", "analytical", "calm") {
		temperature = 0.6
		topP = 0.85
	}
	if p.hasTrait("impulsive", "chaotic", "dramatic") {
		temperature = 0.85
		topP = 0.92
		frequencyPenalty = 0.3
	}
	if p.hasTrait("quiet", "reserved", "stoic") {
		temperature = 0.65
		frequencyPenalty = 0.1
	}
	if p.hasTrait("humorous", "witty", "playful") {
		temperature = 0.8
		frequencyPenalty = 0.4
	}

	if params.Temperature == 0 {
		params.Temperature = temperature
	}
	if params.TopP == 0 {
		params.TopP = topP
	}
	if params.FrequencyPenalty == 0 {
		params.FrequencyPenalty = frequencyPenalty
	}

	return params
}

func (p Persona) hasTrait(names ...string) bool {
	for _, name := range names {
		if slices.Contains(p.Traits, name) {
			return true
		}
	}
	return false
}
