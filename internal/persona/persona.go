package persona

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Name is the assistant's display name and message prefix.
const Name = "M.U.K.H.T.A.R"

// Prefix precedes every line the assistant speaks or prints.
const Prefix = Name + ": "

// Response categories.
const (
	CategoryGasAlert        = "gas_alert"
	CategoryTemperatureHigh = "temperature_high"
	CategoryFallback        = "fallback"
)

// DeviceCategory returns the category for a device actuation, such as "fan_on".
func DeviceCategory(device string, on bool) string {
	if on {
		return device + "_on"
	}
	return device + "_off"
}

// defaults are the built-in lines. Config may replace any category.
var defaults = map[string][]string{
	"light_on": {
		"Illumination deployed. Let there be light, as someone important once said.",
		"Photons successfully activated. Your path is now luminous.",
		"Light engaged. Banishing darkness with style.",
	},
	"light_off": {
		"Lights extinguished. Embracing the void.",
		"Photon cessation complete. Welcome to the dark side.",
		"Illumination offline. Power conservation achieved.",
	},
	"fan_on": {
		"Cooling systems engaged. Bringing the breeze to you.",
		"Fan activated. Air circulation protocols in effect.",
		"Atmospheric circulation initiated. Stay cool, Sir.",
	},
	"fan_off": {
		"Cooling systems offline. Natural air circulation resumed.",
		"Fan deactivated. The wind stops at my command.",
		"Air circulation protocols suspended.",
	},
	CategoryGasAlert: {
		"ALERT - Atmospheric contamination detected! Initiating anti-doom protocol.",
		"Gas levels elevated. Suggesting immediate evacuation or a very good explanation.",
		"Toxic atmosphere detected. This is not a drill, Sir!",
	},
	CategoryTemperatureHigh: {
		"Temperature exceeds comfort parameters. Perhaps an arctic vacation?",
		"It's getting hot in here. Activating cooling countermeasures.",
		"Current temperature suggests we're either in a sauna or on Mercury.",
	},
	CategoryFallback: {
		"I'm afraid I didn't catch that. Could you rephrase, or speak louder?",
		"Command not recognized. Perhaps you meant something else?",
		"My algorithms suggest that command doesn't exist in my database.",
		"I'm intelligent, but not psychic. Please clarify your request.",
	},
}

// Picker selects one line from a non-empty pool.
type Picker interface {
	Pick(options []string) string
}

// RandomPicker picks uniformly at random.
type RandomPicker struct{}

// Pick returns a random element of options.
func (RandomPicker) Pick(options []string) string {
	return options[rand.IntN(len(options))]
}

// SequencePicker cycles through each pool in order. It is deterministic
// and intended for tests and reproducible transcripts.
type SequencePicker struct {
	mu sync.Mutex
	n  int
}

// Pick returns options[n % len(options)] and advances n.
func (p *SequencePicker) Pick(options []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := options[p.n%len(options)]
	p.n++
	return s
}

// FirstPicker always returns the first option.
type FirstPicker struct{}

// Pick returns options[0].
func (FirstPicker) Pick(options []string) string { return options[0] }

// Book holds the response tables.
type Book struct {
	tables map[string][]string
	picker Picker
}

// NewBook creates a Book from the built-in tables, replaced per category by
// overrides. A leading "M.U.K.H.T.A.R: " in override lines is dropped.
// A nil picker selects at random.
func NewBook(overrides map[string][]string, picker Picker) *Book {
	if picker == nil {
		picker = RandomPicker{}
	}
	tables := make(map[string][]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		tables[k] = v
	}
	for k, lines := range overrides {
		cleaned := make([]string, 0, len(lines))
		for _, l := range lines {
			l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), Prefix))
			if l != "" {
				cleaned = append(cleaned, l)
			}
		}
		if len(cleaned) > 0 {
			tables[strings.ToLower(k)] = cleaned
		}
	}
	return &Book{tables: tables, picker: picker}
}

// Line picks a line from category. ok is false when the category is empty.
func (b *Book) Line(category string) (string, bool) {
	pool := b.tables[category]
	if len(pool) == 0 {
		return "", false
	}
	return b.picker.Pick(pool), true
}

// LineOr picks a line from category, or returns fallback.
func (b *Book) LineOr(category, fallback string) string {
	if s, ok := b.Line(category); ok {
		return s
	}
	return fallback
}

// Fallback picks a reply for unrecognised input.
func (b *Book) Fallback() string {
	return b.LineOr(CategoryFallback, "Command not recognized.")
}
