package command

import (
	"sort"
	"strings"
	"unicode"

	"github.com/nerrad567/mukhtar/internal/sensor"
)

// Phrase tables. Order inside a table does not matter; order of rules does.
var (
	onPhrases          = []string{"turn on", "switch on", "activate", "start"}
	offPhrases         = []string{"turn off", "switch off", "deactivate", "stop"}
	temperaturePhrases = []string{"temperature", "temp", "hot", "cold"}
	lightPhrases       = []string{"light level", "brightness", "dark"}
	gasPhrases         = []string{"gas", "air quality", "toxic"}
	statusPhrases      = []string{"status", "report", "summary"}
	automationPhrases  = []string{"auto mode", "automation"}
)

type rule struct {
	phrases []string
	build   func(in *Interpreter, text string) (Intent, bool)
}

// Interpreter classifies free text against an ordered rule table.
// The first matching rule wins:
//
//	device on > device off > temperature > light > gas > status > automation
//
// It holds no mutable state and is safe for concurrent use.
type Interpreter struct {
	devices []string // longest first, for tie-breaks
	rules   []rule
}

// NewInterpreter creates an interpreter that recognises the given device names.
func NewInterpreter(devices []string) *Interpreter {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			names = append(names, d)
		}
	}
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	in := &Interpreter{devices: names}
	in.rules = []rule{
		{onPhrases, deviceRule(TurnOn)},
		{offPhrases, deviceRule(TurnOff)},
		{temperaturePhrases, sensorRule(sensor.Temperature)},
		{lightPhrases, sensorRule(sensor.Light)},
		{gasPhrases, sensorRule(sensor.Gas)},
		{statusPhrases, func(*Interpreter, string) (Intent, bool) {
			return Intent{Action: StatusReport}, true
		}},
		{automationPhrases, automationRule},
	}
	return in
}

// Interpret maps text to an Intent. Matching is case-insensitive and a
// phrase only counts when it starts on a word boundary, so "deactivate"
// never matches "activate".
func (in *Interpreter) Interpret(text string) Intent {
	norm := strings.ToLower(strings.TrimSpace(text))
	for _, r := range in.rules {
		if !containsAny(norm, r.phrases) {
			continue
		}
		if intent, ok := r.build(in, norm); ok {
			intent.Text = norm
			return intent
		}
	}
	return Intent{Action: Unknown, Text: norm}
}

// deviceRule requires a device name in addition to the phrase.
func deviceRule(action Action) func(*Interpreter, string) (Intent, bool) {
	return func(in *Interpreter, text string) (Intent, bool) {
		name, ok := in.findDevice(text)
		if !ok {
			return Intent{}, false
		}
		return Intent{Action: action, Device: name}, true
	}
}

func sensorRule(kind sensor.Kind) func(*Interpreter, string) (Intent, bool) {
	return func(*Interpreter, string) (Intent, bool) {
		return Intent{Action: QuerySensor, Sensor: kind}, true
	}
}

// automationRule disables on a literal "off" or "disable" anywhere in the
// text, so "auto mode offline" also disables. An off phrase that found no
// device ("stop automation") lands here and disables too.
func automationRule(_ *Interpreter, text string) (Intent, bool) {
	enable := !strings.Contains(text, "off") && !strings.Contains(text, "disable") &&
		!containsAny(text, offPhrases)
	return Intent{Action: SetAutomation, Enable: enable}, true
}

// findDevice returns the device whose name occurs earliest in text.
// Names are plain substrings; on equal positions the longer name wins.
func (in *Interpreter) findDevice(text string) (string, bool) {
	best, bestAt := "", -1
	for _, name := range in.devices {
		at := strings.Index(text, name)
		if at < 0 {
			continue
		}
		// devices is longest first, so a strict comparison keeps the longer name on ties.
		if bestAt < 0 || at < bestAt {
			best, bestAt = name, at
		}
	}
	return best, bestAt >= 0
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether phrase occurs in text starting on a word boundary.
func containsPhrase(text, phrase string) bool {
	for from := 0; from <= len(text)-len(phrase); {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		at := from + i
		if at == 0 || !isWordByte(text[at-1]) {
			return true
		}
		from = at + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}
