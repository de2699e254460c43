package voice

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nerrad567/mukhtar/internal/persona"
)

// Speaker reads lines aloud.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// runner executes a command; replaced in tests.
type runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // name comes from operator configuration
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// EspeakSpeaker speaks through espeak (or any command taking the text as
// its last argument).
type EspeakSpeaker struct {
	command string
	args    []string
	run     runner
}

// NewEspeakSpeaker creates a speaker running command with args.
func NewEspeakSpeaker(command string, args []string) *EspeakSpeaker {
	if command == "" {
		command = "espeak"
	}
	return &EspeakSpeaker{command: command, args: args, run: execRunner}
}

// Say speaks text without the assistant name prefix.
func (s *EspeakSpeaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(strings.ReplaceAll(text, persona.Prefix, ""))
	if text == "" {
		return nil
	}
	args := append(append([]string{}, s.args...), text)
	return s.run(ctx, s.command, args...)
}
