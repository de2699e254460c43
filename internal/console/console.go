package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/mukhtar/internal/assistant"
	"github.com/nerrad567/mukhtar/internal/command"
	"github.com/nerrad567/mukhtar/internal/persona"
	"github.com/nerrad567/mukhtar/internal/voice"
)

// Logger defines the logging interface used by the Console.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler classifies and executes free text. The console classifies first
// so it can announce a status analysis before the sensors are read.
type Handler interface {
	Interpret(text string) command.Intent
	Execute(ctx context.Context, intent command.Intent) assistant.Response
}

// Listener captures one spoken command.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker reads lines aloud.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Recorder is told about every command handled at the console.
type Recorder interface {
	CommandHandled(ctx context.Context, source, text, action string, ok bool)
}

// HelpLine lists the console commands.
const HelpLine = "Commands: status, temp, light on/off, fan on/off, voice, auto on/off, quit"

const (
	msgNeuralOnline  = "Neural networks online. Personality matrix loaded."
	msgOperational   = "All systems operational. Ready to serve, Sir."
	msgInteractive   = "Interactive mode activated. How may I assist you today?"
	msgShutdown      = "Shutting down. Until next time, Sir."
	msgInterrupted   = "Interrupt detected. Powering down gracefully."
	msgAnalysis      = "Initiating comprehensive system analysis..."
	msgListening     = "Voice recognition online. Listening for commands..."
	msgVoiceDisabled = "Voice recognition is not configured."
	msgAudioUnclear  = "Audio unclear. Please speak more distinctly."
	msgVoiceReceived = "Voice command received - '%s'"
	msgUnexpectedErr = "Unexpected error: %v"

	menuRule = "----------------------------------------"
)

// Command sources passed to the Recorder.
const (
	SourceConsole = "console"
	SourceVoice   = "voice"
)

const sayTimeout = 30 * time.Second

// Console is the interactive command loop. It also implements
// automation.Announcer so that loop output shares the same transcript.
//
// Thread Safety: Announce may be called from any goroutine; Run must be
// called once.
type Console struct {
	in       io.Reader
	out      io.Writer
	handler  Handler
	listener Listener
	speaker  Speaker
	recorder Recorder
	logger   Logger
	now      func() time.Time

	mu sync.Mutex // serialises writes to out
}

// New creates a console reading commands from in and writing to out.
func New(in io.Reader, out io.Writer, handler Handler) *Console {
	return &Console{
		in:      in,
		out:     out,
		handler: handler,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the console.
func (c *Console) SetLogger(logger Logger) {
	c.logger = logger
}

// SetListener enables the "voice" command.
func (c *Console) SetListener(l Listener) {
	c.listener = l
}

// SetSpeaker makes every announced line spoken as well as printed.
func (c *Console) SetSpeaker(s Speaker) {
	c.speaker = s
}

// SetRecorder sets where handled commands are recorded.
func (c *Console) SetRecorder(r Recorder) {
	c.recorder = r
}

// Greet prints the startup lines.
func (c *Console) Greet() {
	c.Announce(msgNeuralOnline)
	c.Announce(msgOperational)
}

// Announce prints a timestamped line and speaks it when a speaker is set.
func (c *Console) Announce(message string) {
	line := persona.Prefix + strings.TrimPrefix(message, persona.Prefix)

	c.mu.Lock()
	fmt.Fprintf(c.out, "[%s] %s\n", c.now().Format("15:04:05"), line)
	c.mu.Unlock()

	c.logger.Info(message)

	if c.speaker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sayTimeout)
	defer cancel()
	if err := c.speaker.Say(ctx, line); err != nil {
		c.logger.Warn("speech failed", "error", err)
	}
}

// Interrupted announces a shutdown caused by a signal.
func (c *Console) Interrupted() {
	c.Announce(msgInterrupted)
}

// Run reads commands until quit or end of input. A cancelled ctx is
// noticed between lines only; a pending read is not interrupted.
func (c *Console) Run(ctx context.Context) error {
	c.Announce(msgInteractive)
	scanner := bufio.NewScanner(c.in)

	for {
		if ctx.Err() != nil {
			return nil
		}
		c.printMenu()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading console input: %w", err)
			}
			c.Announce(msgShutdown)
			return nil
		}
		if !c.dispatch(ctx, strings.TrimSpace(scanner.Text())) {
			return nil
		}
	}
}

func (c *Console) printMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n%s\n%s Command Interface\n%s\n%s\n\n>>> ", menuRule, persona.Name, menuRule, HelpLine)
}

// dispatch handles one input line and reports whether to continue.
func (c *Console) dispatch(ctx context.Context, input string) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("console command panicked", "input", input, "panic", r)
			c.Announce(fmt.Sprintf(msgUnexpectedErr, r))
			cont = true
		}
	}()

	switch strings.ToLower(input) {
	case "":
		return true
	case "quit", "exit", "bye":
		c.Announce(msgShutdown)
		return false
	case "voice":
		c.listen(ctx)
		return true
	default:
		c.execute(ctx, SourceConsole, input)
		return true
	}
}

func (c *Console) listen(ctx context.Context) {
	if c.listener == nil {
		c.Announce(msgVoiceDisabled)
		return
	}
	c.Announce(msgListening)

	text, err := c.listener.Listen(ctx)
	switch {
	case errors.Is(err, voice.ErrDisabled):
		c.Announce(msgVoiceDisabled)
		return
	case err != nil:
		c.logger.Warn("voice recognition failed", "error", err)
		c.Announce(msgAudioUnclear)
		return
	}

	c.Announce(fmt.Sprintf(msgVoiceReceived, text))
	c.execute(ctx, SourceVoice, text)
}

func (c *Console) execute(ctx context.Context, source, text string) {
	intent := c.handler.Interpret(text)
	if intent.Action == command.StatusReport {
		c.Announce(msgAnalysis)
	}
	resp := c.handler.Execute(ctx, intent)

	if resp.Intent.Action == command.StatusReport {
		if resp.Report != nil {
			c.mu.Lock()
			fmt.Fprintf(c.out, "\n%s\n", resp.Report.Format())
			c.mu.Unlock()
		}
	}
	for _, msg := range resp.Messages {
		c.Announce(msg)
	}

	if c.recorder != nil {
		c.recorder.CommandHandled(ctx, source, text, resp.Intent.Action.String(), resp.OK())
	}
}
