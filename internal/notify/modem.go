package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/barnybug/gogsmmodem"
	"github.com/tarm/serial"
)

// gsmModem is the slice of gogsmmodem.Modem used here.
type gsmModem interface {
	SendMessage(telephone, body string) error
	Close() error
}

// openModem is replaced in tests.
var openModem = func(device string, baud int) (gsmModem, error) {
	conf := serial.Config{Name: device, Baud: baud}
	return gogsmmodem.Open(&conf, false)
}

// ModemSender sends SMS through a GSM modem or USB dongle.
// AT commands are not interleaved: sends are serialised.
type ModemSender struct {
	mu    sync.Mutex
	modem gsmModem
	to    string
}

// OpenModemSender opens the serial device. device may be a glob such as
// /dev/ttyUSB*; the first match is used.
func OpenModemSender(device string, baud int, to string) (*ModemSender, error) {
	if matches, _ := filepath.Glob(device); len(matches) > 0 {
		device = matches[0]
	}
	m, err := openModem(device, baud)
	if err != nil {
		return nil, fmt.Errorf("opening modem %s: %w", device, err)
	}
	return &ModemSender{modem: m, to: to}, nil
}

// Name returns "modem".
func (s *ModemSender) Name() string { return "modem" }

// Send transmits body to the configured number.
func (s *ModemSender) Send(ctx context.Context, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.modem.SendMessage(s.to, body); err != nil {
		return fmt.Errorf("modem send: %w", err)
	}
	return nil
}

// Close releases the serial port.
func (s *ModemSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modem.Close()
}
