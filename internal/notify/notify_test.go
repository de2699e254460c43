package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// mockSender records bodies and optionally fails.
type mockSender struct {
	mu     sync.Mutex
	name   string
	bodies []string
	err    error
}

func (m *mockSender) Name() string { return m.name }

func (m *mockSender) Send(_ context.Context, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return m.err
}

func TestFormatAlert(t *testing.T) {
	got := FormatAlert("CRITICAL: Dangerous gas levels detected (520)! Evacuate immediately!")
	want := "🚨 M.U.K.H.T.A.R ALERT: CRITICAL: Dangerous gas levels detected (520)! Evacuate immediately!"
	if got != want {
		t.Errorf("FormatAlert() = %q, want %q", got, want)
	}
}

func TestChannel_Notify(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantErr   bool
		wantCalls int
	}{
		{name: "single success", errs: []error{nil}, wantCalls: 1},
		{name: "one of two fails", errs: []error{errors.New("boom"), nil}, wantCalls: 2},
		{name: "all fail", errs: []error{errors.New("a"), errors.New("b")}, wantErr: true, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var senders []Sender
			var mocks []*mockSender
			for i, e := range tt.errs {
				m := &mockSender{name: string(rune('a' + i)), err: e}
				mocks = append(mocks, m)
				senders = append(senders, m)
			}
			ch := NewChannel(senders...)

			err := ch.Notify(context.Background(), "hello")
			if tt.wantErr != (err != nil) {
				t.Fatalf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNotificationFailed) {
				t.Errorf("error = %v, want ErrNotificationFailed", err)
			}

			calls := 0
			for _, m := range mocks {
				for _, b := range m.bodies {
					calls++
					if b != AlertPrefix+"hello" {
						t.Errorf("body = %q", b)
					}
				}
			}
			if calls != tt.wantCalls {
				t.Errorf("sends = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestChannel_NoSenders(t *testing.T) {
	ch := NewChannel(nil)
	err := ch.Notify(context.Background(), "hello")
	if !errors.Is(err, ErrNotificationFailed) {
		t.Errorf("Notify() error = %v, want ErrNotificationFailed", err)
	}
	if len(ch.Senders()) != 0 {
		t.Errorf("Senders() = %v", ch.Senders())
	}
}

func TestChannel_CancelledContext(t *testing.T) {
	m := &mockSender{name: "sms"}
	ch := NewChannel(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ch.Notify(ctx, "hello"); !errors.Is(err, ErrNotificationFailed) {
		t.Errorf("Notify() error = %v", err)
	}
	if len(m.bodies) != 0 {
		t.Error("sender called with cancelled context")
	}
}

// mockTwilio implements messageCreator.
type mockTwilio struct {
	params []*twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (m *mockTwilio) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	m.params = append(m.params, p)
	return m.resp, m.err
}

func TestTwilioSender_Send(t *testing.T) {
	api := &mockTwilio{resp: &twilioApi.ApiV2010Message{}}
	s := &TwilioSender{api: api, from: "+15550001", to: "+15550002"}

	if err := s.Send(context.Background(), "body"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(api.params) != 1 {
		t.Fatalf("CreateMessage calls = %d, want 1", len(api.params))
	}
	p := api.params[0]
	if *p.To != "+15550002" || *p.From != "+15550001" || *p.Body != "body" {
		t.Errorf("params to=%q from=%q body=%q", *p.To, *p.From, *p.Body)
	}
}

func TestTwilioSender_Errors(t *testing.T) {
	api := &mockTwilio{err: errors.New("401 unauthorized")}
	s := &TwilioSender{api: api, from: "a", to: "b"}
	if err := s.Send(context.Background(), "x"); err == nil {
		t.Error("Send() expected transport error")
	}

	msg := "unreachable destination"
	api = &mockTwilio{resp: &twilioApi.ApiV2010Message{ErrorMessage: &msg}}
	s = &TwilioSender{api: api, from: "a", to: "b"}
	if err := s.Send(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), msg) {
		t.Errorf("Send() error = %v, want %q", err, msg)
	}
}

// mockModem implements gsmModem.
type mockModem struct {
	sent   [][2]string
	closed bool
	err    error
}

func (m *mockModem) SendMessage(tel, body string) error {
	m.sent = append(m.sent, [2]string{tel, body})
	return m.err
}

func (m *mockModem) Close() error {
	m.closed = true
	return nil
}

func TestModemSender(t *testing.T) {
	mm := &mockModem{}
	orig := openModem
	t.Cleanup(func() { openModem = orig })

	var gotDevice string
	var gotBaud int
	openModem = func(device string, baud int) (gsmModem, error) {
		gotDevice, gotBaud = device, baud
		return mm, nil
	}

	s, err := OpenModemSender("/dev/does-not-exist-*", 115200, "+4470000")
	if err != nil {
		t.Fatalf("OpenModemSender() error = %v", err)
	}
	if gotDevice != "/dev/does-not-exist-*" || gotBaud != 115200 {
		t.Errorf("opened %q at %d", gotDevice, gotBaud)
	}

	if err := s.Send(context.Background(), "alert"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(mm.sent) != 1 || mm.sent[0] != [2]string{"+4470000", "alert"} {
		t.Errorf("sent = %v", mm.sent)
	}

	mm.err = errors.New("CMS ERROR")
	if err := s.Send(context.Background(), "alert"); err == nil {
		t.Error("Send() expected modem error")
	}

	_ = s.Close()
	if !mm.closed {
		t.Error("Close() did not close modem")
	}
}

func TestOpenModemSender_Error(t *testing.T) {
	orig := openModem
	t.Cleanup(func() { openModem = orig })
	openModem = func(string, int) (gsmModem, error) { return nil, errors.New("no such device") }

	if _, err := OpenModemSender("/dev/ttyUSB9", 9600, "1"); err == nil {
		t.Error("OpenModemSender() expected error")
	}
}

// mockBot implements botAPI.
type mockBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, m.err
}

func TestTelegramSender(t *testing.T) {
	bot := &mockBot{}
	s := &TelegramSender{bot: bot, chatID: 42}

	if err := s.Send(context.Background(), "alert body"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(bot.sent))
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sent[0])
	}
	if msg.ChatID != 42 || msg.Text != "alert body" {
		t.Errorf("message chat=%d text=%q", msg.ChatID, msg.Text)
	}

	bot.err = errors.New("chat not found")
	if err := s.Send(context.Background(), "x"); err == nil {
		t.Error("Send() expected error")
	}
}
