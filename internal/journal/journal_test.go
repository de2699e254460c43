package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
	"github.com/nerrad567/mukhtar/internal/infrastructure/database"
	"github.com/nerrad567/mukhtar/migrations"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "journal.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return New(db.DB)
}

func TestRecordAndList(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	j.DeviceChanged(ctx, device.Change{Device: "fan", On: true, At: base})
	j.DeviceChanged(ctx, device.Change{Device: "fan", On: false, At: base.Add(time.Minute)})
	j.DeviceChanged(ctx, device.Change{Device: "light", On: true, At: base.Add(2 * time.Minute)})

	res, err := j.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 3 || len(res.Entries) != 3 || res.Limit != defaultLimit {
		t.Fatalf("List() = %+v", res)
	}
	first := res.Entries[0]
	if first.Subject != "light" || first.Kind != KindDevice || first.Details["state"] != "on" {
		t.Errorf("newest entry = %+v", first)
	}
	if !first.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", first.CreatedAt)
	}
	if first.ID == "" || first.Source != "controller" {
		t.Errorf("defaults not applied: %+v", first)
	}

	fan, err := j.List(ctx, Filter{Subject: "fan", Limit: 1})
	if err != nil {
		t.Fatalf("List(fan) error = %v", err)
	}
	if fan.Total != 2 || len(fan.Entries) != 1 || fan.Entries[0].Details["state"] != "off" {
		t.Errorf("List(fan) = %+v", fan)
	}
}

func TestRecord_Invalid(t *testing.T) {
	j := newTestJournal(t)
	err := j.Record(context.Background(), &Entry{Kind: KindDevice})
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Record() error = %v, want ErrInvalidEntry", err)
	}
}

func TestList_LimitClamped(t *testing.T) {
	j := newTestJournal(t)
	res, err := j.List(context.Background(), Filter{Limit: 10000, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != maxLimit || res.Offset != 0 {
		t.Errorf("Limit/Offset = %d/%d", res.Limit, res.Offset)
	}
	if res.Entries == nil {
		t.Error("Entries = nil, want empty slice")
	}
}

func TestModeAndCommand(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	j.ModeChanged(ctx, false)
	j.CommandHandled(ctx, "mqtt", "fan on", "turn_on", true)

	modes, err := j.List(ctx, Filter{Kind: KindMode})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if modes.Total != 1 || modes.Entries[0].Subject != "manual" {
		t.Errorf("mode entries = %+v", modes.Entries)
	}

	cmds, err := j.List(ctx, Filter{Kind: KindCommand})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if cmds.Total != 1 || cmds.Entries[0].Source != "mqtt" || cmds.Entries[0].Details["ok"] != true {
		t.Errorf("command entries = %+v", cmds.Entries)
	}
}

type stubNotifier struct{ err error }

func (s stubNotifier) Notify(context.Context, string) error { return s.err }

func TestAlertRecorder(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.RecordAlerts(stubNotifier{}).Notify(ctx, "gas 520"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	sendErr := errors.New("all channels failed")
	if err := j.RecordAlerts(stubNotifier{err: sendErr}).Notify(ctx, "gas 610"); !errors.Is(err, sendErr) {
		t.Fatalf("Notify() error = %v, want wrapped notifier error", err)
	}

	res, err := j.List(ctx, Filter{Kind: KindAlert})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("alert entries = %d, want 2", res.Total)
	}
	var delivered, failed int
	for _, e := range res.Entries {
		if e.Details["delivered"] == true {
			delivered++
		} else {
			failed++
			if e.Details["error"] != sendErr.Error() {
				t.Errorf("error detail = %v", e.Details["error"])
			}
		}
	}
	if delivered != 1 || failed != 1 {
		t.Errorf("delivered/failed = %d/%d", delivered, failed)
	}
}
