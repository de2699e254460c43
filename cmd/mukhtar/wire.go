package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/mukhtar/internal/bridge"
	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
	"github.com/nerrad567/mukhtar/internal/infrastructure/database"
	"github.com/nerrad567/mukhtar/internal/infrastructure/influxdb"
	"github.com/nerrad567/mukhtar/internal/infrastructure/logging"
	"github.com/nerrad567/mukhtar/internal/infrastructure/mqtt"
	"github.com/nerrad567/mukhtar/internal/journal"
	"github.com/nerrad567/mukhtar/internal/notify"
	"github.com/nerrad567/mukhtar/migrations"
)

// buildNotifier creates the alert channel from the configured senders.
// A sender that cannot be set up is logged and skipped; the returned
// function releases any serial device that was opened.
func buildNotifier(cfg config.NotifyConfig, log *logging.Logger) (*notify.Channel, func()) {
	var senders []notify.Sender
	closeFn := func() {}

	switch cfg.SMS.Provider {
	case config.SMSProviderTwilio:
		senders = append(senders, notify.NewTwilioSender(
			cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.From, cfg.SMS.To))
	case config.SMSProviderModem:
		modem, err := notify.OpenModemSender(cfg.SMS.Modem.Device, cfg.SMS.Modem.Baud, cfg.SMS.To)
		if err != nil {
			log.Warn("sms modem unavailable", "device", cfg.SMS.Modem.Device, "error", err)
			break
		}
		senders = append(senders, modem)
		closeFn = func() {
			if err := modem.Close(); err != nil {
				log.Error("error closing sms modem", "error", err)
			}
		}
	}

	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Warn("telegram unavailable", "error", err)
		} else {
			senders = append(senders, tg)
		}
	}

	channel := notify.NewChannel(senders...)
	channel.SetLogger(log.Component("notify"))
	if len(senders) == 0 {
		log.Warn("no notification channels configured; critical alerts will only be logged")
	} else {
		log.Info("notification channels ready", "channels", channel.Senders())
	}
	return channel, closeFn
}

// openJournal opens the database, applies migrations and returns the journal.
func openJournal(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, *journal.Journal, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // best effort on error path
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("journal ready", "path", cfg.Path)

	j := journal.New(db.DB)
	j.SetLogger(log.Component("journal"))
	return db, j, nil
}

// connectInflux connects the telemetry writer.
func connectInflux(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client, nil
}

// startBridge connects to the broker and starts the command subscription.
// events may be nil.
func startBridge(ctx context.Context, cfg config.MQTTConfig, handler bridge.Handler, events *journal.Journal, log *logging.Logger) (*mqtt.Client, *bridge.Bridge, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	br := bridge.New(client, handler)
	br.SetLogger(log.Component("bridge"))
	if events != nil {
		br.SetRecorder(events)
	}
	if err := br.Start(ctx); err != nil {
		client.Close() //nolint:errcheck // best effort on error path
		return nil, nil, fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("MQTT bridge started",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"prefix", client.Topics().Prefix(),
	)
	return client, br, nil
}
