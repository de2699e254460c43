// Package logging provides structured logging for the M.U.K.H.T.A.R controller.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("automation").Info("tick complete", "mode", "auto")
//
// Never log relay API keys, Twilio credentials or Telegram tokens.
package logging
