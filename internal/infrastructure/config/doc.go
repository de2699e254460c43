// Package config handles loading and validating M.U.K.H.T.A.R configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Relay API keys, Twilio and Telegram tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Configuration is loaded once at startup. A missing file returns
// ErrConfigurationMissing and the process exits.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.System.Name)
package config
