// Package config handles loading and validating campus-core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with CAMPUS_* environment variables
//   - Validation of required fields and the token signing secret
//
// Security Considerations:
//   - The JWT secret and broker credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Security.JWT.AccessTokenTTL)
package config
