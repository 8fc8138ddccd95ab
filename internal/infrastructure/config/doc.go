// Package config provides configuration management for the session service.
//
// Configuration is read from environment variables with envconfig and checked
// against validator struct tags. A .env file, when present, is applied to the
// process environment before Load runs (see package environment).
//
// Variables:
//   - RPC_HOST, RPC_PORT, RPC_PATH: RPC endpoint (default 0.0.0.0:8000/tribler)
//   - RPC_SERIAL: dispatch one call at a time (default true)
//   - TSAP_*: process environment paths and markers
//   - SESSION_*: session store tuning
//   - LOG_LEVEL, LOG_DEV: logging
//   - RATE_LIMIT_*: per-client rate limiting
//   - METRICS_ENABLED, METRICS_PATH: Prometheus exposition
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	addr := cfg.RPC.Addr()
package config
