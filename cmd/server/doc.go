// Package main is the entry point of tsapd, the Tribler session service.
//
// tsapd starts a P2P session and exposes its torrents, channels and
// downloads over JSON-RPC 2.0 at http://<host>:<port>/tribler.
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for everything else
//
// Usage:
//
//	# Production mode
//	./tsapd -port 8000
//
//	# Development mode (colored logs, debug level)
//	./tsapd -dev -env-file dev.env
//
// Exit codes:
//
//	0  clean shutdown
//	1  serve loop failure
//	2  configuration or environment error
//	3  session failed to start
//	4  RPC address could not be bound
//	5  method registration failed
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
