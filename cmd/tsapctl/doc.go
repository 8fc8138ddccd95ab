// Package main is tsapctl, a command-line client for tsapd.
//
// Usage:
//
//	tsapctl info "hello"
//	tsapctl system.list_methods
//	tsapctl downloads.add 0123456789abcdef0123456789abcdef01234567 ubuntu.iso
//	tsapctl downloads.remove 0123456789abcdef0123456789abcdef01234567 true
//	tsapctl downloads.add 0123456789abcdef0123456789abcdef01234567 s:1984
//	tsapctl -raw channels.create 2024 "a channel named by a number"
//
// Arguments are sent as booleans, numbers or null when they parse as such;
// prefix an argument with s: to send it as a string. Infohashes are always
// strings.
//
// The endpoint defaults to TSAPCTL_URL or http://127.0.0.1:8000/tribler.
// tsapctl exits with 3 when the server answered with an RPC error and 1 on
// any other failure.
package main
