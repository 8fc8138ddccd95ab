// Package rpc implements the JSON-RPC 2.0 endpoint of the service.
//
// A Server is bound with Listen, populated through Register and then run
// with Serve. Method names are unique; a duplicate registration fails with
// ErrDuplicateMethod and any registration after Serve started fails with
// ErrRegistrationClosed.
//
// Wire format (HTTP POST to the configured path, positional params only):
//
//	{"jsonrpc":"2.0","id":1,"method":"info","params":["hello"]}
//	{"jsonrpc":"2.0","id":1,"result":null}
//
// Every well-formed exchange answers HTTP 200; failures are carried in the
// error object. Handlers pick the code by returning *Error, or by returning
// a sentinel listed in Options.ErrorCodes.
package rpc
