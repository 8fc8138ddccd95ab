// Package server is the composition root of the service.
//
// New runs the fixed startup sequence:
//
//  1. initialize the process environment
//  2. start the session
//  3. bind the RPC server (not yet serving)
//  4. register the built-in methods and construct the managers, which
//     register theirs
//
// Run then blocks in the serve loop until its context is cancelled. Close
// releases the RPC server and the session on every exit path, including a
// failed New.
package server
