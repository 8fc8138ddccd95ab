// Package environment prepares the process environment before the session
// starts.
//
// Init resolves the state, download and package-cache directories (under
// TSAP_PRIVATE_DIR when set, otherwise ~/.tsap), creates them, checks they
// are writable, and exports the resolved paths back into the process
// environment. The result is an immutable Environment shared by the rest of
// the service.
package environment
