// Package utils holds small input helpers shared by the domain managers:
// field validation for values that arrive over RPC and keyword matching for
// local search.
package utils
