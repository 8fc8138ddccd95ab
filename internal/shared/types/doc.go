// Package types provides shared data structures for the session service.
//
// These are the records the session stores persist and the domain managers
// return over RPC. Field names are snake_case on the wire.
//
// Core Types:
//   - Torrent: catalog entry identified by its infohash
//   - Channel: a named collection of torrents a user may subscribe to
//   - Download: a torrent being transferred to local disk
//   - Progress: the polling view of a Download
package types
