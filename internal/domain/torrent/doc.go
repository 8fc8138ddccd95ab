// Package torrent implements the torrents.* RPC methods over the session's
// torrent catalog.
package torrent
