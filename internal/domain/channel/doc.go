// Package channel implements the channels.* RPC methods.
//
// Channels are named collections of torrents. A channel's torrent count is
// not stored; it is computed from the torrent catalog on every read.
package channel
