// Package session owns the engine state behind the RPC surface.
//
// A Session is started once by the composition root and stopped on every
// exit path. Domain managers never see the Session itself; they receive its
// Handle, which exposes the torrent, channel and download stores.
//
// Records are stored in Badger as JSON under prefixed keys:
//
//	torrent:<infohash>
//	channel:<id>
//	download:<infohash>
//
// The transfer engine is external to this package. It reports progress with
// DownloadStore.UpdateProgress.
package session
