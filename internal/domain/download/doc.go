// Package download implements the downloads.* RPC methods.
//
// The manager only records intent (queued, stopped, VOD) and serves the
// progress an external transfer engine reports through the session. The
// method names used by the Android client (downloadTorrent,
// getProgressInfo, deleteTorrent, startVOD) are registered as aliases.
package download
