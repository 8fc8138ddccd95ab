package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
)

// Key prefixes of the persisted records
const (
	torrentPrefix  = "torrent:"
	channelPrefix  = "channel:"
	downloadPrefix = "download:"
)

// Handle is the capability domain managers receive. It is shared between
// managers and stays valid until the owning Session stops.
type Handle struct {
	db          *badger.DB
	validate    *validator.Validate
	downloadDir string
	startedAt   time.Time

	mu      sync.RWMutex
	stopped bool
}

// Torrents returns the torrent catalog store
func (h *Handle) Torrents() *TorrentStore { return &TorrentStore{h: h} }

// Channels returns the channel store
func (h *Handle) Channels() *ChannelStore { return &ChannelStore{h: h} }

// Downloads returns the download store
func (h *Handle) Downloads() *DownloadStore { return &DownloadStore{h: h} }

// DownloadDir returns the directory downloads are written to
func (h *Handle) DownloadDir() string { return h.downloadDir }

// StartedAt returns the session start time
func (h *Handle) StartedAt() time.Time { return h.startedAt }

func (h *Handle) stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	return h.db.Close()
}

// view runs fn in a read-only transaction while holding the stop guard
func (h *Handle) view(fn func(txn *badger.Txn) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return ErrStopped
	}
	return h.db.View(fn)
}

// update runs fn in a read-write transaction while holding the stop guard
func (h *Handle) update(fn func(txn *badger.Txn) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return ErrStopped
	}
	return h.db.Update(fn)
}

func (h *Handle) check(v any) error {
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ============================================================================
// Record encoding
// ============================================================================

func readRecord[T any](txn *badger.Txn, key string) (T, error) {
	var out T

	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}

	err = item.Value(func(val []byte) error {
		return sonic.Unmarshal(val, &out)
	})
	if err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func writeRecord(txn *badger.Txn, key string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func deleteRecord(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, txn.Delete([]byte(key))
}

// scanRecords decodes every record under prefix in key order
func scanRecords[T any](txn *badger.Txn, prefix string) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var out []T
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var rec T
		err := item.Value(func(val []byte) error {
			return sonic.Unmarshal(val, &rec)
		})
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
		}
		out = append(out, rec)
	}
	return out, nil
}
