// Package dedupe tracks which identities a recurring poll has already
// processed.
package dedupe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
)

// Ledger records processed identities so a poll acts on each one at most
// once per ledger lifetime. The guarantee across crashes is at-least-once:
// MarkSeen is durable before it returns, but a crash between processing an
// item and marking it reprocesses that item on the next run. Downstream
// writes must therefore be idempotent.
type Ledger interface {
	// IsNew reports whether id has not been marked seen yet.
	IsNew(ctx context.Context, id string) bool

	// MarkSeen durably records id. It is an error to call it with an id
	// containing a newline. Marking an already-seen id is a no-op.
	MarkSeen(ctx context.Context, id string) error

	// Size returns the number of identities in the ledger.
	Size() int64

	Close() error
}

// fileLedger implements Ledger over an append-only text file, one identity
// per line. The whole file is the set; it is cleared only by external reset
// (deleting the file).
type fileLedger struct {
	mu   sync.Mutex
	path string
	file *os.File
	lock *flock.Flock
	seen map[string]struct{}
	size atomic.Int64

	useLock bool
}

// Open loads or creates the ledger file at path. When the file lock is
// enabled (the default) a second process opening the same ledger fails with
// ErrLedgerLocked instead of racing the first writer.
func Open(path string, opts ...Option) (Ledger, error) {
	l := &fileLedger{
		path:    path,
		seen:    make(map[string]struct{}),
		useLock: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	if l.useLock {
		l.lock = flock.New(path + ".lock")
		held, err := l.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire ledger lock: %w", err)
		}
		if !held {
			return nil, fmt.Errorf("ledger %s: %w", path, ErrLedgerLocked)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		l.releaseLock()
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	l.file = file

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		if _, dup := l.seen[id]; dup {
			continue
		}
		l.seen[id] = struct{}{}
		l.size.Add(1)
	}
	if err := scanner.Err(); err != nil {
		_ = file.Close()
		l.releaseLock()
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	return l, nil
}

// IsNew reports whether id has not been marked seen yet.
func (l *fileLedger) IsNew(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, seen := l.seen[id]
	return !seen
}

// MarkSeen appends id to the ledger file and syncs it before updating the
// in-memory set, so the mark is durable before the next poll cycle can read
// the ledger.
func (l *fileLedger) MarkSeen(ctx context.Context, id string) error {
	if strings.ContainsRune(id, '\n') {
		return fmt.Errorf("mark seen %q: %w", id, ErrInvalidIdentity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.seen[id]; seen {
		return nil
	}
	if l.file == nil {
		return ErrLedgerClosed
	}
	if _, err := l.file.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger file: %w", err)
	}
	l.seen[id] = struct{}{}
	l.size.Add(1)
	return nil
}

// Size returns the number of identities in the ledger.
func (l *fileLedger) Size() int64 {
	return l.size.Load()
}

// Close releases the ledger file and its lock.
func (l *fileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.file != nil {
		err = l.file.Close()
		l.file = nil
	}
	l.releaseLock()
	return err
}

func (l *fileLedger) releaseLock() {
	if l.lock != nil {
		_ = l.lock.Unlock()
		l.lock = nil
	}
}

// memoryLedger implements Ledger without persistence, for tests and
// single-run tooling.
type memoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
	size atomic.Int64
}

// NewMemory creates an in-memory ledger with no durability.
func NewMemory() Ledger {
	return &memoryLedger{seen: make(map[string]struct{})}
}

func (m *memoryLedger) IsNew(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, seen := m.seen[id]
	return !seen
}

func (m *memoryLedger) MarkSeen(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, seen := m.seen[id]; !seen {
		m.seen[id] = struct{}{}
		m.size.Add(1)
	}
	return nil
}

func (m *memoryLedger) Size() int64 { return m.size.Load() }

func (m *memoryLedger) Close() error { return nil }
