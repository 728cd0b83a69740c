package database

// SynchronousMode represents the available synchronous settings for SQLite
type SynchronousMode string

const (
	SynchronousOff    SynchronousMode = "OFF"
	SynchronousNormal SynchronousMode = "NORMAL"
	SynchronousFull   SynchronousMode = "FULL"
	SynchronousExtra  SynchronousMode = "EXTRA"
)

// JournalMode represents the available journal modes for SQLite
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalWAL      JournalMode = "WAL"
	JournalOff      JournalMode = "OFF"
)

// LockingMode represents the available locking modes for SQLite
type LockingMode string

const (
	LockingNormal    LockingMode = "NORMAL"
	LockingExclusive LockingMode = "EXCLUSIVE"
)

// CacheMode represents the available cache modes for SQLite
type CacheMode string

const (
	CacheShared  CacheMode = "shared"
	CachePrivate CacheMode = "private"
)

// TxLockMode is the BEGIN flavour the driver uses for transactions
type TxLockMode string

const (
	TxLockDeferred  TxLockMode = "deferred"
	TxLockImmediate TxLockMode = "immediate"
	TxLockExclusive TxLockMode = "exclusive"
)

// SQLiteOptions contains configuration options for SQLite connection.
// PRAGMA settings are passed through the DSN so every pooled connection gets them.
type SQLiteOptions struct {
	// Path to the SQLite database file
	Path string

	// URI options
	Mode      string    // ro, rw, rwc, memory
	Cache     CacheMode // shared, private
	Immutable bool

	// PRAGMA options
	Journal     JournalMode
	ForeignKeys bool
	BusyTimeout int // milliseconds
	CacheSize   int // positive: pages, negative: KiB
	Synchronous SynchronousMode
	LockingMode LockingMode

	// Driver options
	TxLock TxLockMode
}

// NewDefaultOptions creates SQLiteOptions with recommended defaults
func NewDefaultOptions(path string) SQLiteOptions {
	return SQLiteOptions{
		Path:        path,
		Mode:        "rwc",
		Journal:     JournalWAL, // WAL lets the API read while the TUI writes
		ForeignKeys: true,
		BusyTimeout: 5000,
		CacheSize:   2000,
		Synchronous: SynchronousNormal,
		Cache:       CachePrivate,
		TxLock:      TxLockImmediate,
	}
}
