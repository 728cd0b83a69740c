package database

import (
	"fmt"
	"net/url"
	"strings"
)

// pragma renders one `_pragma=name(value)` DSN entry
func pragma(name string, value any) string {
	return fmt.Sprintf("%s(%v)", name, value)
}

func boolPragma(b bool) int {
	if b {
		return 1
	}
	return 0
}

// buildConnectionString generates a modernc.org/sqlite DSN from options
func (opts *SQLiteOptions) buildConnectionString() string {
	params := url.Values{}

	// busy_timeout goes first so the following PRAGMAs wait on a locked file
	if opts.BusyTimeout > 0 {
		params.Add("_pragma", pragma("busy_timeout", opts.BusyTimeout))
	}
	params.Add("_pragma", pragma("foreign_keys", boolPragma(opts.ForeignKeys)))
	if opts.Journal != "" {
		params.Add("_pragma", pragma("journal_mode", opts.Journal))
	}
	if opts.Synchronous != "" {
		params.Add("_pragma", pragma("synchronous", opts.Synchronous))
	}
	if opts.CacheSize != 0 {
		params.Add("_pragma", pragma("cache_size", opts.CacheSize))
	}
	if opts.LockingMode != "" {
		params.Add("_pragma", pragma("locking_mode", opts.LockingMode))
	}

	if opts.TxLock != "" {
		params.Set("_txlock", string(opts.TxLock))
	}
	if opts.Cache != "" {
		params.Set("cache", string(opts.Cache))
	}
	if opts.Immutable {
		params.Set("immutable", "1")
	}
	if opts.Mode != "" {
		params.Set("mode", opts.Mode)
	}

	connStr := opts.Path
	if !strings.HasPrefix(connStr, "file:") {
		connStr = "file:" + connStr
	}
	if encoded := params.Encode(); encoded != "" {
		connStr += "?" + encoded
	}

	return connStr
}
