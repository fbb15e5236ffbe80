package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

// Simulated latencies applied before a mock scan or tutor reply resolves.
const (
	EmailScanLatency = 2000 * time.Millisecond
	URLScanLatency   = 1500 * time.Millisecond
	PortScanLatency  = 3000 * time.Millisecond
	ChatLatency      = 1000 * time.Millisecond
)

const (
	// EmailSnippetLimit caps how many characters of an email body a result keeps.
	EmailSnippetLimit = 100
	// ProgressStorageKey is the durable storage key holding the progress mapping.
	ProgressStorageKey = "progress-store"
	// LocalStorageFile is the file backing the durable key/value store.
	LocalStorageFile = "local-storage.json"
	// CompletePercent marks a topic as finished.
	CompletePercent = 100
)
