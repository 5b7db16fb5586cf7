package vector

import (
	"sync"

	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/logger"
)

// Verify interface compliance.
var _ driven.ShardObserver = (*LogObserver)(nil)

// LogObserver logs corrupt shards and remembers their names for reporting.
type LogObserver struct {
	mu      sync.Mutex
	corrupt []string
}

// NewLogObserver creates an observer.
func NewLogObserver() *LogObserver {
	return &LogObserver{}
}

// ShardCorrupt logs a warning and records the shard name.
func (o *LogObserver) ShardCorrupt(name string, err error) {
	logger.Warn("Shard %s is unreadable and was replaced by an empty one: %v", name, err)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.corrupt = append(o.corrupt, name)
}

// Corrupt returns the names reported so far.
func (o *LogObserver) Corrupt() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.corrupt))
	copy(out, o.corrupt)
	return out
}
