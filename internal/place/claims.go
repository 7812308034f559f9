package place

import (
	"path/filepath"
	"strings"
	"sync"
)

// claimSet reserves destination paths across concurrently processed
// documents, so two workers can never resolve to the same final name even
// before either file exists on disk. Keys are case-folded because the
// filesystems we target may be case-insensitive.
type claimSet struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{reserved: make(map[string]struct{})}
}

func claimKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// tryReserve atomically checks-and-reserves a path. Returns false when some
// other document already claimed it.
func (c *claimSet) tryReserve(path string) bool {
	key := claimKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.reserved[key]; taken {
		return false
	}
	c.reserved[key] = struct{}{}
	return true
}

func (c *claimSet) release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reserved, claimKey(path))
}
