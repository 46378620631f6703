package configcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/neighborcast/neighborcast-api/internal/core"
)

// initialVersion is reported while the version key has never been written.
const initialVersion = "0"

// Versioner keeps the active-configuration version in the shared tier.
//
// Shared entries are keyed by version. A cutover bumps the version after the
// durable pointer commits, so a reader that loaded the old pointer before the
// commit can only write under a key that later readers never consult.
type Versioner struct {
	shared core.CacheRepository
	key    string
	clock  func() time.Time
}

// NewVersioner constructs a Versioner over shared. An empty key uses the
// default version key.
func NewVersioner(shared core.CacheRepository, key string, clock func() time.Time) *Versioner {
	if key == "" {
		key = DefaultVersionKey
	}
	if clock == nil {
		clock = time.Now
	}
	return &Versioner{shared: shared, key: key, clock: clock}
}

// Current reads the version from the shared tier. It is not cached in-process:
// a remembered version would let a fill land under a key readers still use.
func (v *Versioner) Current(ctx context.Context) (string, error) {
	b, err := v.shared.Get(ctx, v.key)
	if err != nil {
		return "", fmt.Errorf("read cache version: %w", err)
	}
	if len(b) == 0 {
		return initialVersion, nil
	}
	return string(b), nil
}

// Bump writes a new version and returns it. The clock prefix orders versions
// for operators; the random suffix keeps two bumps in the same tick distinct.
func (v *Versioner) Bump(ctx context.Context) (string, error) {
	next := strconv.FormatInt(v.clock().UnixNano(), 36) + "-" + uuid.NewString()[:8]
	if err := v.shared.Set(ctx, v.key, []byte(next), 0); err != nil {
		return "", fmt.Errorf("bump cache version: %w", err)
	}
	return next, nil
}

// entryKey is the shared key holding the active id for version.
func entryKey(base, version string) string { return base + ":" + version }
