package bytecode

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// CacheVersion is bumped whenever the instruction set or encoding changes in
// a way that makes previously cached programs unsafe to load.
const CacheVersion = 1

// CacheKey derives the cache filename for a source text: a version-prefixed
// hex SHA-256 digest, so any edit to the source (or a cache format bump)
// misses the cache instead of loading a stale program.
func CacheKey(src string) string {
	sum := sha256.Sum256([]byte(src))
	return "v" + strconv.Itoa(CacheVersion) + "-" + hex.EncodeToString(sum[:])
}

// LoadCached reads and decodes a cached Program for the given source text
// from dir, returning ok=false (no error) on a cache miss.
func LoadCached(dir, src string) (*Program, bool, error) {
	path := filepath.Join(dir, CacheKey(src)+".cbor")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		// A corrupt or foreign cache entry is a miss, not a hard failure.
		return nil, false, nil
	}
	return &p, true, nil
}

// StoreCached encodes p and writes it to dir, keyed by src's cache key.
func StoreCached(dir, src string, p *Program) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := cbor.Marshal(p)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, CacheKey(src)+".cbor")
	return os.WriteFile(path, data, 0o644)
}
