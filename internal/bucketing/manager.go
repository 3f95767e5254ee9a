package bucketing

import (
	"hash"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// BucketingManager maps client identifiers onto a fixed number of buckets so
// rate-limit counters and audit rows spread evenly. The mapping is stable
// across restarts because murmur3 is seedless here.
type BucketingManager struct {
	buckets    int
	hasherPool sync.Pool
}

func NewBucketingManager(buckets int) *BucketingManager {
	bm := &BucketingManager{
		buckets: buckets,
	}

	// Pool of hash functions to avoid allocation overhead on the hot path
	bm.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return bm
}

// GetClientBucket returns a consistent bucket (0 to buckets-1) for a client
// identifier such as an IP address.
func (bm *BucketingManager) GetClientBucket(identifier string) int {
	return int(bm.getHash(identifier) % uint64(bm.buckets))
}

// GetWindowBucket returns the start of the current rate-limit window.
func (bm *BucketingManager) GetWindowBucket(windowSeconds int) int64 {
	return time.Now().Unix() / int64(windowSeconds) * int64(windowSeconds)
}

// GetDateBucket returns the UTC date partition used for audit events.
func (bm *BucketingManager) GetDateBucket() string {
	return time.Now().UTC().Format("2006-01-02")
}

func (bm *BucketingManager) getHash(key string) uint64 {
	hasher := bm.hasherPool.Get().(hash.Hash64)
	defer bm.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
