package bucketing

import (
	"sync"
	"testing"
	"time"
)

func TestGetClientBucketIsStableAndInRange(t *testing.T) {
	bm := NewBucketingManager(64)

	first := bm.GetClientBucket("203.0.113.9")
	for i := 0; i < 100; i++ {
		got := bm.GetClientBucket("203.0.113.9")
		if got != first {
			t.Fatalf("bucket changed between calls: %d != %d", got, first)
		}
	}

	identifiers := []string{"203.0.113.9", "198.51.100.44", "2001:db8::1", "", "localhost"}
	for _, id := range identifiers {
		bucket := bm.GetClientBucket(id)
		if bucket < 0 || bucket >= 64 {
			t.Errorf("GetClientBucket(%q) = %d, out of range", id, bucket)
		}
	}
}

func TestGetWindowBucketAlignsToWindow(t *testing.T) {
	bm := NewBucketingManager(16)

	window := bm.GetWindowBucket(3600)
	if window%3600 != 0 {
		t.Errorf("window start %d not aligned to 3600s", window)
	}
	now := time.Now().Unix()
	if window > now || now-window >= 3600 {
		t.Errorf("window start %d not within the current hour (now %d)", window, now)
	}
}

func TestGetDateBucketFormat(t *testing.T) {
	bm := NewBucketingManager(16)

	date := bm.GetDateBucket()
	if _, err := time.Parse("2006-01-02", date); err != nil {
		t.Errorf("GetDateBucket() = %q, not a date: %v", date, err)
	}
}

func TestGetClientBucketConcurrent(t *testing.T) {
	bm := NewBucketingManager(32)
	want := bm.GetClientBucket("client-a")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if got := bm.GetClientBucket("client-a"); got != want {
					t.Errorf("concurrent bucket = %d, want %d", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
