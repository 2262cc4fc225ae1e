package index

import "testing"

func TestCacheReusesSameRoot(t *testing.T) {
	cfg := testConfig(t)
	root := t.TempDir()

	var c Cache
	a, err := c.Get(root, cfg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := c.Get(root, cfg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a != b {
		t.Error("same root should reuse the cached engine")
	}
}

func TestCacheSwitchesRoots(t *testing.T) {
	cfg := testConfig(t)

	var c Cache
	a, err := c.Get(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := c.Get(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a == b {
		t.Error("different roots must not share an engine")
	}
	if a.Root() == b.Root() {
		t.Error("engines should track their own roots")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cfg := testConfig(t)
	root := t.TempDir()

	var c Cache
	a, err := c.Get(root, cfg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	c.Invalidate()

	b, err := c.Get(root, cfg)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a == b {
		t.Error("invalidate should drop the cached engine")
	}
}
