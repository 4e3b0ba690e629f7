package gc

import (
	"testing"

	"rebcore/internal/array"
	"rebcore/internal/cell"
	"rebcore/internal/pool"
)

func TestSweepReclaimsUnreachableArray(t *testing.T) {
	c := New(pool.NewAllocator(0))

	reachable := array.New(1)
	var ic cell.Cell
	ic.Reset(cell.KindInteger)
	ic.Payload[0] = 1
	_ = reachable.Append(&ic)

	unreachable := array.New(1)
	_ = unreachable.Append(&ic)

	c.Manage(reachable)
	c.Manage(unreachable)

	c.AddRoot(func() []any { return []any{reachable} })

	stats := c.Recycle()
	if stats.Swept != 1 {
		t.Fatalf("swept = %d, want 1", stats.Swept)
	}
	if _, ok := c.managed[unreachable]; ok {
		t.Fatal("unreachable array should have been swept")
	}
	if _, ok := c.managed[reachable]; !ok {
		t.Fatal("reachable array should survive")
	}
}

func TestDisabledRecycleIsQueuedNotDropped(t *testing.T) {
	c := New(pool.NewAllocator(0))
	unreachable := array.New(0)
	c.Manage(unreachable)

	c.Disable()
	c.RequestRecycle()
	if _, ok := c.managed[unreachable]; !ok {
		t.Fatal("recycle must not run while disabled")
	}
	c.Enable()
	if _, ok := c.managed[unreachable]; ok {
		t.Fatal("queued recycle should have run on Enable")
	}
}

func TestHandleFinalizerFiresOnlyOnIdentitySelfReference(t *testing.T) {
	c := New(pool.NewAllocator(0))

	owner := array.New(0)
	copyHandle := array.New(0) // a distinct object "pointing at" the same concept

	fired := 0
	c.ManageWithCleanup(owner, owner, func() { fired++ })
	c.ManageWithCleanup(copyHandle, owner, func() { fired += 100 }) // selfRef mismatches copyHandle's own key

	c.Recycle() // nothing rooted, both unreached
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 (only the true owner's finalizer runs)", fired)
	}
}

func TestNestedDisableRequiresMatchingEnables(t *testing.T) {
	c := New(pool.NewAllocator(0))
	c.Disable()
	c.Disable()
	c.Enable()
	if !c.Disabled() {
		t.Fatal("should still be disabled after one Enable of two Disables")
	}
	c.Enable()
	if c.Disabled() {
		t.Fatal("should be enabled after matching Enables")
	}
}
