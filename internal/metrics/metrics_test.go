package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRecord(t *testing.T) {
	c := New()
	c.Discovered(3)
	c.DiscoveryWarning()
	c.Activated("Core", 10*time.Millisecond)
	c.Activated("Core", 5*time.Millisecond)
	c.Failed("cycle")
	c.Failed("")
	c.SetActive(4)

	if got := testutil.ToFloat64(c.discovered); got != 3 {
		t.Fatalf("discovered = %v", got)
	}
	if got := testutil.ToFloat64(c.discoveryWarnings); got != 1 {
		t.Fatalf("warnings = %v", got)
	}
	if got := testutil.ToFloat64(c.activations.WithLabelValues("Core")); got != 2 {
		t.Fatalf("activations = %v", got)
	}
	if got := testutil.ToFloat64(c.failures.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unknown failures = %v", got)
	}
	if got := testutil.ToFloat64(c.activeModules); got != 4 {
		t.Fatalf("active = %v", got)
	}
}

func TestNilCollectorsAreSafe(t *testing.T) {
	var c *Collectors
	c.Discovered(1)
	c.DiscoveryWarning()
	c.Activated("Core", time.Second)
	c.Failed("cycle")
	c.SetActive(1)
}
