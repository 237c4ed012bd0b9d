package domain

import (
	"fmt"
	"sync"
	"testing"
)

func TestCollector_ConcurrentRecord(t *testing.T) {
	c := NewCollector()
	const n = 500

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Record(ReportEntry{Name: fmt.Sprintf("row-%04d", i)})
		}(i)
	}
	wg.Wait()

	got := c.Snapshot()
	if len(got) != n {
		t.Fatalf("Snapshot() returned %d entries, want %d", len(got), n)
	}
	seen := make(map[string]bool, n)
	for i, e := range got {
		if seen[e.Name] {
			t.Errorf("duplicate entry %q", e.Name)
		}
		seen[e.Name] = true
		if i > 0 && got[i-1].Name > e.Name {
			t.Errorf("entries not sorted at %d: %q > %q", i, got[i-1].Name, e.Name)
		}
	}
}

func TestCollector_SnapshotSortsByName(t *testing.T) {
	c := NewCollector()
	c.Record(ReportEntry{Name: "c"})
	c.Record(ReportEntry{Name: "a"})
	c.Record(ReportEntry{Name: "b"})

	got := c.Snapshot()
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Name != want {
			t.Errorf("Snapshot()[%d].Name = %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestCollector_Empty(t *testing.T) {
	if got := NewCollector().Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want empty", got)
	}
}

func TestCollector_RecordAfterSnapshotPanics(t *testing.T) {
	c := NewCollector()
	c.Snapshot()

	defer func() {
		if recover() == nil {
			t.Error("Record() after Snapshot() did not panic")
		}
	}()
	c.Record(ReportEntry{Name: "late"})
}

func TestSummarize(t *testing.T) {
	got := Summarize([]ReportEntry{
		{Name: "a", Succeeded: true},
		{Name: "b", Succeeded: true},
		SkippedEntry("c"),
		{Name: "d"},
	})
	want := Summary{Total: 4, Succeeded: 2, Skipped: 1, Failed: 1}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}
