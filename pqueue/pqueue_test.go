package pqueue

import "testing"

func TestPopMinOrder(t *testing.T) {
	q := New()
	q.Push("A", 5)
	q.Push("B", 3)
	q.Push("C", 7)
	q.Push("D", 3)

	var got []string
	for {
		item, ok := q.PopMin()
		if !ok {
			break
		}
		got = append(got, item.(string))
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d: %v", len(got), got)
	}

	// The minimum-priority property must hold: every prefix of the
	// popped sequence must have priority <= every item popped after it.
	priorities := map[string]Priority{"A": 5, "B": 3, "C": 7, "D": 3}
	for i := 1; i < len(got); i++ {
		if priorities[got[i-1]] > priorities[got[i]] {
			t.Fatalf("heap invariant violated: %v popped before %v", got[i-1], got[i])
		}
	}

	// B and D (both priority 3) must come before A (5) and C (7).
	pos := map[string]int{}
	for i, v := range got {
		pos[v] = i
	}
	if pos["A"] < pos["B"] || pos["A"] < pos["D"] {
		t.Fatalf("A popped before a lower-priority item: %v", got)
	}
	if pos["C"] < pos["A"] {
		t.Fatalf("C (priority 7) popped before A (priority 5): %v", got)
	}
}

func TestPopMinEmpty(t *testing.T) {
	q := New()
	if _, ok := q.PopMin(); ok {
		t.Fatalf("expected empty queue to report not-ok")
	}
}

func TestNoElementLost(t *testing.T) {
	q := New()
	const n = 500
	for i := 0; i < n; i++ {
		q.Push(i, Priority(n-i))
	}
	if q.Len() != n {
		t.Fatalf("expected %d queued, got %d", n, q.Len())
	}

	count := 0
	var last Priority = 0
	for {
		item, ok := q.PopMin()
		if !ok {
			break
		}
		_ = item
		count++
	}
	if count != n {
		t.Fatalf("expected to pop %d items, popped %d", n, count)
	}
	_ = last
}

func TestMonotonicPops(t *testing.T) {
	q := New()
	vals := []Priority{9, 1, 4, 4, 2, 8, 0, 7}
	for i, p := range vals {
		q.Push(i, p)
	}

	var prev Priority
	first := true
	for {
		item, ok := q.PopMin()
		if !ok {
			break
		}
		p := vals[item.(int)]
		if !first && p < prev {
			t.Fatalf("priorities not monotonic: got %d after %d", p, prev)
		}
		prev = p
		first = false
	}
}
