package session

import (
	"testing"

	"babel.town/translate"
)

func TestQueueReleasesFromHead(t *testing.T) {
	var q queue
	a := q.push("a", "one")
	b := q.push("b", "two")
	c := q.push("c", "three")

	if a.seq != 0 || b.seq != 1 || c.seq != 2 {
		t.Fatalf("seq = %d %d %d, want 0 1 2", a.seq, b.seq, c.seq)
	}

	if ready := q.complete(c, translate.Result{Text: "3"}); len(ready) != 0 {
		t.Fatalf("completing the tail released %d segments", len(ready))
	}
	if ready := q.complete(b, translate.Result{Text: "2"}); len(ready) != 0 {
		t.Fatalf("completing the middle released %d segments", len(ready))
	}

	ready := q.complete(a, translate.Result{Text: "1"})
	if len(ready) != 3 {
		t.Fatalf("released %d segments, want 3", len(ready))
	}
	for i, want := range []string{"1", "2", "3"} {
		if ready[i].result.Text != want {
			t.Errorf("ready[%d] = %q, want %q", i, ready[i].result.Text, want)
		}
	}
	if q.len() != 0 {
		t.Errorf("len = %d, want 0", q.len())
	}
}

func TestQueueContinuesNumbering(t *testing.T) {
	var q queue
	first := q.push("a", "one")
	q.complete(first, translate.Result{Text: "1"})

	second := q.push("b", "two")
	if second.seq != 1 {
		t.Errorf("seq = %d, want 1", second.seq)
	}
	if ready := q.complete(second, translate.Result{Text: "2"}); len(ready) != 1 || ready[0] != second {
		t.Errorf("ready = %v", ready)
	}
}
