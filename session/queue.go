package session

import "babel.town/translate"

type segment struct {
	id     string
	seq    int
	source string
	result translate.Result
	done   bool
}

// queue holds final segments in recognition order while their
// translations are in flight. Segments leave the queue only from the head,
// so completion order never reorders the transcript. Not safe for
// concurrent use.
type queue struct {
	next    int
	pending []*segment
}

func (q *queue) push(id, source string) *segment {
	seg := &segment{id: id, seq: q.next, source: source}
	q.next++
	q.pending = append(q.pending, seg)
	return seg
}

// complete records the result for seg and returns the segments that are
// now ready, in order.
func (q *queue) complete(seg *segment, result translate.Result) []*segment {
	seg.result = result
	seg.done = true

	n := 0
	for n < len(q.pending) && q.pending[n].done {
		n++
	}
	if n == 0 {
		return nil
	}

	ready := q.pending[:n:n]
	q.pending = q.pending[n:]
	return ready
}

func (q *queue) len() int {
	return len(q.pending)
}
