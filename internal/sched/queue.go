package sched

import (
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
)

type deadlineKey struct {
	at time.Duration
	id TaskID
}

func compareDeadline(a, b interface{}) int {
	ka := a.(deadlineKey)
	kb := b.(deadlineKey)
	switch {
	case ka.at < kb.at:
		return -1
	case ka.at > kb.at:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	}
	return 0
}

// deadlineQueue orders enabled, not-running tasks by (nextExecuteAt, id).
type deadlineQueue struct {
	tree *redblacktree.Tree
}

func newDeadlineQueue() *deadlineQueue {
	return &deadlineQueue{tree: redblacktree.NewWith(compareDeadline)}
}

func (q *deadlineQueue) push(st *taskState) {
	if st.queued {
		q.tree.Remove(st.key)
	}
	st.key = deadlineKey{at: st.nextExecuteAt, id: st.desc.ID}
	q.tree.Put(st.key, st)
	st.queued = true
}

func (q *deadlineQueue) remove(st *taskState) {
	if !st.queued {
		return
	}
	q.tree.Remove(st.key)
	st.queued = false
}

// due calls fn for every task whose deadline is <= now, earliest first.
// fn must not modify the queue.
func (q *deadlineQueue) due(now time.Duration, fn func(st *taskState)) {
	it := q.tree.Iterator()
	for it.Next() {
		if it.Key().(deadlineKey).at > now {
			return
		}
		fn(it.Value().(*taskState))
	}
}

// nextAfter returns the earliest deadline strictly after now.
func (q *deadlineQueue) nextAfter(now time.Duration) (time.Duration, bool) {
	it := q.tree.Iterator()
	for it.Next() {
		if at := it.Key().(deadlineKey).at; at > now {
			return at, true
		}
	}
	return 0, false
}

// earliest returns the first deadline in the queue.
func (q *deadlineQueue) earliest() (time.Duration, bool) {
	n := q.tree.Left()
	if n == nil {
		return 0, false
	}
	return n.Key.(deadlineKey).at, true
}

func (q *deadlineQueue) len() int { return q.tree.Size() }
