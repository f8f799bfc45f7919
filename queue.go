package sluice

// chunkQueue is a FIFO of chunks with running size accounting. Callers hold
// the owning stream's lock.
type chunkQueue[T any] struct {
	items []queuedChunk[T]
	total int
}

type queuedChunk[T any] struct {
	chunk T
	size  int
}

func (q *chunkQueue[T]) push(chunk T, size int) {
	q.items = append(q.items, queuedChunk[T]{chunk: chunk, size: size})
	q.total += size
}

func (q *chunkQueue[T]) pop() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items[0] = queuedChunk[T]{}
	q.items = q.items[1:]
	q.total -= item.size
	return item.chunk, true
}

func (q *chunkQueue[T]) len() int {
	return len(q.items)
}

func (q *chunkQueue[T]) size() int {
	return q.total
}

func (q *chunkQueue[T]) clear() {
	q.items = nil
	q.total = 0
}

// notifier is a closed-channel broadcast: wait returns the current
// generation's channel, broadcast closes it and starts a new generation.
// All calls must be made under the owning stream's lock; waiters release
// the lock before receiving.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) wait() <-chan struct{} {
	return n.ch
}

func (n *notifier) broadcast() {
	close(n.ch)
	n.ch = make(chan struct{})
}
