package app

import "sync"

// Notice is a one-shot toast message queued for the next poll.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type noticeQueue struct {
	mu      sync.Mutex
	pending []Notice
}

func (q *noticeQueue) Info(message string) {
	q.push(Notice{Level: "info", Message: message})
}

func (q *noticeQueue) Error(message string) {
	q.push(Notice{Level: "error", Message: message})
}

func (q *noticeQueue) push(n Notice) {
	q.mu.Lock()
	q.pending = append(q.pending, n)
	q.mu.Unlock()
}

// Drain returns the queued notices and empties the queue.
func (q *noticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}
