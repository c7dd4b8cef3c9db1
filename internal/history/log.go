package history

import (
	"sync"

	"github.com/google/uuid"
)

// TimeFormat is the wall-clock layout used for Record.Timestamp.
const TimeFormat = "15:04:05"

type Record struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	Mode       string `json:"mode"`
	Result     string `json:"result"`
	ModelUsed  string `json:"model_used,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// Log is an unbounded, process-lifetime list of analysis records kept in
// append order.
type Log struct {
	mu        sync.RWMutex
	records   []Record
	listeners []func(Record)
}

func NewLog() *Log {
	return &Log{records: []Record{}}
}

// Append stores r, assigning an ID when it has none, and notifies listeners
// outside the lock.
func (l *Log) Append(r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	l.mu.Lock()
	l.records = append(l.records, r)
	listeners := l.listeners
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(r)
	}
	return r
}

// List returns a copy of all records, oldest first.
func (l *Log) List() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = []Record{}
}

// Subscribe registers fn to be called after every Append.
func (l *Log) Subscribe(fn func(Record)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners[:len(l.listeners):len(l.listeners)], fn)
}
