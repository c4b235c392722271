// Package txlog holds the append-only record of every attempted operation.
package txlog

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/models"
)

// DefaultCapacity bounds the in-memory log. The durable sink, when
// configured, keeps the full history.
const DefaultCapacity = 1000

// Sink receives every appended entry for durable storage.
type Sink interface {
	AppendLog(entry models.TransactionLogEntry) error
}

// Log is a bounded, insertion-ordered record of operation outcomes.
// Entries are never mutated after append; once the capacity is reached the
// oldest in-memory entries are dropped.
type Log struct {
	log  logrus.FieldLogger
	sink Sink

	mu      sync.Mutex
	cap     int
	entries []models.TransactionLogEntry
}

// New builds a log with the default capacity. sink may be nil.
func New(log logrus.FieldLogger, sink Sink) *Log {
	return NewWithCapacity(log, sink, DefaultCapacity)
}

// NewWithCapacity builds a log bounded to the given number of entries.
func NewWithCapacity(log logrus.FieldLogger, sink Sink, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{log: log, sink: sink, cap: capacity}
}

// Append records one operation outcome, stamping it with the current time.
func (l *Log) Append(wallet, opType, signature, status, details string) {
	entry := models.TransactionLogEntry{
		Wallet:    wallet,
		Type:      opType,
		Signature: signature,
		Status:    status,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.cap {
		l.entries = append([]models.TransactionLogEntry(nil), l.entries[len(l.entries)-l.cap:]...)
	}
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.AppendLog(entry); err != nil && l.log != nil {
			l.log.WithError(err).WithField("type", opType).Warn("failed to persist transaction log entry")
		}
	}
}

// Entries returns a copy of the retained log in insertion order.
func (l *Log) Entries() []models.TransactionLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.TransactionLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
