package txlog

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhmida0588/solbot2026/models"
)

type captureSink struct {
	entries []models.TransactionLogEntry
	err     error
}

func (c *captureSink) AppendLog(entry models.TransactionLogEntry) error {
	c.entries = append(c.entries, entry)
	return c.err
}

func silentLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	l := New(silentLogger(), nil)

	l.Append("w1", models.OpFunding, "sig1", models.LogSuccess, "first")
	l.Append("w2", models.OpTrade, "", models.LogFailed, "second")
	l.Append("", models.OpStartTrade, "", models.LogFailed, "third")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Details)
	assert.Equal(t, "second", entries[1].Details)
	assert.Equal(t, "third", entries[2].Details)
	assert.Equal(t, models.OpTrade, entries[1].Type)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestCapacityDropsOldestEntries(t *testing.T) {
	l := NewWithCapacity(silentLogger(), nil, 5)

	for i := 0; i < 12; i++ {
		l.Append("w", models.OpTrade, "", models.LogSuccess, fmt.Sprintf("entry-%d", i))
	}

	entries := l.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, "entry-7", entries[0].Details)
	assert.Equal(t, "entry-11", entries[4].Details)
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := New(silentLogger(), nil)
	l.Append("w", models.OpTrade, "", models.LogSuccess, "original")

	entries := l.Entries()
	entries[0].Details = "mutated"

	assert.Equal(t, "original", l.Entries()[0].Details)
}

func TestSinkReceivesEveryEntry(t *testing.T) {
	sink := &captureSink{}
	l := New(silentLogger(), sink)

	l.Append("w", models.OpSellAll, "sig", models.LogSuccess, "sold")
	l.Append("w", models.OpSellAll, "", models.LogFailed, "failed")

	require.Len(t, sink.entries, 2)
	assert.Equal(t, "sig", sink.entries[0].Signature)
	assert.Equal(t, models.LogFailed, sink.entries[1].Status)
}

func TestSinkErrorDoesNotDropEntry(t *testing.T) {
	sink := &captureSink{err: fmt.Errorf("disk full")}
	l := New(silentLogger(), sink)

	l.Append("w", models.OpTrade, "", models.LogSuccess, "kept")

	assert.Equal(t, 1, l.Len())
}
