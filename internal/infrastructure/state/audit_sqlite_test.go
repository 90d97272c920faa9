package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/opsgpt/internal/domain"
)

func newTestAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	store, err := NewAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAuditSaveAssignsIDAndTimestamp(t *testing.T) {
	store := newTestAuditStore(t)

	require.NoError(t, store.Save(domain.AuditRecord{
		Input:    "show logs from frontend",
		Intent:   "show_logs",
		Category: domain.CategoryTroubleshooting,
		Mode:     domain.ModeSimulate,
		Success:  true,
		Duration: 1500 * time.Millisecond,
	}))

	records, err := store.Records(0, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].Timestamp.IsZero())
	assert.Equal(t, "show_logs", records[0].Intent)
	assert.Equal(t, domain.CategoryTroubleshooting, records[0].Category)
	assert.Equal(t, 1500*time.Millisecond, records[0].Duration)
}

func TestAuditRecordsNewestFirstWithLimit(t *testing.T) {
	store := newTestAuditStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, intent := range []string{"first", "second", "third"} {
		require.NoError(t, store.Save(domain.AuditRecord{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Input:     intent + " input",
			Intent:    intent,
			Category:  domain.CategoryCICD,
			Mode:      domain.ModeExecute,
		}))
	}

	records, err := store.Records(2, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Intent)
	assert.Equal(t, "second", records[1].Intent)
}

func TestAuditSearchMatchesInputAndIntent(t *testing.T) {
	store := newTestAuditStore(t)

	require.NoError(t, store.Save(domain.AuditRecord{Input: "restart the payments service", Intent: "restart_service"}))
	require.NoError(t, store.Save(domain.AuditRecord{Input: "check alerts", Intent: "check_alerts"}))

	records, err := store.Records(0, "payments")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "restart_service", records[0].Intent)

	records, err = store.Records(0, "check_alerts")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAuditClearEmptiesTable(t *testing.T) {
	store := newTestAuditStore(t)

	require.NoError(t, store.Save(domain.AuditRecord{Intent: "show_logs"}))
	require.NoError(t, store.Clear())

	records, err := store.Records(0, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}
