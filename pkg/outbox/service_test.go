package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func queuedEvents(t *testing.T, db *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, db.Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestEmitQueuesEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)
	aggregateID := uuid.New()

	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventProductSold,
		AggregateType: enums.AggregateRetailRecord,
		AggregateID:   aggregateID,
		Version:       1,
		Data:          map[string]string{"customer_phone": "+919876543210"},
	})
	require.NoError(t, err)

	rows := queuedEvents(t, db)
	require.Len(t, rows, 1)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
	assert.Equal(t, enums.EventProductSold, rows[0].EventType)
	assert.Equal(t, aggregateID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
}

func TestEmitIfNotExistsSkipsDuplicate(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)
	aggregateID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventTransportCompleted,
		AggregateType: enums.AggregateTransportRecord,
		AggregateID:   aggregateID,
		Version:       1,
		Data:          map[string]string{"status": "delivered"},
	}

	require.NoError(t, svc.EmitIfNotExists(context.Background(), db, event))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), db, event))

	rows := queuedEvents(t, db)
	assert.Len(t, rows, 1)
}

func TestEmitIfNotExistsAllowsOtherAggregates(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	for i := 0; i < 2; i++ {
		err := svc.EmitIfNotExists(context.Background(), db, DomainEvent{
			EventType:     enums.EventProductSold,
			AggregateType: enums.AggregateRetailRecord,
			AggregateID:   uuid.New(),
			Version:       1,
			Data:          map[string]string{},
		})
		require.NoError(t, err)
	}

	rows := queuedEvents(t, db)
	assert.Len(t, rows, 2)
}
