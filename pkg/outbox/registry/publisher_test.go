package registry

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/angelmondragon/loomworks-backend/pkg/config"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	materialID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.StockAdjustedEvent{
		MaterialID:   materialID,
		MovementID:   uuid.New(),
		MovementType: enums.MovementTypeOut,
		Quantity:     decimal.NewFromInt(-3),
		StockBefore:  decimal.NewFromInt(10),
		StockAfter:   decimal.NewFromInt(7),
	})

	event := models.OutboxEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   materialID,
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "inventory-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.StockAdjustedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.MaterialID != materialID || !payload.StockAfter.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
}

func TestEventRegistryRoutesWorkOrderEventsToProduction(t *testing.T) {
	reg := newTestEventRegistry(t)

	payloadBytes := mustMarshal(t, payloads.WorkOrderStageAdvancedEvent{
		WorkOrderID: uuid.New(),
		FromStage:   enums.StageDesignApproved,
		ToStage:     enums.StageYarnPlanning,
		Status:      enums.WorkOrderStatusInProgress,
		AdvancedAt:  time.Now().UTC(),
	})
	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventWorkOrderStageAdvanced,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloadBytes),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "production-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("rug_sold"),
		AggregateType: enums.AggregateMaterial,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"reason":"none"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"material_id":"00000000-0000-0000-0000-000000000000"}`)),
	}

	_, err := reg.Resolve(event)
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventMaterialLowStock,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   uuid.Nil,
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	_, err := reg.Resolve(event)
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventWorkOrderCompleted,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte("null")),
	}

	_, err := reg.Resolve(event)
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{ProductionTopic: "p"}); err == nil {
		t.Fatalf("expected error for missing inventory topic")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{InventoryTopic: "i"}); err == nil {
		t.Fatalf("expected error for missing production topic")
	}
}

func TestEventRegistryTopics(t *testing.T) {
	reg := newTestEventRegistry(t)
	topics := reg.Topics()
	sort.Strings(topics)
	if len(topics) != 2 || topics[0] != "inventory-topic" || topics[1] != "production-topic" {
		t.Fatalf("unexpected topics %v", topics)
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	cfg := config.PubSubConfig{
		ProductionTopic: "production-topic",
		InventoryTopic:  "inventory-topic",
	}
	reg, err := NewEventRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
