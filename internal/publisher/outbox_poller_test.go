package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"gotest.tools/v3/assert"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/orders"
)

type MockRepository struct {
	OutboxEvents        []*orders.OutboxEvent
	ProcessedId         int
	MissingOrders       []*domain.Order
	GetMissingErr       error
	AddOutboxEventErr   error
	BackfilledOrders    []string // order numbers passed to AddOutboxEvent
	AddOutboxEventCalls int
}

func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) RunMigrations(*orders.Credentials) error {
	return nil
}

func (m *MockRepository) CreateOrder(context.Context, *domain.Order) error {
	return nil
}

func (m *MockRepository) GetOrder(context.Context, string) (*domain.Order, error) {
	return nil, orders.ErrOrderNotFound
}

func (m *MockRepository) ListOrdersByUser(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*orders.OutboxEvent, error) {
	if len(m.OutboxEvents) > 0 {
		ev := []*orders.OutboxEvent{m.OutboxEvents[0]} // Return first event once
		m.OutboxEvents = []*orders.OutboxEvent{}
		return ev, nil
	}
	return m.OutboxEvents, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id int) error {
	m.ProcessedId = id
	return nil
}

func (m *MockRepository) GetOrdersMissingOutbox(context.Context) ([]*domain.Order, error) {
	if m.GetMissingErr != nil {
		return nil, m.GetMissingErr
	}
	return m.MissingOrders, nil
}

func (m *MockRepository) AddOutboxEvent(_ context.Context, order *domain.Order) error {
	m.AddOutboxEventCalls++
	if m.AddOutboxEventErr != nil {
		return m.AddOutboxEventErr
	}
	m.BackfilledOrders = append(m.BackfilledOrders, order.OrderNumber)
	return nil
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	topicConfigs := []kafkaGo.TopicConfig{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	createTopic(t, brokerAddr, Topic)

	// Give Kafka time to fully initialize the topic
	time.Sleep(5 * time.Second)

	mockRepo := &MockRepository{
		OutboxEvents: []*orders.OutboxEvent{
			{
				ID:          1,
				AggregateID: "RHS-AB12CD34",
				EventType:   orders.EventOrderCreated,
				Payload:     json.RawMessage(`{"order_number":"RHS-AB12CD34","user_id":"user-456"}`),
				CreatedAt:   time.Now(),
			},
		},
	}

	writer := &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(brokerAddr),
		Topic:        Topic,
		Balancer:     &kafkaGo.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	defer writer.Close()

	poller := &OutboxPoller{
		timeout:      5 * time.Second,
		eventTick:    1 * time.Second,
		recoveryTick: 5 * time.Second,
		repo:         mockRepo,
		writer:       writer,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    Topic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	assert.Equal(t, "RHS-AB12CD34", string(msg.Key))

	var payload map[string]interface{}
	err = json.Unmarshal(msg.Value, &payload)
	require.NoError(t, err)

	assert.Equal(t, "RHS-AB12CD34", payload["order_number"])
	assert.Equal(t, "user-456", payload["user_id"])

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, orders.EventOrderCreated, string(msg.Headers[0].Value))

	// Verify event was marked as processed
	assert.Equal(t, 1, mockRepo.ProcessedId)
}

func TestRecoverMissingEvents_Backfills(t *testing.T) {
	mockRepo := &MockRepository{
		MissingOrders: []*domain.Order{
			{OrderNumber: "RHS-LOST0001", UserID: "user-1"},
		},
	}

	poller := NewOutboxPoller(mockRepo)
	poller.recoverMissingEvents(context.Background())

	require.Len(t, mockRepo.BackfilledOrders, 1)
	assert.Equal(t, "RHS-LOST0001", mockRepo.BackfilledOrders[0])
}

func TestRecoverMissingEvents_RepositoryError(t *testing.T) {
	mockRepo := &MockRepository{
		GetMissingErr: errors.New("database connection error"),
	}

	poller := NewOutboxPoller(mockRepo)

	// Should not panic, just log error and return
	poller.recoverMissingEvents(context.Background())

	assert.Equal(t, 0, mockRepo.AddOutboxEventCalls)
}

func TestRecoverMissingEvents_EmptyList(t *testing.T) {
	mockRepo := &MockRepository{}

	poller := NewOutboxPoller(mockRepo)
	poller.recoverMissingEvents(context.Background())

	assert.Equal(t, 0, mockRepo.AddOutboxEventCalls)
}

func TestRecoverMissingEvents_PartialFailure(t *testing.T) {
	// One failing backfill must not prevent the rest from recovering.
	mockRepo := &MockRepository{
		MissingOrders: []*domain.Order{
			{OrderNumber: "RHS-LOST0001"},
			{OrderNumber: "RHS-LOST0002"},
		},
		AddOutboxEventErr: errors.New("database deadlock"),
	}

	poller := NewOutboxPoller(mockRepo)
	poller.recoverMissingEvents(context.Background())

	assert.Equal(t, 2, mockRepo.AddOutboxEventCalls)
	assert.Equal(t, 0, len(mockRepo.BackfilledOrders))
}
