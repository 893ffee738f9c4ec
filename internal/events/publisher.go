package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ProgressPublisher publishes course-progress events. Publishing is
// fire-and-forget from the session's point of view: failures are logged
// by the caller and never affect session state.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, event *CourseProgressEvent) error
	Close() error
}

// KafkaProgressPublisher implements ProgressPublisher using Watermill with Kafka.
type KafkaProgressPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topicName string
}

// PublisherConfig holds configuration for the progress publisher.
type PublisherConfig struct {
	KafkaBrokers []string
	TopicName    string
	Logger       *slog.Logger
}

// NewKafkaProgressPublisher creates a Kafka-backed publisher using Watermill.
func NewKafkaProgressPublisher(config PublisherConfig) (*KafkaProgressPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaProgressPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topicName: config.TopicName,
	}, nil
}

// PublishProgress publishes a course-progress event to Kafka.
func (p *KafkaProgressPublisher) PublishProgress(ctx context.Context, event *CourseProgressEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("quiz_id", event.QuizID)

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		p.logger.Error("Failed to publish progress event",
			"event_id", event.ID,
			"quiz_id", event.QuizID,
			"error", err)
		return fmt.Errorf("failed to publish progress event: %w", err)
	}

	p.logger.Info("Published progress event",
		"event_id", event.ID,
		"quiz_id", event.QuizID,
		"topic", p.topicName)

	return nil
}

// Close closes the publisher and releases resources.
func (p *KafkaProgressPublisher) Close() error {
	return p.publisher.Close()
}

// MockProgressPublisher is an in-memory implementation for tests and
// for deployments with event publishing disabled. Safe for concurrent
// use; sessions publish from their own goroutines.
type MockProgressPublisher struct {
	mu     sync.Mutex
	events []CourseProgressEvent
	Logger *slog.Logger
}

func NewMockProgressPublisher(logger *slog.Logger) *MockProgressPublisher {
	return &MockProgressPublisher{
		events: make([]CourseProgressEvent, 0),
		Logger: logger,
	}
}

func (m *MockProgressPublisher) PublishProgress(ctx context.Context, event *CourseProgressEvent) error {
	m.mu.Lock()
	m.events = append(m.events, *event)
	m.mu.Unlock()
	m.Logger.Info("Mock: Published progress event",
		"event_id", event.ID,
		"quiz_id", event.QuizID)
	return nil
}

func (m *MockProgressPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns all published events (for testing).
func (m *MockProgressPublisher) GetPublishedEvents() []CourseProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CourseProgressEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents clears all published events (for testing).
func (m *MockProgressPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = m.events[:0]
}
