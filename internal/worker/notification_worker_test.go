package worker

import (
	"context"
	"testing"

	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func TestStartNotificationWorkerWiresSinks(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	publisher := events.NewKafkaPublisherWithProducer(producer, "helpdesk.events", zap.NewNop())
	defer publisher.Close() //nolint:errcheck

	StartNotificationWorker(dispatcher, service.NewNotificationService(dispatcher, zap.New(core)), publisher)

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if logs.FilterMessage("TicketCreated").Len() != 1 {
		t.Fatalf("expected one TicketCreated log, got %v", logs.All())
	}
}

func TestStartNotificationWorkerWithoutStream(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()

	StartNotificationWorker(dispatcher, service.NewNotificationService(dispatcher, zap.New(core)), nil)

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned, TicketID: "t-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if logs.FilterMessage("TicketAssigned").Len() != 1 {
		t.Fatalf("expected one TicketAssigned log, got %v", logs.All())
	}
}
