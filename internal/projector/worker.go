package projector

import (
	"context"

	"fixly/pkg/kafka"
	kafka_config "fixly/pkg/kafka/config"
	kafka_middleware "fixly/pkg/kafka/middleware"
	"fixly/pkg/logger"
)

// consumerWorker adapts a Kafka consumer to the application worker contract.
type consumerWorker struct {
	consumer *kafka.Consumer
}

func (w *consumerWorker) Run(ctx context.Context) error {
	return w.consumer.Start(ctx)
}

func (w *consumerWorker) Close() error {
	return w.consumer.Close()
}

// NewBookingEventsWorker builds the consumer that projects booking.created
// events into provider inbox entries.
func NewBookingEventsWorker(kafkaCfg *kafka_config.Config, log *logger.Logger, groupID string, p *Projector) (*consumerWorker, error) {
	consumer, err := kafka.NewConsumer(kafkaCfg, log, kafka.TopicBookingEvents, groupID, kafka.TopicBookingEventsDLQ, p.HandleBookingEvent)
	if err != nil {
		return nil, err
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
	return &consumerWorker{consumer: consumer}, nil
}

// NewJobEventsWorker builds the consumer that clears inbox entries and
// rejection suppressions when a booking leaves pending.
func NewJobEventsWorker(kafkaCfg *kafka_config.Config, log *logger.Logger, groupID string, p *Projector) (*consumerWorker, error) {
	consumer, err := kafka.NewConsumer(kafkaCfg, log, kafka.TopicJobEvents, groupID, kafka.TopicJobEventsDLQ, p.HandleJobEvent)
	if err != nil {
		return nil, err
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
	return &consumerWorker{consumer: consumer}, nil
}
