package main

import (
	"fixly/internal/jobs/handler"
	"fixly/internal/jobs/repository"
	"fixly/internal/jobs/service"
	"fixly/internal/jobs/validator"
	"fixly/internal/routing"
	"fixly/pkg/app"
	"fixly/pkg/client"
	"fixly/pkg/config"
	"fixly/pkg/kafka"
	kafka_config "fixly/pkg/kafka/config"
	kafka_middleware "fixly/pkg/kafka/middleware"
	"fixly/pkg/sealer"
)

const ServiceName = "jobs"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Jobs service")

	jobValidator := validator.NewJobValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	rejectionRepo := repository.NewMongoRejectionRepository(cfg)
	notifier := repository.NewMongoChangeNotifier(cfg)

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	cursorSealer, err := sealer.New(cfg.CursorSealKey)
	if err != nil {
		cfg.Log.Fatal("Invalid cursor seal key", "error", err)
	}

	jobService := service.NewJobService(bookingRepo, rejectionRepo, producer, cursorSealer, cfg)
	feedService := service.NewFeedService(jobService, notifier, cfg)
	optimizer := routing.NewOptimizer(cfg.AvgFieldSpeedKmh)
	rpcClient := client.NewRemoteProcedureClient(cfg.FunctionsBaseURL, cfg.FunctionsTimeout)

	cfg.Log.Info("Jobs service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewJobHandler(jobService, feedService, jobValidator, cfg.Log),
		handler.NewRouteHandler(jobService, optimizer, jobValidator, cfg.Log),
		handler.NewCallHandler(jobService, rpcClient, jobValidator, cfg.Log),
	)
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, kafka.TopicJobEvents, kafka.TopicJobEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	return producer
}
