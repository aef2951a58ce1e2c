package main

import (
	"fixly/internal/jobs/handler"
	"fixly/internal/jobs/repository"
	"fixly/internal/projector"
	"fixly/pkg/app"
	"fixly/pkg/config"
	mongotx "fixly/pkg/db/mongo"
	kafka_config "fixly/pkg/kafka/config"
)

const ServiceName = "projector"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Projector service")

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	inboxRepo := repository.NewMongoInboxRepository(cfg)
	rejectionRepo := repository.NewMongoRejectionRepository(cfg)
	txManager := mongotx.NewTransactionManager(cfg.Client.Mongo)
	proj := projector.NewProjector(inboxRepo, rejectionRepo, txManager, cfg)

	bookingWorker, err := projector.NewBookingEventsWorker(kafkaCfg, cfg.Log, ServiceName, proj)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events consumer", "error", err)
	}
	jobWorker, err := projector.NewJobEventsWorker(kafkaCfg, cfg.Log, ServiceName, proj)
	if err != nil {
		cfg.Log.Fatal("Failed to create job events consumer", "error", err)
	}

	cfg.Log.Info("Projector initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		projector.NewInboxHandler(inboxRepo, cfg.Log),
	)
	serverApp.AddWorker(bookingWorker)
	serverApp.AddWorker(jobWorker)
	serverApp.Run()
}
