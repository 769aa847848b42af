package app

import (
	adminhandler "roombook/internal/admin/handler"
	adminservice "roombook/internal/admin/service"
	bookinghandler "roombook/internal/bookings/handler"
	bookingrepo "roombook/internal/bookings/repository"
	bookingservice "roombook/internal/bookings/service"
	bookingvalidator "roombook/internal/bookings/validator"
	roomhandler "roombook/internal/rooms/handler"
	roomrepo "roombook/internal/rooms/repository"
	roomservice "roombook/internal/rooms/service"
	roomvalidator "roombook/internal/rooms/validator"
	userhandler "roombook/internal/users/handler"
	userrepo "roombook/internal/users/repository"
	userservice "roombook/internal/users/service"
	uservalidator "roombook/internal/users/validator"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/contracts"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
	"roombook/pkg/middleware"
)

const eventSource = "roombook-api"

func buildHandlers(cfg *config.Config, publisher kafka.BookingPublisher) []contracts.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authenticator := middleware.NewAuthenticator(tokens, cfg.Log)

	users := userrepo.NewMongoUserRepository(cfg)
	rooms := roomrepo.NewMongoRoomRepository(cfg)
	bookings := bookingrepo.NewMongoBookingRepository(cfg)
	locker := bookingrepo.NewRedisSlotLocker(cfg.Client.Redis, cfg.BookingLockTTL)

	userSvc := userservice.NewUserService(users, tokens, uservalidator.NewUserValidator(cfg.Log), cfg)
	roomSvc := roomservice.NewRoomService(rooms, bookings, roomvalidator.NewRoomValidator(cfg.Log), cfg)
	bookingSvc := bookingservice.NewBookingService(
		bookings,
		locker,
		roomSvc,
		publisher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)
	statsSvc := adminservice.NewStatsService(users, rooms, bookings, cfg.Log)
	authenticator.WithResolver(userSvc)

	return []contracts.Handler{
		userhandler.NewUserHandler(userSvc, authenticator, cfg.Log),
		roomhandler.NewRoomHandler(roomSvc, authenticator, cfg.Log),
		bookinghandler.NewBookingHandler(bookingSvc, authenticator, cfg.Log),
		adminhandler.NewAdminHandler(statsSvc, authenticator, cfg.Log),
	}
}

// newPublisher falls back to a no-op publisher when Kafka is disabled or
// misconfigured so bookings keep working without a broker.
func newPublisher(cfg *config.Config) kafka.BookingPublisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Error("Invalid Kafka configuration, events disabled", "error", err)
		return kafka.NopPublisher{}
	}
	if !kafkaCfg.Enabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return kafka.NopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log)
	if err != nil {
		cfg.Log.Error("Failed to create Kafka producer, events disabled", "error", err)
		return kafka.NopPublisher{}
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())

	cfg.Log.Info("Kafka producer ready", "brokers", kafkaCfg.Brokers, "topic", kafkaCfg.Topic)
	return kafka.NewEventPublisher(producer, eventSource, kafkaCfg.PublishTimeout)
}
