package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/internal/repository"
	"github.com/Koyo-os/survey-service/internal/service"
	"github.com/Koyo-os/survey-service/pkg/closer"
	"github.com/Koyo-os/survey-service/pkg/config"
	"github.com/Koyo-os/survey-service/pkg/health"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"github.com/Koyo-os/survey-service/pkg/retrier"
	"github.com/Koyo-os/survey-service/pkg/transport/casher"
	"github.com/Koyo-os/survey-service/pkg/transport/consumer"
	"github.com/Koyo-os/survey-service/pkg/transport/listener"
	"github.com/Koyo-os/survey-service/pkg/transport/publisher"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logCfg := logger.Config{
		LogFile:   "app.log",
		LogLevel:  "debug",
		AppName:   "survey-service",
		AddCaller: true,
	}

	if err := logger.Init(logCfg); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.Get()

	cfg, err := config.Init("config.yaml")
	if err != nil {
		log.Error("error init config",
			zap.String("path", "config.yaml"),
			zap.Error(err))
		return
	}

	db, err := retrier.Connect(3, 5, func() (*gorm.DB, error) {
		switch cfg.DBDriver {
		case "mysql":
			return gorm.Open(mysql.Open(cfg.Urls.Database), &gorm.Config{})
		default:
			return gorm.Open(sqlite.Open(cfg.Urls.Database), &gorm.Config{})
		}
	})
	if err != nil {
		log.Error("error connect to database", zap.Error(err))
		return
	}

	if err = repository.Migrate(db); err != nil {
		log.Error("error migrate database schema", zap.Error(err))
		return
	}

	redisOpts, err := redis.ParseURL(cfg.Urls.Redis)
	if err != nil {
		log.Error("error parse redis url", zap.Error(err))
		return
	}

	cash := casher.Init(redis.NewClient(redisOpts), log)

	pubConn, err := retrier.Connect(3, 5, func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.Urls.Rabbitmq)
	})
	if err != nil {
		log.Error("error connect to rabbitmq", zap.Error(err))
		return
	}

	pub, err := publisher.Init(cfg, log, pubConn)
	if err != nil {
		log.Error("error init publisher", zap.Error(err))
		return
	}

	consConn, err := retrier.Connect(3, 5, func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.Urls.Rabbitmq)
	})
	if err != nil {
		log.Error("error connect to rabbitmq", zap.Error(err))
		return
	}

	cons, err := consumer.Init(cfg, log, consConn)
	if err != nil {
		log.Error("error init consumer", zap.Error(err))
		return
	}

	requestTypes := []string{
		cfg.Reqs.CreateRequestType,
		cfg.Reqs.UpdateRequestType,
		cfg.Reqs.UpdateStatusRequestType,
		cfg.Reqs.DeleteSurveyRequestType,
		cfg.Reqs.SubmitResponseRequestType,
	}

	for _, requestType := range requestTypes {
		if err = cons.Subscribe(cfg.Exchange.Request, requestType, cfg.Queue.Request); err != nil {
			log.Error("error subscribe to request type",
				zap.String("request_type", requestType),
				zap.Error(err))
			return
		}
	}

	repo := repository.Init(db, log)
	svc := service.Init(cash, repo, pub, log, 5*time.Second)

	events := make(chan entity.Event, 16)
	list := listener.Init(events, log, cfg, svc)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go cons.ConsumeMessages(events)
	go list.Listen(ctx)

	healthChecker := health.NewHealthChecker(log, map[string]health.Healther{
		"database": repo,
		"redis":    cash,
		"rabbitmq": cons,
	})
	go healthChecker.StartHealthCheckServer(cfg.HealthPort)

	log.Info("survey service started")

	<-ctx.Done()

	log.Info("shutting down...")

	closers := closer.NewCloserGroup(cash, pub, cons)
	if err := closers.Close(); err != nil {
		log.Error("error closing components", zap.Error(err))
	}
}
