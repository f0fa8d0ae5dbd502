package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	redisDriver "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"reunion/internal/config"
	"reunion/internal/directory"
	"reunion/internal/events"
	"reunion/internal/handlers/apiserver"
	appKafka "reunion/internal/kafka"
	kafkahandlers "reunion/internal/kafka/handlers"
	"reunion/internal/logging"
	"reunion/internal/metrics"
	appRedis "reunion/internal/redis"
	"reunion/internal/services"
	"reunion/internal/storage"
	ws "reunion/internal/websocket"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("failed to configure logging: %v", err)
	}
	logrus.WithFields(logrus.Fields{"app": cfg.AppName, "version": cfg.AppVersion}).Info("configuration loaded")

	// 2. 初始化数据库连接并迁移表结构
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}
	logrus.WithField("type", cfg.Database.Type).Info("database ready")

	// 3. 初始化 Redis Client
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
	}
	logrus.WithField("addr", cfg.Redis.Addr).Info("connected to redis")

	// 4. 黑名单与通知存储
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	notificationStore := appRedis.NewRedisNotificationStore(redisClient, cfg.Notifications.MaxKept)

	// 5. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	profileRepo := storage.NewGormProfileRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)

	// 6. 初始化事件发布 (Kafka 关闭时丢弃事件)
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			logrus.Fatalf("failed to create kafka producer: %v", err)
		}
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.RelationshipTopic)
		logrus.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.RelationshipTopic,
		}).Info("kafka producer ready")
	} else {
		logrus.Warn("kafka disabled, relationship events will not be published")
	}

	// 7. 初始化 Services
	authService := services.NewAuthService(userRepo, tokenBlacklist, cfg)
	userService := services.NewUserService(userRepo)
	relationshipService := services.NewRelationshipService(db, userRepo, friendReqRepo, friendshipRepo, publisher)
	profileService := services.NewProfileService(profileRepo)
	searcher := directory.NewSearcher(profileRepo, cfg.Search.FuzzyThreshold)

	// 8. 设置 HTTP 路由，启动实时通知 Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	metrics.Register(nil)
	router := apiserver.NewRouter(apiserver.RouterDeps{
		JWTSecret:     cfg.Auth.JWTSecretKey,
		Blacklist:     tokenBlacklist,
		Auth:          authService,
		Users:         userService,
		Relationships: relationshipService,
		Profiles:      profileService,
		Searcher:      searcher,
		Notifications: notificationStore,
		Hub:           hub,
		WebSocket:     cfg.WebSocket,
	})

	// 9. 启动 Kafka 消费者，将关系事件写入通知
	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()
	var consumers sync.WaitGroup

	if cfg.Kafka.Enabled {
		consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
		if err != nil {
			logrus.Fatalf("failed to create kafka consumer: %v", err)
		}
		defer consumer.Close()

		eventHandler := kafkahandlers.NewRelationshipEventHandler(notificationStore, hub)
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			topics := []string{cfg.Kafka.RelationshipTopic}
			logrus.WithFields(logrus.Fields{
				"topic": cfg.Kafka.RelationshipTopic,
				"group": cfg.Kafka.ConsumerGroup,
			}).Info("relationship event consumer started")
			err := consumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup, eventHandler.Handle)
			if err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("relationship event consumer stopped with error")
			}
			logrus.Info("relationship event consumer stopped")
		}()
	}

	// 10. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      apiserver.WithCORS(cfg.APIServer.CORS, router),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  cfg.APIServer.IdleTimeout,
	}

	go func() {
		logrus.WithField("addr", serverAddr).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutdown signal received")

	cancelConsumers()
	consumers.Wait()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logrus.Errorf("API server forced to shut down: %v", err)
	}
	stopHub()
	logrus.Info("API server stopped")
}
