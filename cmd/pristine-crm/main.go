package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/common/logger"
	"github.com/Pristinepartners/pristine-crm-sub000/common/mqtt"
	rediscommon "github.com/Pristinepartners/pristine-crm-sub000/common/redis"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/automation"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/config"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/consumer"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	httpapi "github.com/Pristinepartners/pristine-crm-sub000/internal/http"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/migrations"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "pristine-crm")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB 不可用时回退到内存 repo，便于本地联调
	var db *sql.DB
	repos := repository.NewMemoryRepos()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			if n, err := migrations.Migrate(ctx, d); err != nil {
				log.Warn("Schema migration failed, falling back to memory repos", zap.Error(err))
				_ = database.Close(d)
			} else {
				db = d
				repos = repository.NewPostgresRepos(db)
				log.Info("DB enabled for pristine-crm", zap.Int("schema_statements", n))
			}
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		defer database.Close(db)
	}

	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	var publisher events.Publisher = events.Nop{}
	rc := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(ctx, rc); err != nil {
		log.Warn("Redis unavailable, import previews kept in memory and events disabled", zap.Error(err))
		_ = rediscommon.Close(rc)
	} else {
		redisClient = rc
		defer rediscommon.Close(redisClient)
		kv = store.NewRedisKV(redisClient)
		if cfg.Events.Enabled {
			publisher = events.NewRedisPublisher(redisClient, cfg.Events.Stream)
		}
	}

	// notifier 保持接口类型，未启用时为 nil
	var notifier mqtt.Publisher
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT connection failed, notify actions disabled", zap.Error(err))
		} else {
			notifier = client
			defer client.Disconnect()
		}
	}

	if cfg.Events.Enabled && redisClient != nil {
		runner := automation.NewRunner(repos.Automations, repos.Tasks, notifier, automation.Options{
			WebhookTimeout: cfg.WebhookTimeout(),
			WebhookRetries: cfg.Webhook.Retries,
			TopicPrefix:    cfg.MQTT.TopicPrefix,
			QoS:            cfg.MQTT.QoS,
		}, log)
		c := consumer.NewAutomationConsumer(redisClient, runner, consumer.Options{
			Stream:       cfg.Events.Stream,
			GroupName:    cfg.Events.ConsumerGroup,
			ConsumerName: cfg.Events.ConsumerName,
			BatchSize:    10,
			Block:        2 * time.Second,
			PollInterval: 200 * time.Millisecond,
		}, log)
		go func() {
			if err := c.Start(ctx); err != nil {
				log.Error("Automation consumer exited", zap.Error(err))
			}
		}()
	}

	svcs := service.NewServices(repos, kv, publisher, cfg.PreviewTTL(), log)

	health := httpapi.NewHealthHandler(log)
	if db != nil {
		health.AddCheck("postgres", db.PingContext)
	}
	if redisClient != nil {
		health.AddCheck("redis", func(ctx context.Context) error {
			return rediscommon.Ping(ctx, redisClient)
		})
	}

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(health)
	router.RegisterServices(svcs)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
