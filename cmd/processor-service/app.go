package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"caseflow/internal/audit"
	"caseflow/internal/auth"
	"caseflow/internal/caseclient"
	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/exceptionrecord"
	"caseflow/internal/logger"
	"caseflow/internal/notify"
	"caseflow/internal/payments"
	"caseflow/internal/processor"
	"caseflow/internal/routing"
	"caseflow/internal/transform"
	"caseflow/pkg/bootstrap"
	"caseflow/pkg/circuitbreaker"
	"caseflow/pkg/health"
	"caseflow/pkg/metrics"
	"caseflow/pkg/migrations"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client
	processor   *processor.Processor
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("processor-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.InitBroker("processor-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := a.initPipeline(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	metrics.RegisterProcessorMetrics()
	metrics.RegisterPaymentMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	a.initHTTPServer()
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.Config.Database.RunMigrations {
		if err := migrations.RunPostgres(a.db, a.Config.Database.Postgres.DBName); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		a.Logger.WarnwCtx(ctx, "Redis unavailable, auth tokens will be leased per call",
			"error", err,
		)
	} else {
		a.redisClient = redisClient
	}

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		a.Logger.WarnwCtx(ctx, "MongoDB unavailable, envelope audit trail disabled",
			"error", err,
		)
	} else {
		a.mongoClient = mongoClient
	}

	return nil
}

func (a *App) initPipeline(_ context.Context) error {
	var tokens auth.TokenProvider = auth.NewHTTPProvider(a.Config.Clients.Auth)
	if a.redisClient != nil {
		tokens = auth.NewCachedProvider(tokens, a.redisClient, a.Config.Clients.Auth.TokenTTLSeconds, a.Logger)
	}

	cases := caseclient.NewHTTPClient(a.Config.Clients.CaseAPI, tokens, a.breaker("case-api"), a.Logger)
	transformer := transform.NewHTTPClient(a.Config.Clients.Transform, a.breaker("transform"))
	paymentProcessor := payments.NewHTTPProcessorClient(a.Config.Clients.PaymentProcessor, a.breaker("payment-processor"))

	paymentService := payments.NewService(payments.NewRepository(a.db), paymentProcessor, a.Logger)
	creator := exceptionrecord.NewCreator(cases, &a.Config.Processing, a.Logger)

	router := routing.NewRouter(routing.NewHandlers(
		cases, transformer, creator, paymentService, a.Config.Processing, a.Logger,
	)...)

	notifier := notify.NewKafkaNotifier(a.Producer, a.Config.Broker.Kafka.ProcessedTopic)

	var auditRepo audit.Repository
	if a.mongoClient != nil {
		auditRepo = audit.NewRepository(a.mongoClient.Database(a.Config.Database.MongoDB.Database))
	}

	a.processor = processor.New(router, notifier, auditRepo, a.Config.Processing, a.Logger)
	return nil
}

// breaker builds a named circuit breaker when breakers are enabled, nil
// otherwise (clients treat nil as pass-through).
func (a *App) breaker(name string) *circuitbreaker.Wrapper {
	if !a.Config.CircuitBreaker.Enabled {
		return nil
	}
	cfg := circuitbreaker.DefaultConfig(name)
	if a.Config.CircuitBreaker.MaxRequests > 0 {
		cfg.MaxRequests = a.Config.CircuitBreaker.MaxRequests
	}
	if a.Config.CircuitBreaker.Interval > 0 {
		cfg.Interval = a.Config.CircuitBreaker.Interval
	}
	if a.Config.CircuitBreaker.Timeout > 0 {
		cfg.Timeout = a.Config.CircuitBreaker.Timeout
	}
	return circuitbreaker.NewWrapper(cfg)
}

func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
		// Unblock ListenAndServe when the consumer dies or the parent context
		// is canceled, otherwise g.Wait never returns.
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	envelopeTopic := a.Config.Broker.Kafka.EnvelopeTopic
	g.Go(func() error {
		a.Logger.InfowCtx(gCtx, "Starting envelope consumer", "topic", envelopeTopic)
		return a.Consumer.Consume(gCtx, envelopeTopic, a.processor.Process)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.InfowCtx(ctx, "Shutting down processor service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
