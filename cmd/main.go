package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"pylos/internal/adapters"
	"pylos/internal/bootstrap"
	clientsDelivery "pylos/internal/delivery/clients"
	gameDelivery "pylos/internal/delivery/game"
	ownMiddleware "pylos/internal/middleware"
	repo "pylos/internal/repository"
	"pylos/internal/usecase/bot"
	clientsUC "pylos/internal/usecase/clients"
	gameUC "pylos/internal/usecase/game"
)

const healthService = "pylos"

type mainDeliveryHandler struct {
	clients *clientsDelivery.ClientsHandler
	game    *gameDelivery.GameHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.Close(context.Background())

	lobby := gameUC.NewLobby(
		bot.NewEngine(cfg.AiFuel, cfg.AiMoveCap),
		logger,
		gameUC.WithSubscriberBuffer(cfg.SubscriberBuffer),
	)
	handlers := initializeDeliveryHandlers(cfg, logger, lobby, databaseAdapters)

	r := chi.NewRouter()
	handlers.Router(r, cfg.IsLocalCors)

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Server is running on port %s", cfg.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
		if err != nil {
			return err
		}
		logger.Infof("gRPC health service is running on port %s", cfg.GrpcPort)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		healthServer.Shutdown()

		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		lobby.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("server stopped with error", "error", err)
		return
	}
	logger.Info("server stopped")
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/health", h.clients.HandleHealth)
	r.Post("/clients", h.clients.HandleRegister)
	r.Delete("/clients/{clientUUID}", h.clients.HandleUnregister)
	r.Get("/ws/{clientUUID}", h.game.HandleWebsocket)
}

// initDatabaseAdapters connects the stores that are configured. Without REDIS_URL clients are
// kept in memory; without MONGO_URI profiles are not kept at all.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	dbs := &dataBaseAdapters{}

	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to initialize mongo", "error", err)
		}
		dbs.mongoAdapter = mongoAdapter
	}

	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to initialize redis", "error", err)
		}
		dbs.redisAdapter = redisAdapter
	}

	log.Infow("database adapters initialized", "redis", dbs.redisAdapter != nil, "mongo", dbs.mongoAdapter != nil)
	return dbs
}

func (d *dataBaseAdapters) Close(ctx context.Context) {
	if d.mongoAdapter != nil {
		_ = d.mongoAdapter.Close(ctx)
	}
	if d.redisAdapter != nil {
		_ = d.redisAdapter.Close(ctx)
	}
}

func initializeDeliveryHandlers(
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	lobby *gameUC.Lobby,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	var store clientsUC.ClientStore = repo.NewMemoryClientStorage(cfg.ClientTTL())
	if databaseAdapters.redisAdapter != nil {
		store = repo.NewRedisClientStorage(databaseAdapters.redisAdapter.GetClient(), cfg.ClientTTL())
	}
	var profiles clientsUC.ProfileStore
	if databaseAdapters.mongoAdapter != nil {
		profiles = repo.NewMongoProfileStorage(databaseAdapters.mongoAdapter)
	}

	clients := clientsUC.NewClientsUseCase(store, profiles, cfg.PublicWsUrl, log)

	return &mainDeliveryHandler{
		clients: clientsDelivery.NewClientsHandler(clients, log),
		game:    gameDelivery.NewGameHandler(lobby, clients, log),
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
