package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"goban/internal/adapters"
	"goban/internal/bootstrap"
	gameDelivery "goban/internal/delivery/game"
	"goban/internal/gtp"
	ownMiddleware "goban/internal/middleware"
	repo "goban/internal/repository"
	"goban/internal/session"
	gameUsecase "goban/internal/usecase/game"
)

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, *cfg)
	defer databaseAdapters.mongoAdapter.Close(ctx)
	defer databaseAdapters.redisAdapter.Close(ctx)

	hub := gameDelivery.NewHub(logger)

	engineFactory := func() (session.BotEngine, error) {
		maxThink := time.Duration(cfg.EngineMaxThinkSec * float64(time.Second))
		return gtp.NewClient(logger, cfg.EngineBinary, strings.Fields(cfg.EngineArgs), cfg.EngineRestartLimit, maxThink)
	}
	registry := session.NewRegistry(
		logger,
		hub,
		time.Duration(cfg.DisconnectGraceSec)*time.Second,
		engineFactory,
	)
	go registry.Run(ctx)

	sgfStore := repo.NewRedisSGFStore(databaseAdapters.redisAdapter.GetClient())
	archive := repo.NewMongoArchive(*cfg, logger, databaseAdapters.mongoAdapter.Database)
	gameUC := gameUsecase.NewGameUseCase(*cfg, logger, registry, sgfStore, archive)

	// Партия обновляет SGF-кэш после каждого хода и по завершении.
	hub.SetObserver(func(sessionID string, event session.Event) {
		switch event.Type {
		case session.EventMoveMade, session.EventUndoPerformed, session.EventGameFinished:
			gameUC.RefreshSGF(sessionID)
		}
	})

	r := chi.NewRouter()
	gameHandler := gameDelivery.NewGameHandler(*cfg, logger, gameUC, hub)
	router(r, gameHandler, cfg.IsLocalCors)

	port := ":" + cfg.ServerPort
	logger.Infof("Server is running on port %s", port)
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func router(r *chi.Mux, h *gameDelivery.GameHandler, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/NewGame", h.HandleNewGame)
	r.Post("/JoinGame", h.HandleJoinGame)
	r.Get("/startGame", h.HandleStartGame)
	r.Post("/getGameById", h.GetGameById)
	r.Get("/sgf", h.HandleGetSGF)
	r.Get("/archive", h.HandleArchiveList)
	r.Get("/archive/{gameID}", h.HandleArchiveByID)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(&cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatal("Не удалось инициализировать MongoDB", zap.Error(err))
	}

	redisAdapter := adapters.NewAdapterRedis(&cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatal("Не удалось инициализировать Redis", zap.Error(err))
	}

	log.Info("Адаптеры баз данных инициализированы")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
	time.Sleep(1 * time.Second) // дать время закрыть соединения
}
