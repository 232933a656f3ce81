package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/hookchatio/hookchat/internal/chats"
	"github.com/hookchatio/hookchat/internal/config"
	"github.com/hookchatio/hookchat/internal/db"
	"github.com/hookchatio/hookchat/internal/events"
	"github.com/hookchatio/hookchat/internal/handlers"
	"github.com/hookchatio/hookchat/internal/logger"
	"github.com/hookchatio/hookchat/internal/queue"
	"github.com/hookchatio/hookchat/internal/server"
	"github.com/hookchatio/hookchat/internal/targets"
	"github.com/hookchatio/hookchat/internal/version"
	"github.com/hookchatio/hookchat/internal/webhook"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideHTTPClient,
			provideTargetStore,
			provideChatStore,
			provideQueueStore,
			provideTargetService,
			chats.NewService,
			events.NewHub,
			provideDispatcher,
			provideQueue,
			provideProcessor,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideMessagesHandler),
			provideServerHandler(handlers.NewTargetsHandler),
			provideServerHandler(handlers.NewQueueHandler),
			provideServerHandler(handlers.NewChatsHandler),
			provideServerHandler(provideProxyHandler),
			provideServerHandler(handlers.NewEventsHandler),
			provideServer,
		),
		fx.Invoke(
			wireQueueDelivery,
			startQueueProcessor,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideHTTPClient() *http.Client {
	return &http.Client{}
}

func provideTargetStore(pool *pgxpool.Pool) targets.Store { return targets.NewPGStore(pool) }
func provideChatStore(pool *pgxpool.Pool) chats.Store     { return chats.NewPGStore(pool) }
func provideQueueStore(pool *pgxpool.Pool) queue.Store    { return queue.NewPGStore(pool) }

func provideTargetService(log *slog.Logger, store targets.Store, cfg config.Config) *targets.Service {
	return targets.NewService(log, store, cfg.Webhook.AllowedDomains)
}

func provideDispatcher(log *slog.Logger, client *http.Client, cfg config.Config) *webhook.Dispatcher {
	return webhook.NewDispatcher(log, client, webhook.Defaults{
		URL:                     cfg.Webhook.URL,
		Secret:                  cfg.Webhook.Secret,
		TimeoutMs:               cfg.Webhook.TimeoutMs,
		AllowedDomains:          cfg.Webhook.AllowedDomains,
		UserAgent:               cfg.Webhook.UserAgent,
		ProxyURL:                cfg.Webhook.ProxyURL,
		LocalHost:               publicHost(cfg.Server.PublicURL),
		SkipExternalHealthCheck: cfg.Webhook.SkipExternalHealthCheck,
	})
}

func provideQueue(log *slog.Logger, store queue.Store, dispatcher *webhook.Dispatcher, cfg config.Config) *queue.Queue {
	return queue.New(log, store, dispatcher, cfg.Queue.MaxAttempts)
}

func provideProcessor(log *slog.Logger, q *queue.Queue, cfg config.Config) *queue.Processor {
	tick := time.Duration(cfg.Queue.TickMs) * time.Millisecond
	if tick <= 0 {
		tick = time.Duration(config.DefaultQueueTickMs) * time.Millisecond
	}
	return queue.NewProcessor(log, q, tick)
}

func provideAuthHandler(log *slog.Logger, cfg config.Config) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, cfg)
}

func provideMessagesHandler(log *slog.Logger, dispatcher *webhook.Dispatcher, q *queue.Queue, targetService *targets.Service, chatService *chats.Service, hub *events.Hub) *handlers.MessagesHandler {
	return handlers.NewMessagesHandler(log, dispatcher, q, targetService, chatService, hub)
}

func provideProxyHandler(log *slog.Logger, client *http.Client, targetService *targets.Service, cfg config.Config) *handlers.ProxyHandler {
	return handlers.NewProxyHandler(log, client, targetService, cfg.Webhook.AllowedDomains, cfg.Webhook.TimeoutMs, cfg.Webhook.UserAgent)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers)
}

// wireQueueDelivery turns late queue deliveries into chat records and live
// websocket events, the same path a direct send takes.
func wireQueueDelivery(log *slog.Logger, q *queue.Queue, chatService *chats.Service, hub *events.Hub) {
	q.SetDeliveredFunc(func(entry queue.Entry, result webhook.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		userID := entry.Payload.User.ID
		chatID := entry.Payload.SessionID
		if result.BotMessage != nil {
			msg, err := chatService.Append(ctx, chats.AppendInput{
				ChatID:  chatID,
				Role:    chats.RoleAssistant,
				Content: result.BotMessage.Content,
				Source:  result.BotMessage.Source,
				Status:  chats.StatusSent,
			})
			if err != nil {
				log.Warn("persist queued bot message failed", slog.Any("error", err))
			} else {
				hub.Publish(userID, events.Event{
					Type:    events.TypeBotMessage,
					ChatID:  chatID,
					Payload: msg,
				})
			}
		}
		hub.Publish(userID, events.Event{Type: events.TypeQueueDrained, ChatID: chatID})
	})

	q.SetExhaustedFunc(func(entry queue.Entry) {
		hub.Publish(entry.Payload.User.ID, events.Event{
			Type:    events.TypeDeliveryError,
			ChatID:  entry.Payload.SessionID,
			Payload: map[string]string{"error": entry.LastError},
		})
	})
}

func startQueueProcessor(lc fx.Lifecycle, processor *queue.Processor) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go processor.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting hookchat %s\n", version.Version)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func publicHost(publicURL string) string {
	trimmed := strings.TrimSpace(publicURL)
	if trimmed == "" {
		return ""
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
