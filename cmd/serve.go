package cmd

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"reelbook/auth"
	"reelbook/config"
	"reelbook/database"
	"reelbook/handlers"
	"reelbook/media"
	"reelbook/middleware"
	"reelbook/notify"
	"reelbook/routes"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serves the reelbook api",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	fxLog, closeLog := newFxLogger()
	defer closeLog.Close()

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return fxLog }),
		fx.Provide(
			config.Load,
			newMongoClient,
			newMongoDatabase,
			database.NewUserStore,
			database.NewPostStore,
			fx.Annotate(
				database.NewSubscriptionStore,
				fx.As(fx.Self()),
				fx.As(new(notify.SubscriptionStore)),
			),
			newTokenIssuer,
			newUploader,
			newNotifier,
			newLimiter,
			newHandler,
			newRouter,
		),
		fx.Invoke(setupLogging, setupSentry, ensureIndexes, startServer),
	)

	startCtx, cancelStart := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return errors.Wrap(err, "start application")
	}

	sig := <-app.Done()
	logrus.WithField("signal", sig.String()).Info("Shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.Stop(stopCtx)
}

// newFxLogger routes fx events to logrus at debug level. The closer releases
// the pipe logrus reads them from.
func newFxLogger() (*fxevent.ConsoleLogger, io.Closer) {
	w := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	return &fxevent.ConsoleLogger{W: w}, w
}

func setupLogging(cfg *config.Config) {
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil && logrus.GetLevel() < logrus.DebugLevel {
		logrus.SetLevel(level)
	}
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	gin.SetMode(cfg.App.GinMode)
}

func setupSentry(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Sentry.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.App.Env,
	}); err != nil {
		return errors.Wrap(err, "init sentry")
	}
	lc.Append(fx.StopHook(func() {
		sentry.Flush(2 * time.Second)
	}))
	return nil
}

func newMongoClient(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Retries)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() error {
		return database.Disconnect(client)
	}))
	return client, nil
}

func newMongoDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return client.Database(cfg.Mongo.Database)
}

func ensureIndexes(lc fx.Lifecycle, users *database.UserStore, posts *database.PostStore, subs *database.SubscriptionStore) {
	lc.Append(fx.StartHook(func(ctx context.Context) error {
		for _, ensure := range []func(context.Context) error{
			users.EnsureIndexes,
			posts.EnsureIndexes,
			subs.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

func newTokenIssuer(cfg *config.Config) *auth.TokenIssuer {
	return auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
}

func newUploader(cfg *config.Config) (*media.CloudinaryUploader, error) {
	return media.NewCloudinaryUploader(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
}

func newNotifier(cfg *config.Config, subs notify.SubscriptionStore) (*notify.PushNotifier, error) {
	return notify.NewPushNotifier(subs, cfg.Push.PublicKey, cfg.Push.PrivateKey, cfg.Push.Subscriber)
}

// newLimiter shares limits through Redis when REDIS_URL is set and keeps
// them in process memory otherwise.
func newLimiter(lc fx.Lifecycle, cfg *config.Config) (middleware.Limiter, error) {
	if cfg.Redis.URL == "" {
		return middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse REDIS_URL")
	}
	client := redis.NewClient(opts)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logrus.WithError(err).Warn("Redis unreachable, rate limiting fails open until it recovers")
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return middleware.NewRedisRateLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window), nil
}

func newHandler(users *database.UserStore, posts *database.PostStore, tokens *auth.TokenIssuer,
	uploader *media.CloudinaryUploader, notifier *notify.PushNotifier) *handlers.Handler {
	return handlers.New(users, posts, tokens, uploader, notifier)
}

func newRouter(cfg *config.Config, h *handlers.Handler, tokens *auth.TokenIssuer, limiter middleware.Limiter) *gin.Engine {
	return routes.SetupRouter(cfg, h, tokens, limiter)
}

func startServer(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine) {
	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return errors.Wrap(err, "listen")
			}
			logrus.WithField("addr", server.Addr).Info("Server running")
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.WithError(err).Error("Server error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logrus.Info("Shutting down server")
			return server.Shutdown(ctx)
		},
	})
}
