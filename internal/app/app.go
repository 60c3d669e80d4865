// Package app initializes and runs the tracky HTTP service.
// It configures logging, storage, sessions, mail delivery and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/auth"
	"github.com/patric-chuzhbe/tracky/internal/config"
	"github.com/patric-chuzhbe/tracky/internal/db/memorystorage"
	"github.com/patric-chuzhbe/tracky/internal/db/postgresdb"
	"github.com/patric-chuzhbe/tracky/internal/db/storage"
	"github.com/patric-chuzhbe/tracky/internal/ipchecker"
	"github.com/patric-chuzhbe/tracky/internal/kvstore"
	"github.com/patric-chuzhbe/tracky/internal/logger"
	"github.com/patric-chuzhbe/tracky/internal/mailer"
	"github.com/patric-chuzhbe/tracky/internal/mailqueue"
	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/password"
	"github.com/patric-chuzhbe/tracky/internal/ratelimit"
	"github.com/patric-chuzhbe/tracky/internal/router"
	"github.com/patric-chuzhbe/tracky/internal/service"
	"github.com/patric-chuzhbe/tracky/internal/session"
)

const (
	shutdownTimeout  = 10 * time.Second
	mailSendTimeout  = 30 * time.Second
	rateSweepPeriod  = time.Minute
	mailDrainTimeout = 15 * time.Second
)

// App owns every long-lived component of the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	kv          kvstore.Store
	mailQueue   *mailqueue.MailQueue
	stopMail    context.CancelFunc
	limiter     *ratelimit.Limiter
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting the relational storage and the key-value store
// - starting the background mail queue
// - setting up the router and middleware
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	app.kv, err = getKVStore(app.cfg)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		_ = app.db.Close()
		_ = app.kv.Close()
		return nil, err
	}

	app.mailQueue = mailqueue.New(getMailSender(app.cfg), app.cfg.MailQueueCapacity, mailSendTimeout)
	mailCtx, stopMail := context.WithCancel(context.Background())
	app.stopMail = stopMail
	app.mailQueue.Run(mailCtx)
	app.mailQueue.ListenErrors(func(err error) {
		logger.Log.Errorw("mail delivery failed", "err", err)
	})

	app.limiter = ratelimit.New(app.cfg.AuthRateLimit, app.cfg.AuthRateBurst, checker)

	svc := service.New(
		app.db,
		app.kv,
		password.NewHasher(password.DefaultParams),
		app.mailQueue,
		service.Options{
			ResetTokenPrefix:    app.cfg.ForgetPasswordPrefix,
			ResetTokenTTL:       app.cfg.ResetTokenTTL,
			ResetLinkOrigin:     app.cfg.ResetLinkOrigin,
			MailFrom:            app.cfg.MailFrom,
			ForgotPasswordFloor: app.cfg.ForgotPasswordFloor,
		},
	)

	app.httpHandler = router.New(
		svc,
		auth.New(
			session.NewManager(app.kv, app.cfg.SessionMaxAge),
			[]byte(app.cfg.SessionSecret),
			auth.CookieOptions{
				Name:   app.cfg.CookieName,
				Domain: app.cfg.CookieDomain,
				Secure: app.cfg.SecureCookie,
				MaxAge: app.cfg.SessionMaxAge,
			},
		),
		app.limiter,
		app.cfg.CORSOrigin,
	)

	return app, nil
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	go a.sweepRateLimits(ctx)

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Draining mail queue and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.release()

	case err := <-serverErrCh:
		releaseErr := a.release()
		if errors.Is(err, http.ErrServerClosed) {
			return releaseErr
		}
		return errors.Join(fmt.Errorf("server error: %w", err), releaseErr)
	}
}

// release stops the mail queue, waits for the queued mails and closes the stores.
func (a *App) release() error {
	a.stopMail()
	select {
	case <-a.mailQueue.Done():
	case <-time.After(mailDrainTimeout):
		logger.Log.Warnln("mail queue not drained in time")
	}

	return errors.Join(a.db.Close(), a.kv.Close())
}

func (a *App) sweepRateLimits(ctx context.Context) {
	ticker := time.NewTicker(rateSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.limiter.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)
	}

	logger.Log.Warnln("DATABASE_DSN is not set, data is kept in memory only")

	return memorystorage.New(), nil
}

func getKVStore(cfg *config.Config) (kvstore.Store, error) {
	if cfg.RedisURL == "" {
		logger.Log.Warnln("REDIS_URL is not set, sessions and reset tokens are kept in memory only")
		return kvstore.NewMemory(), nil
	}

	return kvstore.NewRedis(cfg.RedisURL, cfg.StoreTimeout)
}

func getMailSender(cfg *config.Config) mailer.Sender {
	if cfg.SMTPHost == "" {
		logger.Log.Warnln("SMTP_HOST is not set, outgoing mail is only logged")
		return mailer.LogSender{}
	}

	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Timeout:  mailSendTimeout,
	})
}
