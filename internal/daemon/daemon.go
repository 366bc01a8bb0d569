package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/robotrecruit/rewards/internal/api"
	"github.com/robotrecruit/rewards/internal/app/challenge"
	"github.com/robotrecruit/rewards/internal/app/entitlement"
	"github.com/robotrecruit/rewards/internal/app/notify"
	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/app/referral"
	"github.com/robotrecruit/rewards/internal/app/reward"
	"github.com/robotrecruit/rewards/internal/app/streak"
	"github.com/robotrecruit/rewards/internal/infra/leaderboard"
	_ "github.com/robotrecruit/rewards/internal/infra/metrics" // Register Prometheus metrics
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Daemon is the core rewards runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Instance string // unique per process, tags every log line
	Log      *logrus.Logger
	DB       *sqlite.DB
	Server   *api.Server
	cancel   context.CancelFunc

	Entitlements  *entitlement.Service
	PowerUps      *powerup.Service
	Streaks       *streak.Service
	Referrals     *referral.Service
	Wheel         *reward.Wheel
	Slots         *reward.Slots
	Challenges    *challenge.Service
	Notifications *notify.Service
	Board         leaderboard.Board
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	log := newLogger(cfg.Logging)

	dataDir := cfg.Data.Dir
	if dataDir == "" {
		dataDir = rewardsHome()
	}
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Leaderboard backend: Redis when configured, in-process otherwise.
	var board leaderboard.Board
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rb, err := leaderboard.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			log.WithError(err).Warn("redis unreachable, using in-process leaderboard")
			board = leaderboard.NewMemory()
		} else {
			board = rb
		}
	} else {
		board = leaderboard.NewMemory()
	}

	notifications := notify.NewService(db, log)
	powerups := powerup.NewService(db)
	ents := entitlement.NewService(db, notifications)
	streaks := streak.NewService(db, powerups, notifications)
	referrals := referral.NewService(db, powerups, notifications, log)
	challenges := challenge.NewService(db, powerups, notifications, nil)
	wheel := reward.NewWheel(db, powerups, streaks, notifications, nil)
	slots := reward.NewSlots(db, board, notifications, log, nil)

	srv := api.NewServer(ents, powerups, streaks, referrals, wheel, slots, challenges, notifications)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:        cfg,
		Instance:      uuid.NewString(),
		Log:           log,
		DB:            db,
		Server:        srv,
		Entitlements:  ents,
		PowerUps:      powerups,
		Streaks:       streaks,
		Referrals:     referrals,
		Wheel:         wheel,
		Slots:         slots,
		Challenges:    challenges,
		Notifications: notifications,
		Board:         board,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	d.Log.WithFields(logrus.Fields{
		"addr":     addr,
		"instance": d.Instance,
	}).Info("rewards engine serving")
	if d.Config.Telemetry.Prometheus {
		d.Log.Infof("metrics: http://%s/metrics", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// newLogger builds the daemon logger from config.
func newLogger(cfg LoggingConfig) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
