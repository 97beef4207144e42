package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/edutoken/internal/handler"
	"github.com/jmerrifield20/edutoken/internal/health"
	"github.com/jmerrifield20/edutoken/internal/identity"
	"github.com/jmerrifield20/edutoken/internal/journal"
	"github.com/jmerrifield20/edutoken/internal/session"
	"github.com/jmerrifield20/edutoken/internal/token"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("tokend exited with error", zap.Error(err))
	}
}

// demoTransfers are applied from the creator at startup when token.seed_demo is set.
var demoTransfers = []struct {
	to     string
	amount int64
}{
	{"user1", 50000},
	{"user2", 25000},
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("tokend")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("token.name", "EduCoin")
	viper.SetDefault("token.symbol", "EDU")
	viper.SetDefault("token.initial_supply", 1000000)
	viper.SetDefault("token.creator", "admin")
	viper.SetDefault("token.seed_demo", true)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("session.secret", "")
	viper.SetDefault("session.ttl", "12h")
	viper.SetDefault("feed.size", session.DefaultFeedSize)
	viper.SetDefault("refresh.interval", "30s")
	viper.SetDefault("journal.database_url", "")
	viper.SetDefault("health.interval", "1m")
	viper.SetDefault("health.fail_threshold", 3)

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Ledger ───────────────────────────────────────────────────────────────
	ledger, err := token.New(
		viper.GetString("token.name"),
		viper.GetString("token.symbol"),
		viper.GetInt64("token.initial_supply"),
		viper.GetString("token.creator"),
	)
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	logger.Info("token created",
		zap.String("name", ledger.Name()),
		zap.String("symbol", ledger.Symbol()),
		zap.Int64("supply", ledger.TotalSupply()),
		zap.String("creator", ledger.CreatorID()),
	)

	// ── Journal ──────────────────────────────────────────────────────────────
	var j journal.Journal
	if dsn := viper.GetString("journal.database_url"); dsn != "" {
		db, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		pj := journal.NewPostgres(db, logger)
		if err := pj.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("journal schema: %w", err)
		}
		j = pj
		logger.Info("journal: postgres")
	} else {
		j = journal.NewMemory()
		logger.Info("journal: memory (set journal.database_url to persist)")
	}

	if err := j.Verify(ctx); err != nil {
		logger.Warn("journal integrity check FAILED", zap.Error(err))
	} else {
		n, _ := j.Len(ctx)
		root, _ := j.Root(ctx)
		logger.Info("journal verified", zap.Int("entries", n), zap.String("root", root))
	}

	// ── Controller + sessions ────────────────────────────────────────────────
	ctrl := session.NewController(ledger, j, logger)
	ctrl.SetMetricsRecorder(handler.RecordOperation)
	ctrl.SetFeedSize(viper.GetInt("feed.size"))

	if viper.GetBool("token.seed_demo") {
		if err := seedDemo(ctx, ctrl, logger); err != nil {
			return err
		}
	}

	sessionTTL, err := time.ParseDuration(viper.GetString("session.ttl"))
	if err != nil {
		return fmt.Errorf("parse session.ttl: %w", err)
	}
	var secret []byte
	if s := viper.GetString("session.secret"); s != "" {
		secret = []byte(s)
	} else {
		logger.Warn("session.secret not set; using a random key, tokens will not survive a restart")
	}
	tokens, err := identity.NewSessionTokenIssuer(secret, "tokend", sessionTTL)
	if err != nil {
		return fmt.Errorf("session tokens: %w", err)
	}

	// ── Integrity probes ─────────────────────────────────────────────────────
	checkInterval, err := time.ParseDuration(viper.GetString("health.interval"))
	if err != nil {
		return fmt.Errorf("parse health.interval: %w", err)
	}
	checker := health.New(
		[]health.Probe{health.LedgerProbe(ledger), health.JournalProbe(j), health.MirrorProbe(ctrl)},
		health.Config{CheckInterval: checkInterval, FailThreshold: viper.GetInt("health.fail_threshold")},
		logger,
	)
	checker.SetMetricsRecord(handler.RecordIntegrityCheck)
	checker.CheckAll(ctx)
	go checker.Start(ctx)

	tokenHandler := handler.NewTokenHandler(ctrl, tokens, logger)
	journalHandler := handler.NewJournalHandler(ctrl, logger)

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	if rps := viper.GetInt("server.rate_limit_rps"); rps > 0 {
		router.Use(handler.RateLimiter(ctx, rps, rps*2))
	}

	router.Use(handler.PrometheusMiddleware())
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", handler.ReadyHandler(checker))
	router.GET("/metrics", handler.MetricsHandler())

	v1 := router.Group("/api/v1")
	tokenHandler.Register(v1)
	journalHandler.Register(v1)

	// ── Background: refresh gauges ───────────────────────────────────────────
	refresh, err := time.ParseDuration(viper.GetString("refresh.interval"))
	if err != nil || refresh <= 0 {
		return fmt.Errorf("refresh.interval must be a positive duration, got %q", viper.GetString("refresh.interval"))
	}
	publishGauges(ctx, ctrl, j, logger)
	go func() {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				publishGauges(ctx, ctrl, j, logger)
			case <-ctx.Done():
				return
			}
		}
	}()

	port := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("tokend HTTP listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutting down tokend...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("tokend stopped")
	return nil
}

// seedDemo hands out the demo balances from the creator through the
// controller so the transactions reach the journal too.
func seedDemo(ctx context.Context, ctrl *session.Controller, logger *zap.Logger) error {
	creator := ctrl.Resume(ctrl.Ledger().CreatorID())
	for _, d := range demoTransfers {
		out, err := ctrl.Transfer(ctx, creator, d.to, strconv.FormatInt(d.amount, 10))
		if err != nil {
			return fmt.Errorf("seed transfer to %s: %w", d.to, err)
		}
		if !out.Result.Success {
			logger.Warn("seed transfer skipped", zap.String("to", d.to), zap.String("reason", out.Result.Message))
		}
	}
	logger.Info("demo balances seeded", zap.Int("transfers", len(demoTransfers)))
	return nil
}

func publishGauges(ctx context.Context, ctrl *session.Controller, j journal.Journal, logger *zap.Logger) {
	n, err := j.Len(ctx)
	if err != nil {
		logger.Warn("journal length", zap.Error(err))
	}
	handler.SetLedgerGauges(ctrl.Ledger().Info(), n)
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
