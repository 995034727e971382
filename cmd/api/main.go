package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	"github.com/redis/go-redis/v9"
)

const (
	appVersion      = "v1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", "payroll-cmlabs"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, tx, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := newDeliveryLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payrollSvc := payrollService.NewPayrollService(repos, tx, locker, logger)

	scheduler := cron.NewScheduler(logger)
	cron.NewPayrollJobs(payrollSvc, cfg.Payroll.DueSummaryInterval, logger).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		Version:        appVersion,
		LogLevel:       cfg.SlogLevel(),
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	}, JWTService, payrollHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", server.Addr, "storage", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// openStore returns the repositories and transaction manager for the
// configured storage driver.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (payrollService.Repositories, payroll.Transactor, func(), error) {
	if cfg.Database.Driver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		if cfg.Database.Seed {
			store.Seed(time.Now().UTC())
			logger.Info("Seeded in-memory storage with demo employees")
		}
		return payrollService.Repositories{
			Employee:   store.Employees(),
			Attendance: store.Attendance(),
			Leave:      store.LeaveRequests(),
			Bonus:      store.Bonuses(),
			Deduction:  store.Deductions(),
			Advance:    store.SalaryAdvances(),
			Payment:    store.Payments(),
		}, store, func() {}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.DefaultPoolConfig)
	if err != nil {
		return payrollService.Repositories{}, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	return payrollService.Repositories{
		Employee:   postgresql.NewEmployeeRepository(db),
		Attendance: postgresql.NewAttendanceRepository(db),
		Leave:      postgresql.NewLeaveRequestRepository(db),
		Bonus:      postgresql.NewBonusRepository(db),
		Deduction:  postgresql.NewDeductionRepository(db),
		Advance:    postgresql.NewSalaryAdvanceRepository(db),
		Payment:    postgresql.NewPaymentRepository(db),
	}, postgresql.NewTransactionManager(db), db.Close, nil
}

// newDeliveryLocker uses Redis when REDIS_ADDR is set so that several API
// instances never settle the same ledger key at once.
func newDeliveryLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lock.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		return lock.NewKeyedMutex(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("Delivery lock backed by redis",
		"addr", cfg.Redis.Addr,
		"ttl", cfg.Payroll.DeliveryLockTTL,
		"retries", cfg.Payroll.DeliveryLockRetries,
	)

	locker := lock.NewRedisLocker(client, cfg.Payroll.DeliveryLockTTL,
		lock.WithPrefix(cfg.Redis.LockPrefix),
		lock.WithRetry(cfg.Payroll.DeliveryLockRetries, cfg.Payroll.DeliveryLockRetryWait),
	)
	return locker, func() { _ = client.Close() }, nil
}
