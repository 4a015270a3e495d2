package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/cancel_booking"
	cancelHoldHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/cancel_hold"
	commitBookingHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/commit_booking"
	getCalendarHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/get_calendar"
	moveBookingHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/move_booking"
	placeHoldHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/place_hold"
	updateSlotHandler "github.com/m04kA/SMC-SlotService/internal/api/handlers/update_slot"
	"github.com/m04kA/SMC-SlotService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotService/internal/config"
	"github.com/m04kA/SMC-SlotService/internal/coordinator"
	"github.com/m04kA/SMC-SlotService/internal/generator"
	appointmentRepo "github.com/m04kA/SMC-SlotService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/SMC-SlotService/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-SlotService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SlotService/internal/integrations/eventhooks"
	"github.com/m04kA/SMC-SlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotService/pkg/logger"
	"github.com/m04kA/SMC-SlotService/pkg/metrics"
	"github.com/m04kA/SMC-SlotService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-SlotService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SlotService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем репозитории и transaction manager (с метриками или без)
	var (
		slots        *slotRepo.Repository
		schedules    *scheduleRepo.Repository
		appointments *appointmentRepo.Repository
		txMgr        coordinator.TransactionManager
	)

	if cfg.Metrics.Enabled {
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		slots = slotRepo.NewRepository(wrappedDB)
		schedules = scheduleRepo.NewRepository(wrappedDB)
		appointments = appointmentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		slots = slotRepo.NewRepository(db)
		schedules = scheduleRepo.NewRepository(db)
		appointments = appointmentRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Генератор слотов из недельных шаблонов
	slotGenerator := generator.New(schedules, schedules, schedules, slots, log)

	// Координатор бронирований
	coordinatorOpts := []coordinator.Option{
		coordinator.WithHoldTTL(time.Duration(cfg.Holds.TTLSeconds) * time.Second),
	}
	if cfg.Metrics.Enabled {
		coordinatorOpts = append(coordinatorOpts, coordinator.WithMetrics(metricsCollector))
	}
	if cfg.EventHooks.Enabled {
		hooksClient := eventhooks.NewClient(
			cfg.EventHooks.URL,
			time.Duration(cfg.EventHooks.Timeout)*time.Second,
			log,
		)
		coordinatorOpts = append(coordinatorOpts, coordinator.WithListenerHooks(hooksClient))
		log.Info("Event hooks client initialized (url=%s timeout=%ds)",
			cfg.EventHooks.URL, cfg.EventHooks.Timeout)
	}

	slotCoordinator := coordinator.New(slots, appointments, slotGenerator, txMgr, log, coordinatorOpts...)

	// Инициализируем handlers
	getCalendar := getCalendarHandler.NewHandler(slotGenerator, log)
	placeHold := placeHoldHandler.NewHandler(slotCoordinator, log)
	cancelHold := cancelHoldHandler.NewHandler(slotCoordinator, log)
	commitBooking := commitBookingHandler.NewHandler(slotCoordinator, log)
	cancelBooking := cancelBookingHandler.NewHandler(slotCoordinator, log)
	moveBooking := moveBookingHandler.NewHandler(slotCoordinator, log)
	updateSlot := updateSlotHandler.NewHandler(slotCoordinator, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Календарь слотов формы (минимальный либо агрегированный по seats)
	api.HandleFunc("/forms/{formId}/calendar", getCalendar.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Удержания мест ---
	protected.HandleFunc("/holds", placeHold.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/slots/{slotId}/hold", cancelHold.Handle).Methods(http.MethodDelete)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", commitBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/release", cancelBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/move", moveBooking.Handle).Methods(http.MethodPost)

	// --- Административные правки слотов ---
	protected.HandleFunc("/slots", updateSlot.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
