package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/voxelworld/internal/api"
	"github.com/annel0/voxelworld/internal/app"
	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxFrame ограничивает шаг тика после долгой паузы (GC, отладчик)
const maxFrame = 250 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	logging.LogDir = cfg.Logging.Dir
	logging.ConsoleLevel = logging.ParseLevel(cfg.Logging.Level)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🧱 Запуск Voxel World Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

func run(ctx context.Context, cfg *config.Config) error {
	// === ТРАССИРОВКА ===
	if cfg.Server.Telemetry {
		shutdown, err := observability.InitTelemetry(ctx, "voxelworld")
		if err != nil {
			logging.Warn("OpenTelemetry недоступен, трассировка выключена: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	worldMetrics := observability.NewWorldMetrics(reg)

	// === ХРАНИЛИЩЕ ===
	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("хранилище %s: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error("Ошибка закрытия хранилища: %v", err)
		}
	}()
	logging.Info("💾 Хранилище сохранений: %s", cfg.Storage.Backend)

	// === ШИНА СОБЫТИЙ ===
	bus, err := eventbus.Open(cfg.Events)
	if err != nil {
		return fmt.Errorf("шина событий %s: %w", cfg.Events.Backend, err)
	}
	if bus != nil {
		defer bus.Close()

		if _, err := eventbus.StartLoggingListener(bus, logging.GetEventsLogger()); err != nil {
			logging.Warn("LoggingListener не запущен: %v", err)
		}
		exporter := eventbus.NewMetricsExporter(bus, reg)
		exporter.Start()
		defer exporter.Stop()
		logging.Info("📨 Шина событий: %s", cfg.Events.Backend)
	}

	// === СЕССИЯ МИРА ===
	session, err := app.NewSession(app.Options{
		World:   cfg.WorldOptions(),
		Params:  cfg.Generation,
		Physics: cfg.Physics,
		Player:  cfg.Player.PlayerOptions,
		Spawn:   cfg.Player.SpawnPoint(),
		Saves:   storage.NewWorldStorage(kv, cfg.Storage.Key),
		Metrics: worldMetrics,
		Events:  bus,
	})
	if err != nil {
		return fmt.Errorf("создание мира: %w", err)
	}
	defer session.Close()

	var wg sync.WaitGroup
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runTicks(tickCtx, session, cfg.Server.TickRate)
	}()

	// === HTTP ===
	restAddr := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	restServer := api.NewRestServer(api.Config{
		Port:     restAddr,
		World:    session,
		Registry: reg,
	})

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- restServer.Start()
	}()
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restAddr)
	logging.Info("   ⏱  Тик: %.0f Гц, физика: %.0f Гц", cfg.Server.TickRate, cfg.Physics.SimulationRate)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаемся...")
	case runErr = <-errCh:
		if runErr != nil {
			runErr = fmt.Errorf("HTTP сервер: %w", runErr)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logging.Debug("Остановка REST API...")
	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}

	logging.Debug("Остановка игрового цикла...")
	stopTicks()
	wg.Wait()

	return runErr
}

// runTicks продвигает мир с частотой rate до отмены ctx
func runTicks(ctx context.Context, session *app.Session, rate float64) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			frame := now.Sub(last)
			if frame > maxFrame {
				frame = maxFrame
			}
			last = now
			session.Tick(frame.Seconds())
		}
	}
}
