package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	schedulingpb "github.com/Leganyst/route-planner/internal/api/scheduling/v1"
	"github.com/Leganyst/route-planner/internal/config"
	"github.com/Leganyst/route-planner/internal/db"
	"github.com/Leganyst/route-planner/internal/httpadmin"
	"github.com/Leganyst/route-planner/internal/jobs"
	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/metrics"
	"github.com/Leganyst/route-planner/internal/model"
	"github.com/Leganyst/route-planner/internal/repository"
	"github.com/Leganyst/route-planner/internal/service"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("route-planner: %v", err)
	}
}

func run() error {
	// 1. Конфиг: defaults, YAML, env.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	appLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = appLog.Sync() }()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return err
	}
	startMinute, err := cfg.Scheduler.DefaultStartMinute()
	if err != nil {
		return err
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 4. Метрики.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Репозитории (реализации на GORM).
	templateRepo := repository.NewGormTemplateRepository(gormDB)
	poolRepo := repository.NewGormPoolRepository(gormDB)
	visitRepo := repository.NewGormVisitRepository(gormDB)
	technicianRepo := repository.NewGormTechnicianRepository(gormDB)
	runRepo := repository.NewGormRunRepository(gormDB)

	// 6. Сервисы планирования.
	materializer := service.NewMaterializer(templateRepo, poolRepo, visitRepo, runRepo, appLog, m, loc, startMinute)
	rescheduler := service.NewRescheduler(visitRepo, appLog, m, cfg.Scheduler.BatchConcurrency)
	planning := service.NewPlanningService(visitRepo, technicianRepo, loc)

	// 7. gRPC-сервер.
	grpcServer := grpc.NewServer()
	schedulingpb.RegisterSchedulingServiceServer(grpcServer, service.NewSchedulingServer(materializer, rescheduler, planning, appLog, loc))
	// Дескриптора .proto нет: рефлексия только перечисляет сервисы, describe недоступен.
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}
	go func() {
		appLog.Info("grpc server listening", logger.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			appLog.Error("grpc serve", logger.Error(err))
		}
	}()

	// 8. Админка: health, метрики, отчёты запусков.
	admin := httpadmin.NewServer(cfg.Server.AdminAddr, httpadmin.NewRouter(httpadmin.Options{
		Version:  version,
		Ping:     sqlDB.PingContext,
		Runs:     runRepo,
		Gatherer: reg,
		Log:      appLog,
	}), appLog)
	admin.Start()

	// 9. Еженедельная материализация по cron.
	var weekly *jobs.WeeklyMaterialization
	if cfg.Scheduler.CronEnabled {
		weekly = jobs.NewWeeklyMaterialization(templateRepo, materializer, appLog, cfg.Scheduler.Cron, cfg.Scheduler.WeeksAhead, loc)
		if err := weekly.Start(); err != nil {
			return fmt.Errorf("start weekly materialization: %w", err)
		}
	}

	// 10. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	appLog.Info("shutting down")
	if weekly != nil {
		weekly.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := admin.Shutdown(ctx); err != nil {
		appLog.Warn("admin http shutdown", logger.Error(err))
	}
	grpcServer.GracefulStop()
	return nil
}
