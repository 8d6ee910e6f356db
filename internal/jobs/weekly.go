package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/service"
)

// TenantLister отдаёт арендаторов, которым нужна материализация.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// WeekMaterializer материализует несколько недель подряд.
type WeekMaterializer interface {
	MaterializeAhead(ctx context.Context, tenantID uuid.UUID, from time.Time, weeks int) ([]*service.RunReport, error)
}

// WeeklyMaterialization по расписанию материализует WeeksAhead недель для всех арендаторов.
type WeeklyMaterialization struct {
	tenants      TenantLister
	materializer WeekMaterializer
	log          logger.Logger

	spec       string
	weeksAhead int
	loc        *time.Location
	now        func() time.Time

	cron    *cron.Cron
	entryID cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

func NewWeeklyMaterialization(
	tenants TenantLister,
	materializer WeekMaterializer,
	log logger.Logger,
	spec string,
	weeksAhead int,
	loc *time.Location,
) *WeeklyMaterialization {
	if loc == nil {
		loc = time.UTC
	}
	if weeksAhead < 1 {
		weeksAhead = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	// Стандартный 5-польный парсер: minute hour day month weekday.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		// Один писатель: новый запуск пропускается, пока идёт предыдущий.
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &WeeklyMaterialization{
		tenants:      tenants,
		materializer: materializer,
		log:          log,
		spec:         spec,
		weeksAhead:   weeksAhead,
		loc:          loc,
		now:          time.Now,
		cron:         c,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start регистрирует задачу и запускает cron.
func (w *WeeklyMaterialization) Start() error {
	id, err := w.cron.AddFunc(w.spec, func() {
		if err := w.RunOnce(w.ctx); err != nil {
			w.log.Error("scheduled materialization failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", w.spec, err)
	}
	w.entryID = id
	w.cron.Start()

	w.log.Info("weekly materialization scheduled",
		logger.String("schedule", w.spec),
		logger.Int("weeks_ahead", w.weeksAhead),
		logger.Time("next_run", w.NextRun()),
	)
	return nil
}

// NextRun возвращает время следующего запуска; до Start оно нулевое.
func (w *WeeklyMaterialization) NextRun() time.Time {
	entry := w.cron.Entry(w.entryID)
	if entry.Schedule == nil {
		return time.Time{}
	}
	return entry.Schedule.Next(w.now().In(w.loc))
}

// Stop останавливает cron и дожидается текущего запуска.
func (w *WeeklyMaterialization) Stop() {
	w.cancel()
	<-w.cron.Stop().Done()
	w.log.Info("weekly materialization stopped")
}

// RunOnce материализует недели для всех арендаторов. Сбой одного арендатора
// не останавливает остальных; возвращается ошибка, если упал хотя бы один.
func (w *WeeklyMaterialization) RunOnce(ctx context.Context) error {
	tenantIDs, err := w.tenants.ListTenantIDs(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	from := w.now()
	failed := 0
	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reports, err := w.materializer.MaterializeAhead(ctx, tenantID, from, w.weeksAhead)
		if err != nil {
			failed++
			w.log.Error("tenant materialization failed",
				logger.String("tenant_id", tenantID.String()),
				logger.Int("weeks_done", len(reports)),
				logger.Error(err),
			)
			continue
		}
		created := 0
		for _, r := range reports {
			created += r.Created
		}
		w.log.Info("tenant materialized",
			logger.String("tenant_id", tenantID.String()),
			logger.Int("weeks", len(reports)),
			logger.Int("created", created),
		)
	}

	if failed > 0 {
		return fmt.Errorf("materialization failed for %d of %d tenants", failed, len(tenantIDs))
	}
	return nil
}
