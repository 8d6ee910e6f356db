package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/metrics"
	"github.com/Leganyst/route-planner/internal/model"
	"github.com/Leganyst/route-planner/internal/recurrence"
	"github.com/Leganyst/route-planner/internal/repository"
)

// SkipReason — почему маршрут не дал визитов в неделе.
type SkipReason string

const (
	SkipNoActiveSeason SkipReason = "no_active_season"
	SkipNoOccurrence   SkipReason = "no_occurrence"
	SkipNoPools        SkipReason = "no_pools"

	// Ошибки, изолированные в пределах одного маршрута.
	SkipInvalidConfiguration SkipReason = "invalid_configuration"
	SkipStorageError         SkipReason = "storage_error"
)

const minutesPerDay = 24 * 60

type TemplateSkip struct {
	TemplateID uuid.UUID  `json:"template_id"`
	Name       string     `json:"name"`
	Reason     SkipReason `json:"reason"`
	Detail     string     `json:"detail,omitempty"`
}

// RunReport — итог материализации одной недели одного арендатора.
type RunReport struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	WeekStart time.Time `json:"week_start"`

	Created  int `json:"created"`
	Existing int `json:"existing"`

	// Skipped — маршруты без вхождения в неделе; это штатная ситуация.
	Skipped []TemplateSkip `json:"skipped"`
	// Failed — маршруты, обработка которых упала; остальные маршруты обработаны.
	Failed   []TemplateSkip `json:"failed"`
	Warnings []string       `json:"warnings"`
}

func newRunReport(tenantID uuid.UUID, weekStart time.Time) *RunReport {
	return &RunReport{
		TenantID:  tenantID,
		WeekStart: weekStart,
		Skipped:   []TemplateSkip{},
		Failed:    []TemplateSkip{},
		Warnings:  []string{},
	}
}

func (r *RunReport) skip(tpl *model.RouteTemplate, reason SkipReason, detail string) {
	r.Skipped = append(r.Skipped, TemplateSkip{TemplateID: tpl.ID, Name: tpl.Name, Reason: reason, Detail: detail})
}

func (r *RunReport) fail(tpl *model.RouteTemplate, reason SkipReason, err error) {
	r.Failed = append(r.Failed, TemplateSkip{TemplateID: tpl.ID, Name: tpl.Name, Reason: reason, Detail: err.Error()})
}

// Materializer превращает маршруты в датированные визиты.
type Materializer struct {
	templates repository.TemplateRepository
	pools     repository.PoolRepository
	visits    repository.VisitRepository
	runs      repository.RunRepository

	log     logger.Logger
	metrics *metrics.Metrics

	loc                *time.Location
	defaultStartMinute int
}

func NewMaterializer(
	templates repository.TemplateRepository,
	pools repository.PoolRepository,
	visits repository.VisitRepository,
	runs repository.RunRepository,
	log logger.Logger,
	m *metrics.Metrics,
	loc *time.Location,
	defaultStartMinute int,
) *Materializer {
	if loc == nil {
		loc = time.UTC
	}
	return &Materializer{
		templates:          templates,
		pools:              pools,
		visits:             visits,
		runs:               runs,
		log:                log,
		metrics:            m,
		loc:                loc,
		defaultStartMinute: defaultStartMinute,
	}
}

// MaterializeWeek создаёт недостающие визиты недели, содержащей anyDate.
// Повторный запуск для той же недели ничего не создаёт.
//
// Ошибка возвращается только при отказе хранилища (не удалось получить маршруты,
// потеряно соединение, отменён контекст). Визиты, созданные до отказа, остаются.
func (m *Materializer) MaterializeWeek(ctx context.Context, tenantID uuid.UUID, anyDate time.Time) (*RunReport, error) {
	started := time.Now()
	weekStart := calendar.WeekStart(anyDate, m.loc)
	report := newRunReport(tenantID, weekStart)

	log := m.log.With(
		logger.String("tenant_id", tenantID.String()),
		logger.String("week_start", calendar.FormatDate(weekStart)),
	)
	log.Info("materialization started")

	templates, err := m.templates.ListByTenant(ctx, tenantID)
	if err != nil {
		m.metrics.RunsTotal.WithLabelValues("aborted").Inc()
		log.Error("materialization aborted", logger.Error(err))
		return nil, fmt.Errorf("list templates: %w", err)
	}

	for i := range templates {
		if err := m.materializeTemplate(ctx, &templates[i], weekStart, report, log); err != nil {
			m.metrics.RunsTotal.WithLabelValues("aborted").Inc()
			log.Error("materialization aborted",
				logger.String("template_id", templates[i].ID.String()),
				logger.Int("created", report.Created),
				logger.Error(err),
			)
			return nil, fmt.Errorf("template %s: %w", templates[i].ID, err)
		}
	}

	m.saveRun(ctx, report, log)
	m.observe(report, time.Since(started))

	log.Info("materialization finished",
		logger.Int("templates", len(templates)),
		logger.Int("created", report.Created),
		logger.Int("existing", report.Existing),
		logger.Int("skipped", len(report.Skipped)),
		logger.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// MaterializeAhead материализует weeks недель подряд, начиная с недели from.
// Останавливается на первой фатальной ошибке и возвращает уже готовые отчёты.
func (m *Materializer) MaterializeAhead(ctx context.Context, tenantID uuid.UUID, from time.Time, weeks int) ([]*RunReport, error) {
	if weeks < 1 {
		weeks = 1
	}
	start := calendar.WeekStart(from, m.loc)
	reports := make([]*RunReport, 0, weeks)
	for i := 0; i < weeks; i++ {
		report, err := m.MaterializeWeek(ctx, tenantID, start.AddDate(0, 0, 7*i))
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// materializeTemplate обрабатывает один маршрут. Наружу уходит только фатальная ошибка,
// всё остальное записывается в отчёт.
func (m *Materializer) materializeTemplate(
	ctx context.Context,
	tpl *model.RouteTemplate,
	weekStart time.Time,
	report *RunReport,
	log logger.Logger,
) error {
	res, err := recurrence.Evaluate(toRecurrenceTemplate(tpl), weekStart)
	if err != nil {
		report.fail(tpl, SkipInvalidConfiguration, err)
		log.Warn("template configuration invalid",
			logger.String("template_id", tpl.ID.String()),
			logger.Error(err),
		)
		return nil
	}

	if len(res.InvalidSeasons) > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("template %s (%s): seasons %s ignored, start is after end",
			tpl.ID, tpl.Name, strings.Join(res.InvalidSeasons, ", ")))
		log.Warn("invalid seasons ignored",
			logger.String("template_id", tpl.ID.String()),
			logger.Strings("seasons", res.InvalidSeasons),
		)
	}

	if res.Ambiguous {
		msg := fmt.Sprintf("template %s (%s): seasons %s all cover week %s, using %s",
			tpl.ID, tpl.Name, strings.Join(res.Covering, ", "), calendar.FormatDate(weekStart), res.Season.ID)
		report.Warnings = append(report.Warnings, msg)
		m.metrics.AmbiguousSeasons.Inc()
		log.Warn("overlapping seasons",
			logger.String("template_id", tpl.ID.String()),
			logger.Strings("covering", res.Covering),
			logger.String("selected", res.Season.ID),
		)
	}

	switch res.Outcome {
	case recurrence.OutcomeNoActiveSeason:
		report.skip(tpl, SkipNoActiveSeason, "")
		return nil
	case recurrence.OutcomeNotThisWeek:
		report.skip(tpl, SkipNoOccurrence, string(res.Season.Frequency))
		return nil
	}

	minute := m.defaultStartMinute
	if tpl.StartMinute != nil {
		minute = *tpl.StartMinute
	}
	if minute < 0 || minute >= minutesPerDay {
		report.fail(tpl, SkipInvalidConfiguration, fmt.Errorf("start minute %d out of range", minute))
		return nil
	}
	visitAt := calendar.AtMinute(res.Date, minute)

	pools, err := m.pools.ListByZoneIDs(ctx, tpl.ZoneIDs())
	if err != nil {
		return m.storageFailure(tpl, report, log, fmt.Errorf("list pools: %w", err))
	}
	if len(pools) == 0 {
		report.skip(tpl, SkipNoPools, "")
		return nil
	}

	for _, pool := range pools {
		created, err := m.ensureVisit(ctx, tpl, pool.ID, visitAt)
		if err != nil {
			return m.storageFailure(tpl, report, log, fmt.Errorf("pool %s: %w", pool.ID, err))
		}
		if created {
			report.Created++
		} else {
			report.Existing++
		}
	}
	return nil
}

// ensureVisit создаёт визит, если его ещё нет. false, если визит уже существовал.
func (m *Materializer) ensureVisit(ctx context.Context, tpl *model.RouteTemplate, poolID uuid.UUID, at time.Time) (bool, error) {
	_, err := m.visits.FindByPoolAndTime(ctx, poolID, at)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, repository.ErrVisitNotFound):
		return false, err
	}

	templateID := tpl.ID
	visit := &model.Visit{
		TenantID:        tpl.TenantID,
		PoolID:          poolID,
		ScheduledAt:     at,
		TechnicianID:    copyUUID(tpl.TechnicianID),
		Status:          model.VisitStatusPending,
		RouteTemplateID: &templateID,
	}
	if err := m.visits.Create(ctx, visit); err != nil {
		// Параллельный запуск успел вставить тот же ключ.
		if errors.Is(err, repository.ErrVisitConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Materializer) storageFailure(tpl *model.RouteTemplate, report *RunReport, log logger.Logger, err error) error {
	if repository.IsUnavailable(err) {
		return err
	}
	report.fail(tpl, SkipStorageError, err)
	log.Error("template materialization failed",
		logger.String("template_id", tpl.ID.String()),
		logger.Error(err),
	)
	return nil
}

func (m *Materializer) saveRun(ctx context.Context, report *RunReport, log logger.Logger) {
	raw, err := json.Marshal(report)
	if err != nil {
		log.Error("encode run report", logger.Error(err))
		return
	}
	run := &model.MaterializationRun{
		TenantID:  report.TenantID,
		WeekStart: datatypes.Date(report.WeekStart),
		Created:   report.Created,
		Existing:  report.Existing,
		Skipped:   len(report.Skipped),
		Failed:    len(report.Failed),
		Report:    datatypes.JSON(raw),
	}
	if err := m.runs.Save(ctx, run); err != nil {
		log.Error("save run report", logger.Error(err))
	}
}

func (m *Materializer) observe(report *RunReport, elapsed time.Duration) {
	result := "ok"
	if len(report.Failed) > 0 {
		result = "partial"
	}
	m.metrics.RunsTotal.WithLabelValues(result).Inc()
	m.metrics.VisitsCreated.Add(float64(report.Created))
	m.metrics.VisitsExisting.Add(float64(report.Existing))
	for _, s := range report.Skipped {
		m.metrics.TemplatesSkipped.WithLabelValues(string(s.Reason)).Inc()
	}
	m.metrics.TemplateErrors.Add(float64(len(report.Failed)))
	m.metrics.RunDuration.Observe(elapsed.Seconds())
}

func toRecurrenceTemplate(tpl *model.RouteTemplate) recurrence.Template {
	seasons := make([]recurrence.Season, 0, len(tpl.Seasons))
	for _, s := range tpl.Seasons {
		seasons = append(seasons, recurrence.Season{
			ID:        s.ID.String(),
			Frequency: recurrence.Frequency(s.Frequency),
			StartDate: time.Time(s.StartDate),
			EndDate:   time.Time(s.EndDate),
		})
	}
	return recurrence.Template{
		ID:        tpl.ID.String(),
		DayOfWeek: string(tpl.DayOfWeek),
		Seasons:   seasons,
	}
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
