package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	schedulingpb "github.com/Leganyst/route-planner/internal/api/scheduling/v1"
	"github.com/Leganyst/route-planner/internal/calendar"
	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/model"
	"github.com/Leganyst/route-planner/internal/planner"
	"github.com/Leganyst/route-planner/internal/recurrence"
	"github.com/Leganyst/route-planner/internal/repository"
)

const defaultPageSize = 50

type SchedulingServer struct {
	schedulingpb.UnimplementedSchedulingServiceServer

	materializer *Materializer
	rescheduler  *Rescheduler
	planning     *PlanningService

	validate *validator.Validate
	log      logger.Logger
	loc      *time.Location
}

func NewSchedulingServer(
	materializer *Materializer,
	rescheduler *Rescheduler,
	planning *PlanningService,
	log logger.Logger,
	loc *time.Location,
) *SchedulingServer {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulingServer{
		materializer: materializer,
		rescheduler:  rescheduler,
		planning:     planning,
		validate:     newValidator(),
		log:          log,
		loc:          loc,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// В сообщениях об ошибках имена полей как в JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *SchedulingServer) MaterializeWeek(
	ctx context.Context,
	req *schedulingpb.MaterializeWeekRequest,
) (*schedulingpb.MaterializeWeekResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	tenantID := uuid.MustParse(req.TenantID)
	weekOf, err := s.parseDate(req.WeekOf)
	if err != nil {
		return nil, err
	}

	report, err := s.materializer.MaterializeWeek(ctx, tenantID, weekOf)
	if err != nil {
		s.log.Error("materialize week rpc", logger.String("tenant_id", req.TenantID), logger.Error(err))
		return nil, toStatus(err)
	}
	return toRunReportPB(report), nil
}

func (s *SchedulingServer) RescheduleVisit(
	ctx context.Context,
	req *schedulingpb.RescheduleVisitRequest,
) (*schedulingpb.VisitStatusResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	visitID := uuid.MustParse(req.VisitID)

	if err := s.rescheduler.RescheduleVisit(ctx, visitID, req.ScheduledAt, parseOptionalUUID(req.TechnicianID)); err != nil {
		return nil, toStatus(err)
	}
	return &schedulingpb.VisitStatusResponse{VisitID: req.VisitID}, nil
}

func (s *SchedulingServer) BatchReschedule(
	ctx context.Context,
	req *schedulingpb.BatchRescheduleRequest,
) (*schedulingpb.BatchRescheduleResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.VisitIDs))
	for _, raw := range req.VisitIDs {
		ids = append(ids, uuid.MustParse(raw))
	}
	change := BatchChange{ScheduledAt: req.ScheduledAt}
	if req.SetTechnician {
		change.Technician = &TechnicianChange{TechnicianID: parseOptionalUUID(req.TechnicianID)}
	}

	results, err := s.rescheduler.BatchReschedule(ctx, ids, change)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &schedulingpb.BatchRescheduleResponse{
		Results: make([]schedulingpb.BatchItemResult, 0, len(results)),
	}
	for _, r := range results {
		item := schedulingpb.BatchItemResult{VisitID: r.VisitID.String(), OK: r.Err == nil}
		if r.Err != nil {
			st := toStatus(r.Err)
			item.Code = status.Code(st).String()
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	return resp, nil
}

func (s *SchedulingServer) CompleteVisit(
	ctx context.Context,
	req *schedulingpb.VisitRequest,
) (*schedulingpb.VisitStatusResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.rescheduler.CompleteVisit(ctx, uuid.MustParse(req.VisitID)); err != nil {
		return nil, toStatus(err)
	}
	return &schedulingpb.VisitStatusResponse{VisitID: req.VisitID, Status: string(model.VisitStatusCompleted)}, nil
}

func (s *SchedulingServer) CancelVisit(
	ctx context.Context,
	req *schedulingpb.VisitRequest,
) (*schedulingpb.VisitStatusResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.rescheduler.CancelVisit(ctx, uuid.MustParse(req.VisitID)); err != nil {
		return nil, toStatus(err)
	}
	return &schedulingpb.VisitStatusResponse{VisitID: req.VisitID, Status: string(model.VisitStatusCancelled)}, nil
}

func (s *SchedulingServer) ListVisits(
	ctx context.Context,
	req *schedulingpb.ListVisitsRequest,
) (*schedulingpb.ListVisitsResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	filter := repository.VisitFilter{
		TenantID:   uuid.MustParse(req.TenantID),
		Unassigned: req.Unassigned,
	}
	if req.From != "" {
		from, err := s.parseDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = from
	}
	if req.To != "" {
		to, err := s.parseDate(req.To)
		if err != nil {
			return nil, err
		}
		// Дата To включительно.
		filter.To = to.AddDate(0, 0, 1)
	}
	if req.TechnicianID != "" {
		id := uuid.MustParse(req.TechnicianID)
		filter.TechnicianID = &id
	}
	if req.PoolID != "" {
		id := uuid.MustParse(req.PoolID)
		filter.PoolID = &id
	}
	for _, st := range req.Statuses {
		filter.Statuses = append(filter.Statuses, model.VisitStatus(st))
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	filter.Limit = int(size)
	filter.Offset = (int(page) - 1) * int(size)

	visits, total, err := s.planning.ListVisits(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &schedulingpb.ListVisitsResponse{
		Visits:     make([]schedulingpb.Visit, 0, len(visits)),
		TotalCount: total,
	}
	for _, v := range visits {
		pb := toVisitPB(v.Visit)
		flags := toFlagsPB(v.Flags)
		pb.Flags = &flags
		resp.Visits = append(resp.Visits, pb)
	}
	return resp, nil
}

func (s *SchedulingServer) GetPendingWork(
	ctx context.Context,
	req *schedulingpb.TenantRequest,
) (*schedulingpb.PendingWorkResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	work, err := s.planning.GetPendingWork(ctx, uuid.MustParse(req.TenantID))
	if err != nil {
		return nil, toStatus(err)
	}
	return &schedulingpb.PendingWorkResponse{
		Overdue:  toVisitsPB(work.Overdue),
		Orphaned: toVisitsPB(work.Orphaned),
	}, nil
}

func (s *SchedulingServer) GetWorkload(
	ctx context.Context,
	req *schedulingpb.RangeRequest,
) (*schedulingpb.WorkloadResponse, error) {
	tenantID, from, to, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}
	entries, err := s.planning.GetWorkload(ctx, tenantID, from, to)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &schedulingpb.WorkloadResponse{
		Entries: make([]schedulingpb.WorkloadEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, schedulingpb.WorkloadEntry{
			TechnicianID: e.TechnicianID.String(),
			Date:         e.Date,
			Visits:       int32(e.Visits),
		})
	}
	return resp, nil
}

func (s *SchedulingServer) GetConflictFlags(
	ctx context.Context,
	req *schedulingpb.RangeRequest,
) (*schedulingpb.ConflictFlagsResponse, error) {
	tenantID, from, to, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}
	flags, err := s.planning.GetConflictFlags(ctx, tenantID, from, to)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &schedulingpb.ConflictFlagsResponse{
		Flags: make([]schedulingpb.VisitConflictFlags, 0, len(flags)),
	}
	for id, f := range flags {
		resp.Flags = append(resp.Flags, schedulingpb.VisitConflictFlags{
			VisitID:       id.String(),
			ConflictFlags: toFlagsPB(f),
		})
	}
	sort.Slice(resp.Flags, func(i, j int) bool { return resp.Flags[i].VisitID < resp.Flags[j].VisitID })
	return resp, nil
}

// check валидирует запрос по тегам validate.
func (s *SchedulingServer) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		problems = append(problems, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return status.Errorf(codes.InvalidArgument, "invalid request: %s", strings.Join(problems, ", "))
}

func (s *SchedulingServer) parseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "date %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func (s *SchedulingServer) parseRange(req *schedulingpb.RangeRequest) (uuid.UUID, time.Time, time.Time, error) {
	if err := s.check(req); err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	from, err := s.parseDate(req.From)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	to, err := s.parseDate(req.To)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	return uuid.MustParse(req.TenantID), from, to, nil
}

// toStatus переводит доменные ошибки в коды gRPC.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVisitNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, repository.ErrVisitConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, repository.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrEmptyChange),
		errors.Is(err, ErrInvalidTimestamp),
		errors.Is(err, calendar.ErrInvalidRange),
		errors.Is(err, recurrence.ErrInvalidWeekday),
		errors.Is(err, recurrence.ErrInvalidFrequency):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case repository.IsUnavailable(err):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	id := uuid.MustParse(*raw)
	return &id
}

func toRunReportPB(r *RunReport) *schedulingpb.MaterializeWeekResponse {
	return &schedulingpb.MaterializeWeekResponse{
		TenantID:  r.TenantID.String(),
		WeekStart: calendar.FormatDate(r.WeekStart),
		Created:   int32(r.Created),
		Existing:  int32(r.Existing),
		Skipped:   toSkipsPB(r.Skipped),
		Failed:    toSkipsPB(r.Failed),
		Warnings:  r.Warnings,
	}
}

func toSkipsPB(skips []TemplateSkip) []schedulingpb.TemplateSkip {
	out := make([]schedulingpb.TemplateSkip, 0, len(skips))
	for _, s := range skips {
		out = append(out, schedulingpb.TemplateSkip{
			TemplateID: s.TemplateID.String(),
			Name:       s.Name,
			Reason:     string(s.Reason),
			Detail:     s.Detail,
		})
	}
	return out
}

func toVisitPB(v model.Visit) schedulingpb.Visit {
	pb := schedulingpb.Visit{
		ID:          v.ID.String(),
		TenantID:    v.TenantID.String(),
		PoolID:      v.PoolID.String(),
		ScheduledAt: v.ScheduledAt.UTC(),
		Status:      string(v.Status),
	}
	if v.TechnicianID != nil {
		pb.TechnicianID = v.TechnicianID.String()
	}
	if v.RouteTemplateID != nil {
		pb.RouteTemplateID = v.RouteTemplateID.String()
	}
	return pb
}

func toVisitsPB(visits []model.Visit) []schedulingpb.Visit {
	out := make([]schedulingpb.Visit, 0, len(visits))
	for _, v := range visits {
		out = append(out, toVisitPB(v))
	}
	return out
}

func toFlagsPB(f planner.Flags) schedulingpb.ConflictFlags {
	return schedulingpb.ConflictFlags{
		IsOrphaned:           f.IsOrphaned,
		IsOverlappingAbsence: f.IsOverlappingAbsence,
	}
}
