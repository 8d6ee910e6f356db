package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	schedulingpb "github.com/Leganyst/route-planner/internal/api/scheduling/v1"
	"github.com/Leganyst/route-planner/internal/logger"
	"github.com/Leganyst/route-planner/internal/metrics"
	"github.com/Leganyst/route-planner/internal/model"
	"github.com/Leganyst/route-planner/internal/repository"
	"github.com/Leganyst/route-planner/internal/testdb"
)

const bufSize = 1 << 20

type grpcHarness struct {
	client schedulingpb.SchedulingServiceClient
	f      *testdb.Fixture
	zone   model.Zone
	pools  []model.Pool
	alice  model.User
}

func newGRPCHarness(t *testing.T) *grpcHarness {
	t.Helper()

	db := testdb.Open(t)
	f := testdb.NewFixture(t, db)
	zone, pools := f.Zone("north", 2)
	alice := f.Technician("alice", true)

	visits := repository.NewGormVisitRepository(db)
	m := metrics.New(prometheus.NewRegistry())
	log := logger.NewNop()

	materializer := NewMaterializer(
		repository.NewGormTemplateRepository(db),
		repository.NewGormPoolRepository(db),
		visits,
		repository.NewGormRunRepository(db),
		log, m, time.UTC, eightAM,
	)
	rescheduler := NewRescheduler(visits, log, m, 2)
	planning := NewPlanningService(visits, repository.NewGormTechnicianRepository(db), time.UTC)

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	schedulingpb.RegisterSchedulingServiceServer(srv, NewSchedulingServer(materializer, rescheduler, planning, log, time.UTC))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &grpcHarness{
		client: schedulingpb.NewSchedulingServiceClient(conn),
		f:      f,
		zone:   zone,
		pools:  pools,
		alice:  alice,
	}
}

func TestSchedulingServer_MaterializeAndList(t *testing.T) {
	h := newGRPCHarness(t)
	ctx := context.Background()
	h.f.Template("wed", model.WeekdayWednesday, &h.alice.ID, []model.Zone{h.zone}, allYear2024())

	resp, err := h.client.MaterializeWeek(ctx, &schedulingpb.MaterializeWeekRequest{
		TenantID: h.f.TenantID.String(),
		WeekOf:   "2024-03-08",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", resp.WeekStart)
	assert.EqualValues(t, 2, resp.Created)
	assert.Empty(t, resp.Failed)

	again, err := h.client.MaterializeWeek(ctx, &schedulingpb.MaterializeWeekRequest{
		TenantID: h.f.TenantID.String(),
		WeekOf:   "2024-03-04",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, again.Created)
	assert.EqualValues(t, 2, again.Existing)

	list, err := h.client.ListVisits(ctx, &schedulingpb.ListVisitsRequest{
		TenantID: h.f.TenantID.String(),
		From:     "2024-03-04",
		To:       "2024-03-10",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.TotalCount)
	require.Len(t, list.Visits, 2)
	for _, v := range list.Visits {
		assert.True(t, v.ScheduledAt.Equal(time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)))
		assert.Equal(t, h.alice.ID.String(), v.TechnicianID)
		assert.Equal(t, "PENDING", v.Status)
		require.NotNil(t, v.Flags)
		assert.False(t, v.Flags.IsOrphaned)
	}

	workload, err := h.client.GetWorkload(ctx, &schedulingpb.RangeRequest{
		TenantID: h.f.TenantID.String(),
		From:     "2024-03-04",
		To:       "2024-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, []schedulingpb.WorkloadEntry{
		{TechnicianID: h.alice.ID.String(), Date: "2024-03-06", Visits: 2},
	}, workload.Entries)
}

func TestSchedulingServer_BatchRescheduleReportsPerVisit(t *testing.T) {
	h := newGRPCHarness(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	v := h.f.Visit(h.pools[0].ID, at, nil, model.VisitStatusPending)
	missing := uuid.New().String()
	aliceID := h.alice.ID.String()

	resp, err := h.client.BatchReschedule(ctx, &schedulingpb.BatchRescheduleRequest{
		VisitIDs:      []string{v.ID.String(), missing},
		SetTechnician: true,
		TechnicianID:  &aliceID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].OK)
	assert.False(t, resp.Results[1].OK)
	assert.Equal(t, missing, resp.Results[1].VisitID)
	assert.Equal(t, codes.NotFound.String(), resp.Results[1].Code)

	pending, err := h.client.GetPendingWork(ctx, &schedulingpb.TenantRequest{TenantID: h.f.TenantID.String()})
	require.NoError(t, err)
	// Визит в прошлом — просрочен, несмотря на назначенного техника.
	require.Len(t, pending.Overdue, 1)
	assert.Equal(t, aliceID, pending.Overdue[0].TechnicianID)
	assert.Empty(t, pending.Orphaned)
}

func TestSchedulingServer_StatusTransitions(t *testing.T) {
	h := newGRPCHarness(t)
	ctx := context.Background()
	v := h.f.Visit(h.pools[0].ID, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), nil, model.VisitStatusPending)

	resp, err := h.client.CancelVisit(ctx, &schedulingpb.VisitRequest{VisitID: v.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)

	_, err = h.client.CompleteVisit(ctx, &schedulingpb.VisitRequest{VisitID: v.ID.String()})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.client.CompleteVisit(ctx, &schedulingpb.VisitRequest{VisitID: uuid.New().String()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSchedulingServer_RescheduleConflict(t *testing.T) {
	h := newGRPCHarness(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	v := h.f.Visit(h.pools[0].ID, at, nil, model.VisitStatusPending)
	h.f.Visit(h.pools[0].ID, at.Add(time.Hour), nil, model.VisitStatusPending)

	_, err := h.client.RescheduleVisit(ctx, &schedulingpb.RescheduleVisitRequest{
		VisitID:     v.ID.String(),
		ScheduledAt: at.Add(time.Hour),
	})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = h.client.RescheduleVisit(ctx, &schedulingpb.RescheduleVisitRequest{VisitID: v.ID.String()})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSchedulingServer_ValidatesRequests(t *testing.T) {
	h := newGRPCHarness(t)
	ctx := context.Background()

	_, err := h.client.MaterializeWeek(ctx, &schedulingpb.MaterializeWeekRequest{TenantID: "tenant-1", WeekOf: "2024-03-04"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "tenant_id")

	_, err = h.client.GetWorkload(ctx, &schedulingpb.RangeRequest{TenantID: h.f.TenantID.String(), From: "04.03.2024", To: "2024-03-10"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.BatchReschedule(ctx, &schedulingpb.BatchRescheduleRequest{VisitIDs: []string{uuid.New().String()}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.ListVisits(ctx, &schedulingpb.ListVisitsRequest{TenantID: h.f.TenantID.String(), Statuses: []string{"DONE"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRegisterSchedulingServiceServer_ExposesAllMethods(t *testing.T) {
	srv := grpc.NewServer()
	schedulingpb.RegisterSchedulingServiceServer(srv, &SchedulingServer{})

	info, ok := srv.GetServiceInfo()[schedulingpb.ServiceName]
	require.True(t, ok)
	names := make([]string, 0, len(info.Methods))
	for _, m := range info.Methods {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"MaterializeWeek", "RescheduleVisit", "BatchReschedule", "CompleteVisit", "CancelVisit",
		"ListVisits", "GetPendingWork", "GetWorkload", "GetConflictFlags",
	}, names)
}
