package schedulingpb

import "time"

// Даты передаются как YYYY-MM-DD в поясе планировщика, моменты времени в RFC 3339.

type MaterializeWeekRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
	// Любая дата нужной недели.
	WeekOf string `json:"week_of" validate:"required,datetime=2006-01-02"`
}

type TemplateSkip struct {
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

type MaterializeWeekResponse struct {
	TenantID  string         `json:"tenant_id"`
	WeekStart string         `json:"week_start"`
	Created   int32          `json:"created"`
	Existing  int32          `json:"existing"`
	Skipped   []TemplateSkip `json:"skipped"`
	Failed    []TemplateSkip `json:"failed"`
	Warnings  []string       `json:"warnings"`
}

type RescheduleVisitRequest struct {
	VisitID     string    `json:"visit_id" validate:"required,uuid"`
	ScheduledAt time.Time `json:"scheduled_at"`
	// Пустое значение снимает назначение.
	TechnicianID *string `json:"technician_id,omitempty" validate:"omitempty,uuid"`
}

type BatchRescheduleRequest struct {
	VisitIDs    []string   `json:"visit_ids" validate:"required,min=1,max=500,dive,uuid"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	// SetTechnician применяет TechnicianID ко всем визитам; nil снимает техника.
	SetTechnician bool    `json:"set_technician"`
	TechnicianID  *string `json:"technician_id,omitempty" validate:"omitempty,uuid"`
}

type BatchItemResult struct {
	VisitID string `json:"visit_id"`
	OK      bool   `json:"ok"`
	// Имя gRPC-кода ошибки, например NotFound.
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type BatchRescheduleResponse struct {
	Results []BatchItemResult `json:"results"`
}

type VisitRequest struct {
	VisitID string `json:"visit_id" validate:"required,uuid"`
}

type VisitStatusResponse struct {
	VisitID string `json:"visit_id"`
	// Заполняется только при смене статуса.
	Status string `json:"status,omitempty"`
}

type ConflictFlags struct {
	IsOrphaned           bool `json:"is_orphaned"`
	IsOverlappingAbsence bool `json:"is_overlapping_absence"`
}

type Visit struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenant_id"`
	PoolID          string         `json:"pool_id"`
	ScheduledAt     time.Time      `json:"scheduled_at"`
	TechnicianID    string         `json:"technician_id,omitempty"`
	Status          string         `json:"status"`
	RouteTemplateID string         `json:"route_template_id,omitempty"`
	Flags           *ConflictFlags `json:"flags,omitempty"`
}

type ListVisitsRequest struct {
	TenantID     string   `json:"tenant_id" validate:"required,uuid"`
	From         string   `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To           string   `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TechnicianID string   `json:"technician_id,omitempty" validate:"omitempty,uuid"`
	Unassigned   bool     `json:"unassigned,omitempty"`
	PoolID       string   `json:"pool_id,omitempty" validate:"omitempty,uuid"`
	Statuses     []string `json:"statuses,omitempty" validate:"omitempty,dive,oneof=PENDING COMPLETED CANCELLED"`
	Page         int32    `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize     int32    `json:"page_size,omitempty" validate:"omitempty,min=1,max=500"`
}

type ListVisitsResponse struct {
	Visits     []Visit `json:"visits"`
	TotalCount int64   `json:"total_count"`
}

type TenantRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
}

type PendingWorkResponse struct {
	Overdue  []Visit `json:"overdue"`
	Orphaned []Visit `json:"orphaned"`
}

type RangeRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
	From     string `json:"from" validate:"required,datetime=2006-01-02"`
	To       string `json:"to" validate:"required,datetime=2006-01-02"`
}

type WorkloadEntry struct {
	TechnicianID string `json:"technician_id"`
	Date         string `json:"date"`
	Visits       int32  `json:"visits"`
}

type WorkloadResponse struct {
	Entries []WorkloadEntry `json:"entries"`
}

type VisitConflictFlags struct {
	VisitID string `json:"visit_id"`
	ConflictFlags
}

type ConflictFlagsResponse struct {
	Flags []VisitConflictFlags `json:"flags"`
}
