package handler

import (
	"context"
	"time"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/assignment"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/workload"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// StaffingGrpcHandler は StaffingService の gRPC 実装です。
type StaffingGrpcHandler struct {
	workload    workload.UseCase
	assignments assignment.UseCase
}

var _ StaffingServiceServer = (*StaffingGrpcHandler)(nil)

// NewStaffingGrpcHandler は StaffingGrpcHandler を生成します。
func NewStaffingGrpcHandler(workloadSvc workload.UseCase, assignmentSvc assignment.UseCase) *StaffingGrpcHandler {
	return &StaffingGrpcHandler{workload: workloadSvc, assignments: assignmentSvc}
}

// CalculateWorkload は社員の日別稼働率を返します。
func (h *StaffingGrpcHandler) CalculateWorkload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	employeeID, err := requireInt64(req, "employee_id")
	if err != nil {
		return nil, err
	}
	start, err := requireDate(req, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := requireDate(req, "end_date")
	if err != nil {
		return nil, err
	}
	exclude, _, err := optionalInt64(req, "exclude_assignment_id")
	if err != nil {
		return nil, err
	}

	days, err := h.workload.CalculateWorkload(ctx, workload.CalculateWorkloadInput{
		EmployeeID:          employeeID,
		Start:               start,
		End:                 end,
		ExcludeAssignmentID: exclude,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	items := make([]any, 0, len(days))
	for _, d := range days {
		items = append(items, dailyWorkloadFields(d))
	}

	return newStruct(map[string]any{
		"employee_id": employeeID,
		"days":        items,
	})
}

// ValidateAssignment はアサイン案を永続化せずに検証します。
func (h *StaffingGrpcHandler) ValidateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	employeeID, err := requireInt64(req, "employee_id")
	if err != nil {
		return nil, err
	}
	start, err := requireDate(req, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := requireDate(req, "end_date")
	if err != nil {
		return nil, err
	}
	allocation, err := requireInt(req, "allocation_percentage")
	if err != nil {
		return nil, err
	}
	exclude, _, err := optionalInt64(req, "exclude_assignment_id")
	if err != nil {
		return nil, err
	}

	result, err := h.workload.ValidateAssignment(ctx, workload.ValidateAssignmentInput{
		EmployeeID:           employeeID,
		Start:                start,
		End:                  end,
		AllocationPercentage: allocation,
		ExcludeAssignmentID:  exclude,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{
		"valid":   result.Valid,
		"warning": result.Warning,
		"message": result.Message,
	})
}

// CreateAssignment はアサインを作成します。
func (h *StaffingGrpcHandler) CreateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	employeeID, err := requireInt64(req, "employee_id")
	if err != nil {
		return nil, err
	}
	projectID, err := requireInt64(req, "project_id")
	if err != nil {
		return nil, err
	}
	requirementID, _, err := optionalInt64(req, "requirement_id")
	if err != nil {
		return nil, err
	}
	allocation, err := requireInt(req, "allocation_percentage")
	if err != nil {
		return nil, err
	}
	start, err := requireDate(req, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := requireDate(req, "end_date")
	if err != nil {
		return nil, err
	}
	notes, _, err := optionalString(req, "notes")
	if err != nil {
		return nil, err
	}

	created, err := h.assignments.CreateAssignment(ctx, assignment.CreateAssignmentInput{
		EmployeeID:           employeeID,
		ProjectID:            projectID,
		RequirementID:        requirementID,
		AllocationPercentage: allocation,
		StartDate:            start,
		EndDate:              end,
		Notes:                notes,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"assignment": assignmentFields(created)})
}

// UpdateAssignment はアサインを部分更新します。キーを省略した項目は変更しません。
// requirement_id と notes は null を指定すると解除します。
func (h *StaffingGrpcHandler) UpdateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requireInt64(req, "id")
	if err != nil {
		return nil, err
	}
	projectID, _, err := optionalInt64(req, "project_id")
	if err != nil {
		return nil, err
	}
	requirementID, requirementSet, err := optionalInt64(req, "requirement_id")
	if err != nil {
		return nil, err
	}
	allocation, err := optionalInt(req, "allocation_percentage")
	if err != nil {
		return nil, err
	}
	start, err := optionalDate(req, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(req, "end_date")
	if err != nil {
		return nil, err
	}
	notes, notesSet, err := optionalString(req, "notes")
	if err != nil {
		return nil, err
	}

	updated, err := h.assignments.UpdateAssignment(ctx, assignment.UpdateAssignmentInput{
		ID:                   id,
		ProjectID:            projectID,
		RequirementID:        requirementID,
		RequirementIDSet:     requirementSet,
		AllocationPercentage: allocation,
		StartDate:            start,
		EndDate:              end,
		Notes:                notes,
		NotesSet:             notesSet,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"assignment": assignmentFields(updated)})
}

// TerminateAssignment はアサインを終了します。
func (h *StaffingGrpcHandler) TerminateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requireInt64(req, "id")
	if err != nil {
		return nil, err
	}
	reason, _, err := optionalString(req, "reason")
	if err != nil {
		return nil, err
	}

	in := assignment.TerminateAssignmentInput{ID: id}
	if reason != nil {
		in.Reason = *reason
	}

	terminated, err := h.assignments.TerminateAssignment(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"assignment": assignmentFields(terminated)})
}

// GetAssignment はアサインを取得します。
func (h *StaffingGrpcHandler) GetAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := requireInt64(req, "id")
	if err != nil {
		return nil, err
	}

	found, err := h.assignments.GetAssignment(ctx, assignment.GetAssignmentInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"assignment": assignmentFields(found)})
}

// ListAssignments はアサインの一覧を返します。
func (h *StaffingGrpcHandler) ListAssignments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	employeeID, _, err := optionalInt64(req, "employee_id")
	if err != nil {
		return nil, err
	}
	projectID, _, err := optionalInt64(req, "project_id")
	if err != nil {
		return nil, err
	}
	rawStatus, _, err := optionalString(req, "status")
	if err != nil {
		return nil, err
	}
	pageSize, err := optionalInt(req, "page_size")
	if err != nil {
		return nil, err
	}
	pageToken, _, err := optionalString(req, "page_token")
	if err != nil {
		return nil, err
	}

	in := assignment.ListAssignmentsInput{EmployeeID: employeeID, ProjectID: projectID}
	if rawStatus != nil && *rawStatus != "" {
		s := assignment.Status(*rawStatus)
		in.Status = &s
	}
	if pageSize != nil {
		in.PageSize = *pageSize
	}
	if pageToken != nil {
		in.PageToken = *pageToken
	}

	result, err := h.assignments.ListAssignments(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	items := make([]any, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		items = append(items, assignmentFields(a))
	}

	return newStruct(map[string]any{
		"assignments":     items,
		"next_page_token": result.NextPageToken,
	})
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response: "+err.Error())
	}
	return s, nil
}

func dailyWorkloadFields(d workload.DailyWorkload) map[string]any {
	allocations := make([]any, 0, len(d.Assignments))
	for _, a := range d.Assignments {
		allocations = append(allocations, map[string]any{
			"assignment_id":         a.AssignmentID,
			"project_id":            a.ProjectID,
			"project_name":          a.ProjectName,
			"allocation_percentage": a.AllocationPercentage,
			"effective_allocation":  a.EffectiveAllocation.InexactFloat64(),
		})
	}
	return map[string]any{
		"date":           d.Date.String(),
		"total_workload": d.TotalWorkload.InexactFloat64(),
		"assignments":    allocations,
	}
}

func assignmentFields(a *assignment.Assignment) map[string]any {
	fields := map[string]any{
		"id":                    a.ID,
		"employee_id":           a.EmployeeID,
		"project_id":            a.ProjectID,
		"requirement_id":        nil,
		"project_name":          a.ProjectName,
		"allocation_percentage": a.AllocationPercentage,
		"start_date":            a.StartDate.String(),
		"end_date":              a.EndDate.String(),
		"status":                string(a.Status),
		"workload_warning":      a.WorkloadWarning,
		"termination_reason":    nil,
		"notes":                 nil,
		"created_at":            a.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":            a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if a.RequirementID != nil {
		fields["requirement_id"] = *a.RequirementID
	}
	if a.TerminationReason != nil {
		fields["termination_reason"] = *a.TerminationReason
	}
	if a.Notes != nil {
		fields["notes"] = *a.Notes
	}
	return fields
}
