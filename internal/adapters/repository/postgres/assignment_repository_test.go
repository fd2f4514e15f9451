package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/assignment"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/workload"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var assignmentRowColumns = []string{
	"id", "employee_id", "project_id", "requirement_id", "name", "allocation_percentage", "start_date", "end_date",
	"status", "workload_warning", "termination_reason", "notes", "created_at", "updated_at",
}

func day(raw string) time.Time {
	return calendar.MustParseDate(raw).Time()
}

func TestAssignmentRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	notes := "kickoff"

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assignments`)).
		WithArgs(int64(1), int64(100), nil, 50, day("2024-03-01"), day("2024-03-31"), "active", false, nil, "kickoff", now, now).
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow(int64(10), int64(1), int64(100), nil, "Apollo", 50, day("2024-03-01"), day("2024-03-31"), "active", false, nil, "kickoff", now, now))

	created, err := repo.Create(context.Background(), &assignment.Assignment{
		EmployeeID:           1,
		ProjectID:            100,
		AllocationPercentage: 50,
		StartDate:            calendar.MustParseDate("2024-03-01"),
		EndDate:              calendar.MustParseDate("2024-03-31"),
		Status:               assignment.StatusActive,
		Notes:                &notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ID != 10 || created.ProjectName != "Apollo" {
		t.Fatalf("unexpected assignment: %+v", created)
	}
	if created.RequirementID != nil || created.TerminationReason != nil {
		t.Fatalf("expected nullable columns to be nil, got %+v", created)
	}
	if created.Notes == nil || *created.Notes != "kickoff" {
		t.Fatalf("expected notes, got %+v", created.Notes)
	}
	if created.StartDate.String() != "2024-03-01" || created.EndDate.String() != "2024-03-31" {
		t.Fatalf("unexpected period: %s", created.Period())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_Create_ForeignKeyViolation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO assignments`)).
		WillReturnError(&pgconn.PgError{Code: assignmentForeignKeyViolationCode, ConstraintName: "assignments_project_id_fkey"})

	_, err = repo.Create(context.Background(), &assignment.Assignment{
		EmployeeID:           1,
		ProjectID:            999,
		AllocationPercentage: 10,
		StartDate:            calendar.MustParseDate("2024-03-01"),
		EndDate:              calendar.MustParseDate("2024-03-01"),
		Status:               assignment.StatusActive,
	})
	if !errors.Is(err, assignment.ErrProjectReference) {
		t.Fatalf("expected ErrProjectReference, got %v", err)
	}
}

func TestAssignmentRepository_Update(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	created := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	updatedAt := created.Add(time.Hour)
	reason := "project cancelled"
	requirement := int64(7)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assignments`)+`(?s).*WHERE id = \$11`).
		WithArgs(int64(100), int64(7), 80, day("2024-03-01"), day("2024-03-31"), "terminated", true, "project cancelled", nil, updatedAt, int64(10)).
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow(int64(10), int64(1), int64(100), int64(7), "Apollo", 80, day("2024-03-01"), day("2024-03-31"), "terminated", true, "project cancelled", nil, created, updatedAt))

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assignments`)).
		WillReturnError(pgx.ErrNoRows)

	in := &assignment.Assignment{
		ID:                   10,
		EmployeeID:           1,
		ProjectID:            100,
		RequirementID:        &requirement,
		AllocationPercentage: 80,
		StartDate:            calendar.MustParseDate("2024-03-01"),
		EndDate:              calendar.MustParseDate("2024-03-31"),
		Status:               assignment.StatusTerminated,
		WorkloadWarning:      true,
		TerminationReason:    &reason,
		UpdatedAt:            updatedAt,
	}

	updated, err := repo.Update(context.Background(), in)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Status != assignment.StatusTerminated || !updated.WorkloadWarning {
		t.Fatalf("unexpected assignment: %+v", updated)
	}
	if updated.RequirementID == nil || *updated.RequirementID != 7 {
		t.Fatalf("expected requirement id, got %+v", updated.RequirementID)
	}
	if updated.TerminationReason == nil || *updated.TerminationReason != reason {
		t.Fatalf("expected termination reason, got %+v", updated.TerminationReason)
	}

	if _, err := repo.Update(context.Background(), in); !errors.Is(err, assignment.ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_FindByIDForUpdate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE a\.id = \$1\s+FOR UPDATE OF a`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow(int64(10), int64(1), int64(100), nil, "Apollo", 30, day("2024-03-01"), day("2024-03-05"), "active", false, nil, nil, now, now))

	found, err := repo.FindByIDForUpdate(context.Background(), 10)
	if err != nil {
		t.Fatalf("FindByIDForUpdate returned error: %v", err)
	}
	if !found.IsActive() || found.AllocationPercentage != 30 {
		t.Fatalf("unexpected assignment: %+v", found)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	employeeID := int64(1)
	status := assignment.StatusActive
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE a\.employee_id = \$1 AND a\.status = \$2\s+ORDER BY a\.start_date DESC, a\.id DESC\s+LIMIT \$3\s+OFFSET \$4`).
		WithArgs(int64(1), "active", 3, 0).
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow(int64(3), int64(1), int64(100), nil, "Apollo", 10, day("2024-06-01"), day("2024-06-10"), "active", false, nil, nil, now, now).
			AddRow(int64(2), int64(1), int64(100), nil, "Apollo", 10, day("2024-05-01"), day("2024-05-10"), "active", false, nil, nil, now, now).
			AddRow(int64(1), int64(1), int64(101), nil, "Gemini", 10, day("2024-04-01"), day("2024-04-10"), "active", false, nil, nil, now, now))

	found, nextToken, err := repo.List(context.Background(), assignment.ListAssignmentsFilter{
		EmployeeID: &employeeID,
		Status:     &status,
		Limit:      2,
		Offset:     0,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(found) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(found))
	}
	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if _, _, err := repo.List(context.Background(), assignment.ListAssignmentsFilter{Limit: 0}); !errors.Is(err, assignment.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_ListActiveAllocations(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	exclude := int64(11)
	period := calendar.Range{Start: calendar.MustParseDate("2024-03-01"), End: calendar.MustParseDate("2024-03-31")}

	mock.ExpectQuery(regexp.QuoteMeta(`($4::bigint IS NULL OR a.id <> $4)`)).
		WithArgs(int64(1), day("2024-03-01"), day("2024-03-31"), int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "name", "allocation_percentage", "start_date", "end_date"}).
			AddRow(int64(10), int64(100), "Apollo", 50, day("2024-02-15"), day("2024-03-10")))

	mock.ExpectQuery(regexp.QuoteMeta(`a.status = 'active'`)).
		WithArgs(int64(1), day("2024-03-01"), day("2024-03-31"), nil).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "name", "allocation_percentage", "start_date", "end_date"}))

	allocations, err := repo.ListActiveAllocations(context.Background(), workload.AllocationQuery{
		EmployeeID:          1,
		Period:              period,
		ExcludeAssignmentID: &exclude,
	})
	if err != nil {
		t.Fatalf("ListActiveAllocations returned error: %v", err)
	}
	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	got := allocations[0]
	if got.AssignmentID != 10 || got.ProjectName != "Apollo" || got.AllocationPercentage != 50 {
		t.Fatalf("unexpected allocation: %+v", got)
	}
	if got.Period.String() != "2024-02-15..2024-03-10" {
		t.Fatalf("unexpected period: %s", got.Period)
	}

	none, err := repo.ListActiveAllocations(context.Background(), workload.AllocationQuery{EmployeeID: 1, Period: period})
	if err != nil {
		t.Fatalf("ListActiveAllocations returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no allocations, got %d", len(none))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranslateAssignmentPgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: assignment.ErrAssignmentNotFound},
		{name: "employee fk", err: &pgconn.PgError{Code: assignmentForeignKeyViolationCode, ConstraintName: "assignments_employee_id_fkey"}, want: assignment.ErrEmployeeReference},
		{name: "requirement fk", err: &pgconn.PgError{Code: assignmentForeignKeyViolationCode, ConstraintName: "assignments_requirement_id_fkey"}, want: assignment.ErrRequirementReference},
		{name: "allocation check", err: &pgconn.PgError{Code: assignmentCheckViolationCode, ConstraintName: "assignments_allocation_percentage_check"}, want: assignment.ErrInvalidAllocation},
		{name: "period check", err: &pgconn.PgError{Code: assignmentCheckViolationCode, ConstraintName: "assignments_period_check"}, want: assignment.ErrInvalidPeriod},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: failure.ErrTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := translateAssignmentPgError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := errors.New("other")
	if translateAssignmentPgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}
