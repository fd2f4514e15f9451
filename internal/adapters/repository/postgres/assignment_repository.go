package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/assignment"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/workload"
	pgdb "github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/db/postgres"
)

const (
	assignmentForeignKeyViolationCode = "23503"
	assignmentCheckViolationCode      = "23514"
)

// assignmentReturning は INSERT/UPDATE の RETURNING 句です。project_name は projects を結合して補います。
const assignmentReturning = `id, employee_id, project_id, requirement_id, allocation_percentage, start_date, end_date,
                      status, workload_warning, termination_reason, notes, created_at, updated_at`

const assignmentSelect = `
        SELECT a.id,
               a.employee_id,
               a.project_id,
               a.requirement_id,
               p.name,
               a.allocation_percentage,
               a.start_date,
               a.end_date,
               a.status,
               a.workload_warning,
               a.termination_reason,
               a.notes,
               a.created_at,
               a.updated_at
          FROM assignments a
          JOIN projects p ON p.id = a.project_id`

// AssignmentRepository は PostgreSQL を利用したアサイン永続化の実装です。
// workload.AllocationSource も兼ねます。
type AssignmentRepository struct {
	pool pgdb.Queryer
}

var (
	_ assignment.Repository     = (*AssignmentRepository)(nil)
	_ workload.AllocationSource = (*AssignmentRepository)(nil)
)

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(pool pgdb.Queryer) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// Create はアサインを新規作成します。
func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH a AS (
            INSERT INTO assignments (employee_id, project_id, requirement_id, allocation_percentage, start_date, end_date,
                                     status, workload_warning, termination_reason, notes, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
            RETURNING `+assignmentReturning+`
        )
        SELECT a.id, a.employee_id, a.project_id, a.requirement_id, p.name, a.allocation_percentage, a.start_date, a.end_date,
               a.status, a.workload_warning, a.termination_reason, a.notes, a.created_at, a.updated_at
          FROM a
          JOIN projects p ON p.id = a.project_id
    `,
		a.EmployeeID,
		a.ProjectID,
		nullableInt64(a.RequirementID),
		a.AllocationPercentage,
		a.StartDate.Time(),
		a.EndDate.Time(),
		string(a.Status),
		a.WorkloadWarning,
		nullableString(a.TerminationReason),
		nullableString(a.Notes),
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return created, nil
}

// Update はアサインの可変項目を更新します。employee_id と created_at は変更しません。
func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH a AS (
            UPDATE assignments
               SET project_id = $1,
                   requirement_id = $2,
                   allocation_percentage = $3,
                   start_date = $4,
                   end_date = $5,
                   status = $6,
                   workload_warning = $7,
                   termination_reason = $8,
                   notes = $9,
                   updated_at = $10
             WHERE id = $11
            RETURNING `+assignmentReturning+`
        )
        SELECT a.id, a.employee_id, a.project_id, a.requirement_id, p.name, a.allocation_percentage, a.start_date, a.end_date,
               a.status, a.workload_warning, a.termination_reason, a.notes, a.created_at, a.updated_at
          FROM a
          JOIN projects p ON p.id = a.project_id
    `,
		a.ProjectID,
		nullableInt64(a.RequirementID),
		a.AllocationPercentage,
		a.StartDate.Time(),
		a.EndDate.Time(),
		string(a.Status),
		a.WorkloadWarning,
		nullableString(a.TerminationReason),
		nullableString(a.Notes),
		a.UpdatedAt,
		a.ID,
	)

	updated, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return updated, nil
}

// FindByID は ID でアサインを取得します。
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, assignmentSelect+`
         WHERE a.id = $1
         LIMIT 1
    `, id)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return found, nil
}

// FindByIDForUpdate はアサイン行のみをロックして取得します。
func (r *AssignmentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, assignmentSelect+`
         WHERE a.id = $1
           FOR UPDATE OF a
    `, id)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return found, nil
}

// List はアサインの一覧を取得します。
func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListAssignmentsFilter) ([]*assignment.Assignment, string, error) {
	if filter.Limit <= 0 {
		return nil, "", assignment.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", assignment.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 5)
	conditions := make([]string, 0, 3)

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		conditions = append(conditions, "a.employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		conditions = append(conditions, "a.project_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "a.status = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := assignmentSelect + whereClause + `
         ORDER BY a.start_date DESC, a.id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateAssignmentPgError(err)
	}
	defer rows.Close()

	assignments := make([]*assignment.Assignment, 0, filter.Limit)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, "", translateAssignmentPgError(err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateAssignmentPgError(err)
	}

	var nextToken string
	if len(assignments) == limitWithBuffer {
		assignments = assignments[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return assignments, nextToken, nil
}

// ListActiveAllocations は期間と重なる status=active のアサインを返します。
func (r *AssignmentRepository) ListActiveAllocations(ctx context.Context, q workload.AllocationQuery) ([]workload.Allocation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT a.id,
               a.project_id,
               p.name,
               a.allocation_percentage,
               a.start_date,
               a.end_date
          FROM assignments a
          JOIN projects p ON p.id = a.project_id
         WHERE a.employee_id = $1
           AND a.status = 'active'
           AND a.start_date <= $3
           AND a.end_date >= $2
           AND ($4::bigint IS NULL OR a.id <> $4)
         ORDER BY a.start_date, a.id
    `, q.EmployeeID, q.Period.Start.Time(), q.Period.End.Time(), nullableInt64(q.ExcludeAssignmentID))
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	var allocations []workload.Allocation
	for rows.Next() {
		var (
			alloc      workload.Allocation
			start, end time.Time
		)
		if err := rows.Scan(&alloc.AssignmentID, &alloc.ProjectID, &alloc.ProjectName, &alloc.AllocationPercentage, &start, &end); err != nil {
			return nil, translateAssignmentPgError(err)
		}
		alloc.Period = calendar.Range{Start: calendar.DateOf(start), End: calendar.DateOf(end)}
		allocations = append(allocations, alloc)
	}

	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}

	return allocations, nil
}

func scanAssignment(row pgx.Row) (*assignment.Assignment, error) {
	var (
		a                 assignment.Assignment
		requirementID     sql.NullInt64
		startDate         time.Time
		endDate           time.Time
		status            string
		terminationReason sql.NullString
		notes             sql.NullString
	)

	if err := row.Scan(
		&a.ID,
		&a.EmployeeID,
		&a.ProjectID,
		&requirementID,
		&a.ProjectName,
		&a.AllocationPercentage,
		&startDate,
		&endDate,
		&status,
		&a.WorkloadWarning,
		&terminationReason,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}

	if requirementID.Valid {
		v := requirementID.Int64
		a.RequirementID = &v
	}
	if terminationReason.Valid {
		v := terminationReason.String
		a.TerminationReason = &v
	}
	if notes.Valid {
		v := notes.String
		a.Notes = &v
	}
	a.StartDate = calendar.DateOf(startDate)
	a.EndDate = calendar.DateOf(endDate)
	a.Status = assignment.Status(status)

	return &a, nil
}

func translateAssignmentPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return assignment.ErrAssignmentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case assignmentForeignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "assignments_employee_id_fkey":
				return assignment.ErrEmployeeReference
			case "assignments_project_id_fkey":
				return assignment.ErrProjectReference
			case "assignments_requirement_id_fkey":
				return assignment.ErrRequirementReference
			default:
				return err
			}
		case assignmentCheckViolationCode:
			switch pgErr.ConstraintName {
			case "assignments_allocation_percentage_check":
				return assignment.ErrInvalidAllocation
			case "assignments_period_check":
				return assignment.ErrInvalidPeriod
			case "assignments_status_check":
				return assignment.ErrInvalidStatus
			default:
				return err
			}
		}
	}

	return pgdb.Classify(err)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
