package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/employee"
	pgdb "github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/db/postgres"
)

const employeeColumns = `
        SELECT e.id,
               e.name,
               COALESCE(e.work_time_factor, 1.0)::float8,
               COALESCE(e.part_time_factor, 100.0)::float8,
               e.created_at,
               e.updated_at
          FROM employees e
         WHERE e.id = $1`

// EmployeeRepository は PostgreSQL を利用した社員参照の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// FindByID は ID で社員を取得します。係数が NULL の場合は既定値で補います。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	return r.find(ctx, id, employeeColumns+`
         LIMIT 1
    `)
}

// LockByID は社員行を SELECT ... FOR UPDATE で取得します。トランザクション内で呼び出してください。
func (r *EmployeeRepository) LockByID(ctx context.Context, id int64) (*employee.Employee, error) {
	return r.find(ctx, id, employeeColumns+`
           FOR UPDATE
    `)
}

func (r *EmployeeRepository) find(ctx context.Context, id int64, query string) (*employee.Employee, error) {
	if id <= 0 {
		return nil, employee.ErrInvalidID
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanEmployee(exec.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id             int64
		name           string
		workTimeFactor float64
		partTimeFactor float64
		createdAt      time.Time
		updatedAt      time.Time
	)

	if err := row.Scan(&id, &name, &workTimeFactor, &partTimeFactor, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:             id,
		Name:           name,
		WorkTimeFactor: workTimeFactor,
		PartTimeFactor: partTimeFactor,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}
	return pgdb.Classify(err)
}
