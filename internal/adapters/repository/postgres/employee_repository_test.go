package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/employee"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...any) error
}

func (s stubRow) Scan(dest ...any) error {
	return s.scanFn(dest...)
}

var employeeRowColumns = []string{"id", "name", "work_time_factor", "part_time_factor", "created_at", "updated_at"}

func TestScanEmployee_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	row := stubRow{scanFn: func(dest ...any) error {
		if len(dest) != 6 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*int64)) = 5
		*(dest[1].(*string)) = "Yamada Taro"
		*(dest[2].(*float64)) = 0.8
		*(dest[3].(*float64)) = 50
		*(dest[4].(*time.Time)) = createdAt
		*(dest[5].(*time.Time)) = createdAt
		return nil
	}}

	emp, err := scanEmployee(row)
	if err != nil {
		t.Fatalf("scanEmployee returned error: %v", err)
	}

	if emp.ID != 5 || emp.Name != "Yamada Taro" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
	if emp.WorkTimeFactor != 0.8 || emp.PartTimeFraction() != 0.5 {
		t.Fatalf("unexpected factors: %+v", emp)
	}
}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...any) error {
		return pgx.ErrNoRows
	}}

	_, err := scanEmployee(row)
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestEmployeeRepository_FindByID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`COALESCE(e.part_time_factor, 100.0)::float8`) + `(?s).*WHERE e\.id = \$1\s+LIMIT 1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).AddRow(int64(3), "Sato", 1.0, 100.0, now, now))

	emp, err := repo.FindByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if emp.ID != 3 || emp.PartTimeFactor != 100 {
		t.Fatalf("unexpected employee: %+v", emp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_LockByID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`WHERE e\.id = \$1\s+FOR UPDATE`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`WHERE e\.id = \$1\s+FOR UPDATE`).
		WithArgs(int64(9)).
		WillReturnError(&pgconn.PgError{Code: "55P03"})

	if _, err := repo.LockByID(context.Background(), 9); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	if _, err := repo.LockByID(context.Background(), 9); !errors.Is(err, failure.ErrTransient) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	if _, err := repo.LockByID(context.Background(), 0); !errors.Is(err, employee.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
