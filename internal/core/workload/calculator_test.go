package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/employee"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeEmployees map[int64]*employee.Employee

func (f fakeEmployees) FindByID(_ context.Context, id int64) (*employee.Employee, error) {
	emp, ok := f[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	clone := *emp
	return &clone, nil
}

type fakeAllocations struct {
	byEmployee map[int64][]Allocation
	queries    []AllocationQuery
	err        error
}

func (f *fakeAllocations) ListActiveAllocations(_ context.Context, q AllocationQuery) ([]Allocation, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []Allocation
	for _, a := range f.byEmployee[q.EmployeeID] {
		if q.ExcludeAssignmentID != nil && a.AssignmentID == *q.ExcludeAssignmentID {
			continue
		}
		if !a.Period.Overlaps(q.Period) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type recordingTx struct {
	readOnly int
}

func (r *recordingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	r.readOnly++
	return fn(ctx)
}

func period(start, end string) calendar.Range {
	return calendar.Range{Start: calendar.MustParseDate(start), End: calendar.MustParseDate(end)}
}

func fullTimer(id int64) *employee.Employee {
	return &employee.Employee{ID: id, WorkTimeFactor: 1.0, PartTimeFactor: 100}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestCalculator_NoAssignmentsYieldsZero(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{}
	calc := NewCalculator(fakeEmployees{1: fullTimer(1)}, &fakeAllocations{}, tx)

	days, err := calc.CalculateWorkload(context.Background(), CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-10"),
	})
	require.NoError(t, err)
	require.Len(t, days, 10)
	for _, d := range days {
		require.True(t, d.TotalWorkload.IsZero(), "day %s", d.Date)
		require.Empty(t, d.Assignments)
	}
	require.Equal(t, 1, tx.readOnly)
}

func TestCalculator_ScenarioA_HalfAllocation(t *testing.T) {
	t.Parallel()

	allocations := &fakeAllocations{byEmployee: map[int64][]Allocation{
		1: {{AssignmentID: 10, ProjectID: 100, ProjectName: "Apollo", AllocationPercentage: 50, Period: period("2024-03-01", "2024-03-31")}},
	}}
	calc := NewCalculator(fakeEmployees{1: fullTimer(1)}, allocations, nil)

	days, err := calc.CalculateWorkload(context.Background(), CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-03"),
	})
	require.NoError(t, err)
	require.Len(t, days, 3)

	wantDates := []string{"2024-03-01", "2024-03-02", "2024-03-03"}
	for i, d := range days {
		require.Equal(t, wantDates[i], d.Date.String())
		require.True(t, d.TotalWorkload.Equal(dec(t, "50")), "got %s", d.TotalWorkload)
		require.Len(t, d.Assignments, 1)
		require.Equal(t, "Apollo", d.Assignments[0].ProjectName)
	}
}

func TestCalculator_ScenarioB_PartTimeFactorScales(t *testing.T) {
	t.Parallel()

	emp := &employee.Employee{ID: 1, WorkTimeFactor: 1.0, PartTimeFactor: 80}
	allocations := &fakeAllocations{byEmployee: map[int64][]Allocation{
		1: {{AssignmentID: 10, ProjectID: 100, AllocationPercentage: 100, Period: period("2024-03-01", "2024-03-31")}},
	}}
	calc := NewCalculator(fakeEmployees{1: emp}, allocations, nil)

	days, err := calc.CalculateWorkload(context.Background(), CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-03"),
	})
	require.NoError(t, err)
	for _, d := range days {
		require.True(t, d.TotalWorkload.Equal(dec(t, "80")), "got %s", d.TotalWorkload)
	}
}

func TestCalculator_ScenarioC_OverlappingAssignments(t *testing.T) {
	t.Parallel()

	allocations := &fakeAllocations{byEmployee: map[int64][]Allocation{
		1: {
			{AssignmentID: 10, ProjectID: 100, AllocationPercentage: 50, Period: period("2024-03-01", "2024-03-31")},
			{AssignmentID: 11, ProjectID: 101, AllocationPercentage: 30, Period: period("2024-02-15", "2024-03-01")},
		},
	}}
	calc := NewCalculator(fakeEmployees{1: fullTimer(1)}, allocations, nil)

	days, err := calc.CalculateWorkload(context.Background(), CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-02"),
	})
	require.NoError(t, err)
	require.Len(t, days, 2)

	require.True(t, days[0].TotalWorkload.Equal(dec(t, "80")), "got %s", days[0].TotalWorkload)
	require.Len(t, days[0].Assignments, 2)

	// 2 件目は 3/1 で終了するので翌日は含まれない
	require.True(t, days[1].TotalWorkload.Equal(dec(t, "50")), "got %s", days[1].TotalWorkload)
	require.Len(t, days[1].Assignments, 1)
}

func TestCalculator_RoundsHalfUpToTwoDecimals(t *testing.T) {
	t.Parallel()

	// 30 × 0.333 × 0.5 = 4.995 -> 5.00
	emp := &employee.Employee{ID: 1, WorkTimeFactor: 0.333, PartTimeFactor: 50}
	allocations := &fakeAllocations{byEmployee: map[int64][]Allocation{
		1: {
			{AssignmentID: 10, AllocationPercentage: 30, Period: period("2024-03-01", "2024-03-01")},
			{AssignmentID: 11, AllocationPercentage: 10, Period: period("2024-03-01", "2024-03-01")},
		},
	}}
	calc := NewCalculator(fakeEmployees{1: emp}, allocations, nil)

	days, err := calc.CalculateWorkload(context.Background(), CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-01"),
	})
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.True(t, days[0].Assignments[0].EffectiveAllocation.Equal(dec(t, "5")), "got %s", days[0].Assignments[0].EffectiveAllocation)
	// 10 × 0.1665 = 1.665 -> 1.67
	require.True(t, days[0].Assignments[1].EffectiveAllocation.Equal(dec(t, "1.67")), "got %s", days[0].Assignments[1].EffectiveAllocation)
	require.True(t, days[0].TotalWorkload.Equal(dec(t, "6.67")), "got %s", days[0].TotalWorkload)
}

func TestCalculator_Idempotent(t *testing.T) {
	t.Parallel()

	allocations := &fakeAllocations{byEmployee: map[int64][]Allocation{
		1: {{AssignmentID: 10, ProjectID: 100, AllocationPercentage: 40, Period: period("2024-03-05", "2024-03-08")}},
	}}
	calc := NewCalculator(fakeEmployees{1: fullTimer(1)}, allocations, nil)
	in := CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-10"),
	}

	first, err := calc.CalculateWorkload(context.Background(), in)
	require.NoError(t, err)
	second, err := calc.CalculateWorkload(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		require.True(t, first[i].Date.Equal(second[i].Date))
		require.True(t, first[i].TotalWorkload.Equal(second[i].TotalWorkload))
		require.Len(t, second[i].Assignments, len(first[i].Assignments))
	}
}

func TestCalculator_PassesQueryAndExclusion(t *testing.T) {
	t.Parallel()

	allocations := &fakeAllocations{byEmployee: map[int64][]Allocation{
		1: {{AssignmentID: 10, AllocationPercentage: 60, Period: period("2024-03-01", "2024-03-31")}},
	}}
	calc := NewCalculator(fakeEmployees{1: fullTimer(1)}, allocations, nil)

	exclude := int64(10)
	days, err := calc.CalculateWorkload(context.Background(), CalculateWorkloadInput{
		EmployeeID:          1,
		Start:               calendar.MustParseDate("2024-03-01"),
		End:                 calendar.MustParseDate("2024-03-02"),
		ExcludeAssignmentID: &exclude,
	})
	require.NoError(t, err)
	require.True(t, MaxTotalWorkload(days).IsZero())

	require.Len(t, allocations.queries, 1)
	q := allocations.queries[0]
	require.Equal(t, int64(1), q.EmployeeID)
	require.Equal(t, "2024-03-01..2024-03-02", q.Period.String())
	require.NotNil(t, q.ExcludeAssignmentID)
	require.Equal(t, int64(10), *q.ExcludeAssignmentID)
}

func TestCalculator_Errors(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(fakeEmployees{1: fullTimer(1)}, &fakeAllocations{}, nil)
	ctx := context.Background()

	_, err := calc.CalculateWorkload(ctx, CalculateWorkloadInput{
		EmployeeID: 99,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-01"),
	})
	require.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	require.ErrorIs(t, err, failure.ErrNotFound)

	_, err = calc.CalculateWorkload(ctx, CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-02"),
		End:        calendar.MustParseDate("2024-03-01"),
	})
	require.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = calc.CalculateWorkload(ctx, CalculateWorkloadInput{
		EmployeeID: 0,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-01"),
	})
	require.ErrorIs(t, err, ErrInvalidEmployeeID)

	boom := errors.New("boom")
	broken := NewCalculator(fakeEmployees{1: fullTimer(1)}, &fakeAllocations{err: boom}, nil)
	_, err = broken.CalculateWorkload(ctx, CalculateWorkloadInput{
		EmployeeID: 1,
		Start:      calendar.MustParseDate("2024-03-01"),
		End:        calendar.MustParseDate("2024-03-01"),
	})
	require.ErrorIs(t, err, boom)
}
