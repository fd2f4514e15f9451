package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/employee"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/workload"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// EmployeeLocker は社員行をロックします。存在しなければ employee.ErrEmployeeNotFound を返します。
type EmployeeLocker interface {
	LockByID(ctx context.Context, id int64) (*employee.Employee, error)
}

// WorkloadValidator は稼働率の検証を行います。
type WorkloadValidator interface {
	ValidateAssignment(ctx context.Context, in workload.ValidateAssignmentInput) (*workload.ValidationResult, error)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

var inputValidator = validator.New(validator.WithRequiredStructEnabled())

// Service はアサインの作成・更新・終了を、検証と永続化を一つのトランザクションとして調整します。
type Service struct {
	repo      Repository
	employees EmployeeLocker
	validator WorkloadValidator
	tx        TransactionManager
	clock     Clock
	locker    Locker
	logger    *slog.Logger
	metrics   Metrics
	timeout   time.Duration
}

// UseCase はアサインユースケースの公開インターフェースです。
type UseCase interface {
	CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Assignment, error)
	UpdateAssignment(ctx context.Context, in UpdateAssignmentInput) (*Assignment, error)
	TerminateAssignment(ctx context.Context, in TerminateAssignmentInput) (*Assignment, error)
	GetAssignment(ctx context.Context, in GetAssignmentInput) (*Assignment, error)
	ListAssignments(ctx context.Context, in ListAssignmentsInput) (*ListAssignmentsResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeLocker, validator WorkloadValidator, tx TransactionManager, opts ...Option) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{
		repo:      repo,
		employees: employees,
		validator: validator,
		tx:        tx,
		clock:     realClock{},
		locker:    noopLocker{},
		logger:    slog.New(slog.DiscardHandler),
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAssignmentInput はアサイン作成時の入力です。
type CreateAssignmentInput struct {
	EmployeeID           int64  `validate:"gt=0"`
	ProjectID            int64  `validate:"gt=0"`
	RequirementID        *int64 `validate:"omitempty,gt=0"`
	AllocationPercentage int
	StartDate            calendar.Date
	EndDate              calendar.Date
	Notes                *string `validate:"omitempty,max=2000"`
}

// UpdateAssignmentInput はアサイン更新時の入力です。nil のフィールドは変更しません。
// NULL を許容する列は XxxSet が true の場合のみ反映し、値が nil なら NULL に戻します。
type UpdateAssignmentInput struct {
	ID                   int64  `validate:"gt=0"`
	ProjectID            *int64 `validate:"omitempty,gt=0"`
	RequirementID        *int64 `validate:"omitempty,gt=0"`
	RequirementIDSet     bool
	AllocationPercentage *int
	StartDate            *calendar.Date
	EndDate              *calendar.Date
	Notes                *string `validate:"omitempty,max=2000"`
	NotesSet             bool
}

// TerminateAssignmentInput はアサイン終了時の入力です。
type TerminateAssignmentInput struct {
	ID     int64
	Reason string
}

// GetAssignmentInput はアサイン取得時の入力です。
type GetAssignmentInput struct {
	ID int64
}

// ListAssignmentsInput は一覧取得時の入力です。
type ListAssignmentsInput struct {
	EmployeeID *int64 `validate:"omitempty,gt=0"`
	ProjectID  *int64 `validate:"omitempty,gt=0"`
	Status     *Status
	PageSize   int
	PageToken  string
}

// ListAssignmentsResult は一覧取得結果を表します。
type ListAssignmentsResult struct {
	Assignments   []*Assignment
	NextPageToken string
}

// CreateAssignment は稼働率を検証したうえでアサインを作成します。
// 検証で拒否された場合は *ValidationError を返し、行は書き込みません。
func (s *Service) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (_ *Assignment, err error) {
	defer s.observe("create", time.Now(), &err)

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := validatePeriod(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var created *Assignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		unlock, err := s.lockEmployee(txCtx, in.EmployeeID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return ErrEmployeeReference
			}
			return err
		}
		defer unlock()

		check, err := s.checkWorkload(txCtx, workload.ValidateAssignmentInput{
			EmployeeID:           in.EmployeeID,
			Start:                in.StartDate,
			End:                  in.EndDate,
			AllocationPercentage: in.AllocationPercentage,
		})
		if err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Assignment{
			EmployeeID:           in.EmployeeID,
			ProjectID:            in.ProjectID,
			RequirementID:        cloneInt64(in.RequirementID),
			AllocationPercentage: in.AllocationPercentage,
			StartDate:            in.StartDate,
			EndDate:              in.EndDate,
			Status:               StatusActive,
			WorkloadWarning:      check.Warning,
			Notes:                normalizeNotes(in.Notes),
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment created",
		"assignment_id", created.ID,
		"employee_id", created.EmployeeID,
		"allocation", created.AllocationPercentage,
		"workload_warning", created.WorkloadWarning,
	)
	return created, nil
}

// UpdateAssignment はアサインを部分更新します。
// 割合・期間が変わる場合は自身の既存稼働を除外して再検証し、警告フラグを再計算します。
func (s *Service) UpdateAssignment(ctx context.Context, in UpdateAssignmentInput) (_ *Assignment, err error) {
	defer s.observe("update", time.Now(), &err)

	if err := validateInput(in); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *Assignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		snapshot, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		unlock, err := s.lockEmployee(txCtx, snapshot.EmployeeID)
		if err != nil {
			return err
		}
		defer unlock()

		current, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}

		merged, workloadChanged, err := applyPatch(current, in)
		if err != nil {
			return err
		}

		if workloadChanged {
			if merged.IsActive() {
				exclude := merged.ID
				check, err := s.checkWorkload(txCtx, workload.ValidateAssignmentInput{
					EmployeeID:           merged.EmployeeID,
					Start:                merged.StartDate,
					End:                  merged.EndDate,
					AllocationPercentage: merged.AllocationPercentage,
					ExcludeAssignmentID:  &exclude,
				})
				if err != nil {
					return err
				}
				merged.WorkloadWarning = check.Warning
			} else if !workload.IsValidAllocation(merged.AllocationPercentage) {
				// 終了済みは稼働に寄与しないが、刻みの規則は維持する
				return &ValidationError{Message: workload.MessageAllocationStep}
			}
		}

		merged.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, merged)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment updated",
		"assignment_id", updated.ID,
		"employee_id", updated.EmployeeID,
		"workload_warning", updated.WorkloadWarning,
	)
	return updated, nil
}

// TerminateAssignment はアサインを終了状態にし、終了理由を記録します。
// 稼働を減らす操作なので稼働率の再検証は行いません。
func (s *Service) TerminateAssignment(ctx context.Context, in TerminateAssignmentInput) (_ *Assignment, err error) {
	defer s.observe("terminate", time.Now(), &err)

	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrTerminationReasonRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var terminated *Assignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if !current.IsActive() {
			return ErrAlreadyTerminated
		}

		current.Status = StatusTerminated
		current.TerminationReason = &reason
		current.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, current)
		if err != nil {
			return err
		}

		terminated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment terminated", "assignment_id", terminated.ID, "employee_id", terminated.EmployeeID)
	return terminated, nil
}

// GetAssignment はアサインを取得します。
func (s *Service) GetAssignment(ctx context.Context, in GetAssignmentInput) (*Assignment, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var result *Assignment
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListAssignments はアサインの一覧を取得します。
func (s *Service) ListAssignments(ctx context.Context, in ListAssignmentsInput) (*ListAssignmentsResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var (
		assignments []*Assignment
		nextToken   string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, ListAssignmentsFilter{
			EmployeeID: cloneInt64(in.EmployeeID),
			ProjectID:  cloneInt64(in.ProjectID),
			Status:     statusPtr,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		assignments = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListAssignmentsResult{Assignments: assignments, NextPageToken: nextToken}, nil
}

// lockEmployee はプロセス内ロックと社員行ロックを順に取得します。
// プロセス内ロックはトランザクション終了前に解放されるが、社員行ロックがコミットまで直列化を保つ。
func (s *Service) lockEmployee(ctx context.Context, employeeID int64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.employees.LockByID(ctx, employeeID); err != nil {
		unlock()
		return nil, err
	}
	return unlock, nil
}

func (s *Service) checkWorkload(ctx context.Context, in workload.ValidateAssignmentInput) (*workload.ValidationResult, error) {
	result, err := s.validator.ValidateAssignment(ctx, in)
	if err != nil {
		return nil, err
	}

	switch {
	case !result.Valid:
		s.metrics.RecordValidation("rejected")
		s.logger.InfoContext(ctx, "assignment rejected by workload validation",
			"employee_id", in.EmployeeID,
			"period", in.Start.String()+".."+in.End.String(),
			"allocation", in.AllocationPercentage,
			"reason", result.Message,
		)
		return nil, &ValidationError{Message: result.Message}
	case result.Warning:
		s.metrics.RecordValidation("warning")
	default:
		s.metrics.RecordValidation("accepted")
	}
	return result, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) observe(op string, started time.Time, errp *error) {
	outcome := outcomeOf(*errp)
	if outcome == "error" {
		s.logger.Error("assignment operation failed", "op", op, "error", *errp)
	}
	s.metrics.ObserveOperation(op, outcome, time.Since(started))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, failure.ErrValidation):
		return "invalid"
	case errors.Is(err, failure.ErrNotFound):
		return "not_found"
	case errors.Is(err, failure.ErrReferenceNotFound):
		return "reference_not_found"
	case errors.Is(err, failure.ErrTransient):
		return "transient"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}

func applyPatch(current *Assignment, in UpdateAssignmentInput) (*Assignment, bool, error) {
	merged := cloneAssignment(current)
	workloadChanged := false

	if in.ProjectID != nil {
		merged.ProjectID = *in.ProjectID
	}
	if in.RequirementIDSet {
		merged.RequirementID = cloneInt64(in.RequirementID)
	}
	if in.AllocationPercentage != nil && *in.AllocationPercentage != current.AllocationPercentage {
		merged.AllocationPercentage = *in.AllocationPercentage
		workloadChanged = true
	}
	if in.StartDate != nil && !in.StartDate.Equal(current.StartDate) {
		merged.StartDate = *in.StartDate
		workloadChanged = true
	}
	if in.EndDate != nil && !in.EndDate.Equal(current.EndDate) {
		merged.EndDate = *in.EndDate
		workloadChanged = true
	}
	if in.NotesSet {
		merged.Notes = normalizeNotes(in.Notes)
	}

	if err := validatePeriod(merged.StartDate, merged.EndDate); err != nil {
		return nil, false, err
	}

	return merged, workloadChanged, nil
}

func validateInput(in any) error {
	err := inputValidator.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].StructField() {
		case "ID":
			return ErrInvalidID
		case "EmployeeID":
			return ErrInvalidEmployeeID
		case "ProjectID":
			return ErrInvalidProjectID
		case "RequirementID":
			return ErrInvalidRequirementID
		case "Notes":
			return ErrInvalidNotes
		}
	}
	return fmt.Errorf("assignment: validate input: %w", err)
}

func validatePeriod(start, end calendar.Date) error {
	if _, err := calendar.NewRange(start, end); err != nil {
		if errors.Is(err, calendar.ErrInvalidRange) {
			return ErrInvalidPeriod
		}
		return err
	}
	return nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

func cloneAssignment(a *Assignment) *Assignment {
	clone := *a
	clone.RequirementID = cloneInt64(a.RequirementID)
	clone.TerminationReason = cloneString(a.TerminationReason)
	clone.Notes = cloneString(a.Notes)
	return &clone
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusTerminated:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
