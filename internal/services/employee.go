package services

import (
	"context"
	"time"

	"github.com/empdesk/apiserver/types"
)

// EmployeeRepository defines persistence operations for employees.
type EmployeeRepository interface {
	List(ctx context.Context) ([]types.Employee, error)
	Get(ctx context.Context, id int) (types.Employee, error)
	Create(ctx context.Context, employee types.Employee) (types.Employee, error)
	Update(ctx context.Context, id int, patch types.EmployeePatch) (types.Employee, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// EmployeeService encapsulates employee use-cases.
type EmployeeService struct {
	repo   EmployeeRepository
	events *EventEmitter
	now    func() time.Time
}

func NewEmployeeService(repo EmployeeRepository, events *EventEmitter) *EmployeeService {
	return &EmployeeService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *EmployeeService) List(ctx context.Context) ([]types.Employee, error) {
	return s.repo.List(ctx)
}

func (s *EmployeeService) Get(ctx context.Context, id int) (types.Employee, error) {
	return s.repo.Get(ctx, id)
}

// Create fills defaults for empty picture and start date and stores the
// record under a freshly allocated id.
func (s *EmployeeService) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	employee.ID = 0
	created, err := s.repo.Create(ctx, employee.WithDefaults(s.now()))
	if err != nil {
		return types.Employee{}, err
	}
	s.events.Emit(ctx, types.Event{
		Type:       types.EventEmployeeCreated,
		EmployeeID: created.ID,
		Employee:   &created,
	})
	return created, nil
}

// Update merge-patches the stored record.
func (s *EmployeeService) Update(ctx context.Context, id int, patch types.EmployeePatch) (types.Employee, error) {
	var (
		updated types.Employee
		err     error
	)
	if patch.IsEmpty() {
		updated, err = s.repo.Get(ctx, id)
	} else {
		updated, err = s.repo.Update(ctx, id, patch)
	}
	if err != nil {
		return types.Employee{}, err
	}
	s.events.Emit(ctx, types.Event{
		Type:       types.EventEmployeeUpdated,
		EmployeeID: updated.ID,
		Employee:   &updated,
	})
	return updated, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Emit(ctx, types.Event{
		Type:       types.EventEmployeeDeleted,
		EmployeeID: id,
	})
	return nil
}

func (s *EmployeeService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// SeedDemo inserts the demo record shown by a fresh installation.
func (s *EmployeeService) SeedDemo(ctx context.Context) (types.Employee, error) {
	return s.Create(ctx, types.Employee{
		Picture:   types.DefaultPicture,
		Name:      "John Doe",
		Age:       "30",
		City:      "New York",
		Email:     "john@example.com",
		Phone:     "12345678901",
		Post:      "Developer",
		StartDate: "2024-01-15",
	})
}
