package store

import (
	"context"
	"sync"

	"github.com/empdesk/apiserver/types"
)

// MemoryEmployeeRepository keeps employees in process memory, in insertion
// order. Identifiers come from a dedicated counter so deleted ids are never
// handed out again.
type MemoryEmployeeRepository struct {
	mu        sync.RWMutex
	employees []types.Employee
	lastID    int
}

func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{employees: make([]types.Employee, 0)}
}

func (r *MemoryEmployeeRepository) List(ctx context.Context) ([]types.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employees := make([]types.Employee, len(r.employees))
	copy(employees, r.employees)
	return employees, nil
}

func (r *MemoryEmployeeRepository) Get(ctx context.Context, id int) (types.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return types.Employee{}, ErrNotFound
	}
	return r.employees[idx], nil
}

func (r *MemoryEmployeeRepository) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	employee.ID = r.lastID
	r.employees = append(r.employees, employee)
	return employee, nil
}

func (r *MemoryEmployeeRepository) Update(ctx context.Context, id int, patch types.EmployeePatch) (types.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return types.Employee{}, ErrNotFound
	}
	r.employees[idx] = patch.Apply(r.employees[idx])
	return r.employees[idx], nil
}

func (r *MemoryEmployeeRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	r.employees = append(r.employees[:idx], r.employees[idx+1:]...)
	return nil
}

func (r *MemoryEmployeeRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.employees), nil
}

// indexOf must be called with mu held.
func (r *MemoryEmployeeRepository) indexOf(id int) int {
	for i := range r.employees {
		if r.employees[i].ID == id {
			return i
		}
	}
	return -1
}
