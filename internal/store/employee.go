package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/empdesk/apiserver/types"
)

const employeeColumns = `id, picture, employee_name, employee_age, employee_city, employee_email, employee_phone, employee_post, start_date`

// EmployeeRepository handles persistence for employees in a SQL database.
// Queries use numbered $N placeholders in order of appearance, which both
// PostgreSQL and SQLite bind positionally.
type EmployeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository returns a repository for a PostgreSQL or SQLite
// connection.
func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) List(ctx context.Context) ([]types.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]types.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, id int) (types.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	employee, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Employee{}, ErrNotFound
		}
		return types.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO employees (picture, employee_name, employee_age, employee_city, employee_email, employee_phone, employee_post, start_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		employee.Picture,
		employee.Name,
		employee.Age,
		employee.City,
		employee.Email,
		employee.Phone,
		employee.Post,
		employee.StartDate,
		now,
		now,
	).Scan(&employee.ID); err != nil {
		return types.Employee{}, err
	}

	return employee, nil
}

// Update applies the patch in a single statement; NULL parameters keep the
// current column value.
func (r *EmployeeRepository) Update(ctx context.Context, id int, patch types.EmployeePatch) (types.Employee, error) {
	query := `
		UPDATE employees
		SET picture = COALESCE($1, picture),
			employee_name = COALESCE($2, employee_name),
			employee_age = COALESCE($3, employee_age),
			employee_city = COALESCE($4, employee_city),
			employee_email = COALESCE($5, employee_email),
			employee_phone = COALESCE($6, employee_phone),
			employee_post = COALESCE($7, employee_post),
			start_date = COALESCE($8, start_date),
			updated_at = $9
		WHERE id = $10
		RETURNING ` + employeeColumns
	employee, err := scanEmployee(r.db.QueryRowContext(
		ctx,
		query,
		patch.Picture,
		patch.Name,
		patch.Age,
		patch.City,
		patch.Email,
		patch.Phone,
		patch.Post,
		patch.StartDate,
		time.Now().UTC(),
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Employee{}, ErrNotFound
		}
		return types.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM employees WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM employees`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (types.Employee, error) {
	var employee types.Employee
	err := row.Scan(
		&employee.ID,
		&employee.Picture,
		&employee.Name,
		&employee.Age,
		&employee.City,
		&employee.Email,
		&employee.Phone,
		&employee.Post,
		&employee.StartDate,
	)
	return employee, err
}
