package types

import "time"

// DefaultPicture is used when an employee is created without a picture URL.
const DefaultPicture = "https://via.placeholder.com/200"

// StartDateLayout is the calendar date format used for StartDate.
const StartDateLayout = "2006-01-02"

// Employee represents a single employee record managed by the admin panel.
// All descriptive attributes are stored verbatim as strings; no format
// checks are applied to email, phone or age values.
type Employee struct {
	// ID is the unique identifier of the employee. It is assigned by the
	// store on creation and is never reused, even after the record is deleted.
	ID int `json:"id" db:"id"`

	// Picture is the URL of the employee's profile image, typically one
	// returned by the upload endpoint.
	Picture string `json:"picture" db:"picture"`

	// Name is the employee's display name.
	Name string `json:"employeeName" db:"employee_name"`

	// Age is the employee's age as entered by the client.
	Age string `json:"employeeAge" db:"employee_age"`

	// City is the city the employee is based in.
	City string `json:"employeeCity" db:"employee_city"`

	// Email is the employee's contact email address.
	Email string `json:"employeeEmail" db:"employee_email"`

	// Phone is the employee's contact phone number.
	Phone string `json:"employeePhone" db:"employee_phone"`

	// Post is the employee's job title or position.
	Post string `json:"employeePost" db:"employee_post"`

	// StartDate is the employee's start date, formatted as YYYY-MM-DD.
	StartDate string `json:"startDate" db:"start_date"`
}

// WithDefaults returns a copy of e where empty Picture and StartDate are
// replaced by DefaultPicture and the calendar date of now (UTC).
func (e Employee) WithDefaults(now time.Time) Employee {
	if e.Picture == "" {
		e.Picture = DefaultPicture
	}
	if e.StartDate == "" {
		e.StartDate = now.UTC().Format(StartDateLayout)
	}
	return e
}

// EmployeePatch carries a partial update for an employee. A nil field is
// left untouched; a non-nil field overwrites the stored value, including
// with an empty string. The identifier is not patchable.
type EmployeePatch struct {
	Picture   *string `json:"picture,omitempty"`
	Name      *string `json:"employeeName,omitempty"`
	Age       *string `json:"employeeAge,omitempty"`
	City      *string `json:"employeeCity,omitempty"`
	Email     *string `json:"employeeEmail,omitempty"`
	Phone     *string `json:"employeePhone,omitempty"`
	Post      *string `json:"employeePost,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
}

// Apply merges the patch onto e and returns the result. The ID of e is kept.
func (p EmployeePatch) Apply(e Employee) Employee {
	assign(&e.Picture, p.Picture)
	assign(&e.Name, p.Name)
	assign(&e.Age, p.Age)
	assign(&e.City, p.City)
	assign(&e.Email, p.Email)
	assign(&e.Phone, p.Phone)
	assign(&e.Post, p.Post)
	assign(&e.StartDate, p.StartDate)
	return e
}

// IsEmpty reports whether the patch changes nothing.
func (p EmployeePatch) IsEmpty() bool {
	return p.Picture == nil &&
		p.Name == nil &&
		p.Age == nil &&
		p.City == nil &&
		p.Email == nil &&
		p.Phone == nil &&
		p.Post == nil &&
		p.StartDate == nil
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
