package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeWithDefaults(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))

	t.Run("fills empty picture and start date", func(t *testing.T) {
		e := Employee{Name: "Alice"}.WithDefaults(now)

		assert.Equal(t, DefaultPicture, e.Picture)
		assert.Equal(t, "2024-03-09", e.StartDate)
		assert.Equal(t, "Alice", e.Name)
		assert.Empty(t, e.City)
	})

	t.Run("keeps provided values", func(t *testing.T) {
		e := Employee{Picture: "http://x/y.png", StartDate: "2020-01-01"}.WithDefaults(now)

		assert.Equal(t, "http://x/y.png", e.Picture)
		assert.Equal(t, "2020-01-01", e.StartDate)
	})
}

func TestEmployeePatchApply(t *testing.T) {
	base := Employee{ID: 7, Name: "Alice", City: "Paris", Email: "a@example.com"}

	var patch EmployeePatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":99,"employeeCity":"Berlin","employeeEmail":""}`), &patch))

	got := patch.Apply(base)

	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "Berlin", got.City)
	assert.Equal(t, "", got.Email)
	assert.False(t, patch.IsEmpty())
}

func TestEmployeePatchIsEmpty(t *testing.T) {
	var patch EmployeePatch
	require.NoError(t, json.Unmarshal([]byte(`{"unknown":"x"}`), &patch))

	assert.True(t, patch.IsEmpty())
	assert.Equal(t, Employee{ID: 1, Name: "Bob"}, patch.Apply(Employee{ID: 1, Name: "Bob"}))
}

func TestEmployeeJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(Employee{ID: 1, Name: "Alice"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"id", "picture", "employeeName", "employeeAge", "employeeCity", "employeeEmail", "employeePhone", "employeePost", "startDate"} {
		assert.Contains(t, fields, key)
	}
}
