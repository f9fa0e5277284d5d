package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Endpoints lists the public API routes, as shown by the index route.
var Endpoints = []string{
	"GET    /api/users",
	"GET    /api/users/:id",
	"POST   /api/users",
	"PUT    /api/users/:id",
	"DELETE /api/users/:id",
	"POST   /api/upload",
	"GET    /health",
}

// HealthResponse reports liveness and the number of stored records.
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	UsersCount int    `json:"usersCount"`
}

// IndexResponse describes the API.
type IndexResponse struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// EmployeeCounter reports how many employee records exist.
type EmployeeCounter interface {
	Count(ctx context.Context) (int, error)
}

// SystemHandler serves the index and health routes.
type SystemHandler struct {
	employees EmployeeCounter
	logger    *slog.Logger
	now       func() time.Time
}

func NewSystemHandler(employees EmployeeCounter, logger *slog.Logger) *SystemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemHandler{employees: employees, logger: logger, now: time.Now}
}

func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Message:   "CRUD Backend API",
		Endpoints: Endpoints,
	})
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.employees.Count(r.Context())
	if err != nil {
		h.logger.Error("failed to count users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count users")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "OK",
		Timestamp:  h.now().UTC().Format(isoMillis),
		UsersCount: count,
	})
}
