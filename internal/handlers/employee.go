package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/empdesk/apiserver/internal/services"
	"github.com/empdesk/apiserver/internal/store"
	"github.com/empdesk/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxJSONBodyBytes = 1 << 20
	msgUserNotFound  = "User not found"
	msgInvalidBody   = "invalid request body"
)

var (
	errTrailingData = errors.New("unexpected data after JSON body")
	errNullBody     = errors.New("JSON body must not be null")
)

// EmployeeHandler provides HTTP handlers for employee records.
type EmployeeHandler struct {
	employeeService *services.EmployeeService
	logger          *slog.Logger
}

// NewEmployeeHandler constructs a handler with the provided service.
func NewEmployeeHandler(employeeService *services.EmployeeService, logger *slog.Logger) *EmployeeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeHandler{
		employeeService: employeeService,
		logger:          logger,
	}
}

// EmployeeRouter registers employee routes on the given router.
func EmployeeRouter(r chi.Router, employeeService *services.EmployeeService, logger *slog.Logger) {
	handler := NewEmployeeHandler(employeeService, logger)

	r.Get("/", handler.ListEmployees)
	r.Post("/", handler.CreateEmployee)
	r.Route("/{employeeID}", func(r chi.Router) {
		r.Get("/", handler.GetEmployee)
		r.Put("/", handler.UpdateEmployee)
		r.Delete("/", handler.DeleteEmployee)
	})
}

func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employeeService.List(r.Context())
	if err != nil {
		h.internalError(w, "failed to list users", err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEmployeeID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	employee, err := h.employeeService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.internalError(w, "failed to fetch user", err)
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req types.Employee
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	created, err := h.employeeService.Create(r.Context(), req)
	if err != nil {
		h.internalError(w, "failed to create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEmployeeID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	var patch types.EmployeePatch
	if err := decodeJSONBody(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	updated, err := h.employeeService.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.internalError(w, "failed to update user", err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEmployeeID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	if err := h.employeeService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.internalError(w, "failed to delete user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EmployeeHandler) internalError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, message)
}

// parseEmployeeID reports false for ids that cannot name a record.
func parseEmployeeID(r *http.Request) (int, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// decodeJSONBody decodes a single JSON value from the request body. An empty
// body decodes as an empty object; null and trailing data are rejected.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	if bytes.Equal(raw, []byte("null")) {
		return errNullBody
	}
	return json.Unmarshal(raw, dst)
}
