package board

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/settings"
	"github.com/burnsbert/crumbwise/internal/store"
	"github.com/burnsbert/crumbwise/internal/wiki"
)

// Handler exposes the board service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register wires every API route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sections", h.GetSections)
	mux.HandleFunc("GET /api/current-quarter", h.GetCurrentQuarter)
	mux.HandleFunc("GET /api/week-dates", h.GetWeekDates)

	mux.HandleFunc("GET /api/tasks", h.GetTasks)
	mux.HandleFunc("POST /api/tasks", h.AddTask)
	mux.HandleFunc("PUT /api/tasks/{id}", h.UpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.DeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/complete", h.ToggleComplete)
	mux.HandleFunc("POST /api/tasks/{id}/assign", h.AssignTask)
	mux.HandleFunc("POST /api/tasks/{id}/unassign", h.UnassignTask)
	mux.HandleFunc("POST /api/tasks/{id}/priority", h.SetPriority)
	mux.HandleFunc("POST /api/tasks/reorder", h.ReorderTasks)

	mux.HandleFunc("POST /api/new-week", h.NewWeek)
	mux.HandleFunc("POST /api/undo-new-week", h.UndoNewWeek)
	mux.HandleFunc("GET /api/can-undo", h.CanUndo)

	mux.HandleFunc("GET /api/timeline", h.GetTimeline)
	mux.HandleFunc("GET /api/projects/{id}/timeline", h.GetProjectTimeline)
	mux.HandleFunc("POST /api/projects/{id}/reorder", h.ReorderProject)

	mux.HandleFunc("GET /api/settings", h.GetSettings)
	mux.HandleFunc("POST /api/settings", h.UpdateSettings)
	mux.HandleFunc("GET /api/notes", h.GetNotes)
	mux.HandleFunc("POST /api/notes", h.SaveNotes)

	mux.HandleFunc("POST /api/sync-confluence", h.SyncConfluence)
	mux.HandleFunc("GET /api/calendar", h.GetCalendar)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeServiceErr(w http.ResponseWriter, err error) {
	writeErr(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrProjectNotFound),
		errors.Is(err, ErrNotProject):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidSection),
		errors.Is(err, ErrTextRequired),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrNotAssigned),
		errors.Is(err, store.ErrNoUndo),
		errors.Is(err, wiki.ErrNotConfigured),
		errors.Is(err, wiki.ErrBadURL):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) GetSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SectionTable())
}

func (h *Handler) GetCurrentQuarter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"quarter": h.svc.CurrentQuarter()})
}

func (h *Handler) GetWeekDates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.WeekDates())
}

func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.Tasks()
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type addTaskRequest struct {
	Section string `json:"section"`
	Text    string `json:"text"`
}

func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, err := h.svc.AddTask(req.Section, req.Text)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, err := h.svc.UpdateTask(model.TaskID(r.PathValue("id")), patch)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(model.TaskID(r.PathValue("id"))); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.ToggleComplete(model.TaskID(r.PathValue("id")))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type assignRequest struct {
	ProjectID string `json:"projectId"`
}

func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProjectID == "" {
		writeErr(w, http.StatusBadRequest, "projectId required")
		return
	}
	t, err := h.svc.Assign(model.TaskID(r.PathValue("id")), req.ProjectID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) UnassignTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Unassign(model.TaskID(r.PathValue("id")))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, err := h.svc.SetPriority(model.TaskID(r.PathValue("id")), req.Priority)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type reorderRequest struct {
	TaskID  string `json:"taskId"`
	Section string `json:"section"`
	Index   int    `json:"index"`
}

func (h *Handler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TaskID == "" || req.Section == "" {
		writeErr(w, http.StatusBadRequest, "taskId and section required")
		return
	}
	if err := h.svc.Reorder(model.TaskID(req.TaskID), req.Section, req.Index); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) NewWeek(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.NewWeek(); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "canUndo": true})
}

func (h *Handler) UndoNewWeek(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.UndoNewWeek(); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) CanUndo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"canUndo": h.svc.CanUndo()})
}

func weekOffset(r *http.Request) int {
	raw := r.URL.Query().Get("week_offset")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.WeekTimeline(weekOffset(r))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) GetProjectTimeline(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.ProjectTimeline(r.PathValue("id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type projectReorderRequest struct {
	TaskIDs []string `json:"taskIds"`
}

func (h *Handler) ReorderProject(w http.ResponseWriter, r *http.Request) {
	var req projectReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.svc.ReorderProject(r.PathValue("id"), req.TaskIDs); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	pub, err := h.svc.Settings()
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u settings.Update
	if err := decodeJSON(r, &u); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.svc.UpdateSettings(u); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Notes()
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"notes": notes})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.svc.SaveNotes(req.Notes); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) SyncConfluence(w http.ResponseWriter, r *http.Request) {
	err := h.svc.SyncConfluence(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Confluence page updated"})
		return
	}
	var upstream *wiki.UpstreamError
	if errors.As(err, &upstream) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   upstream.Error(),
			"status":  upstream.Status,
			"details": upstream.Details,
		})
		return
	}
	writeServiceErr(w, err)
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.CalendarWeek(r.Context(), weekOffset(r))
	if err != nil {
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}
