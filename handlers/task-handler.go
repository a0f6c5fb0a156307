package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"taskflow/services/tasks-service/middleware"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func taskID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid task ID format", models.ErrValidation)
	}
	return id, nil
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var input models.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request payload", models.ErrValidation))
		return
	}

	task, err := h.service.CreateTask(r.Context(), middleware.ActorEmail(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "task": task})
}

// GetTasks lists tasks for the requested view: assigned (default), created,
// self or all.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	view := services.TaskView(r.URL.Query().Get("view"))
	if view == "" {
		view = services.ViewAssigned
	}

	tasks, err := h.service.ListTasks(r.Context(), middleware.ActorEmail(r), view)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "tasks": tasks})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.GetTask(r.Context(), middleware.ActorEmail(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Status == "" {
		writeError(w, fmt.Errorf("%w: status is required", models.ErrValidation))
		return
	}

	task, err := h.service.UpdateStatus(r.Context(), middleware.ActorEmail(r), id, request.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

func (h *TaskHandler) ForwardTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		AssignedToEmail string `json:"assignedToEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.AssignedToEmail == "" {
		writeError(w, fmt.Errorf("%w: new assignee is required", models.ErrValidation))
		return
	}

	task, err := h.service.Forward(r.Context(), middleware.ActorEmail(r), id, request.AssignedToEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request payload", models.ErrValidation))
		return
	}

	task, err := h.service.AddComment(r.Context(), middleware.ActorEmail(r), id, request.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteTask(r.Context(), middleware.ActorEmail(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task deleted successfully"})
}

func (h *TaskHandler) GetPendingApprovals(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListPendingApprovals(r.Context(), middleware.ActorEmail(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "tasks": tasks})
}

func (h *TaskHandler) ApproveTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		Comments string `json:"comments"`
	}
	json.NewDecoder(r.Body).Decode(&request)

	task, err := h.service.Approve(r.Context(), middleware.ActorEmail(r), id, request.Comments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task approved successfully", "task": task})
}

func (h *TaskHandler) RejectTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&request)

	task, err := h.service.Reject(r.Context(), middleware.ActorEmail(r), id, request.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task rejected successfully", "task": task})
}
