package handlers

import (
	"net/http"
	"taskManagement/internal/handlers/dto"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/task"
	"taskManagement/internal/repository"
	"taskManagement/internal/service"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is running"))
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "task-management"),
			toPayload("error", err.Error()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "task-management"),
	)
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	filter := repository.TaskFilter{Category: r.URL.Query().Get("category")}
	switch sortBy := r.URL.Query().Get("sort"); sortBy {
	case "":
	case "position":
		filter.SortByPosition = true
	default:
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "sort"),
			zap.String("value", sortBy),
			zap.String("client_ip", r.RemoteAddr))
		handleError(w, r, invalidRequest("Unsupported sort field", service.ToDetail("sort", sortBy)))
		return
	}

	tasks, err := s.TaskService.ListTasks(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateTaskRequest
	if berr := decodeBody(w, r, &request); berr != nil {
		if _, failedRule := berr.Details["rule"]; failedRule {
			// текст совпадает с проверкой в сервисе
			berr.Message = "All fields (title, description, category) are required"
		}
		handleError(w, r, berr)
		return
	}

	var dueDate *time.Time
	if request.DueDate != nil {
		parsed, err := task.ParseDueDate(*request.DueDate)
		if err != nil {
			logger.Warn("HTTP: Ошибка валидации",
				zap.String("field", "dueDate"),
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))
			handleError(w, r, invalidRequest("Invalid due date format", service.ToDetail("field", "dueDate")))
			return
		}
		dueDate = parsed
	}

	created, err := s.TaskService.CreateTask(r.Context(), task.Draft{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		DueDate:     dueDate,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromTask(created))
}

func (s *TaskHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.ReorderTasksRequest
	if berr := decodeBody(w, r, &request); berr != nil {
		handleError(w, r, berr)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(request.Tasks))
	for _, raw := range request.Tasks {
		id, ok := parseObjectID(raw)
		if !ok {
			handleError(w, r, invalidRequest("Invalid task ID", service.ToDetail("id", raw)))
			return
		}
		ids = append(ids, id)
	}

	if err := s.TaskService.ReorderTasks(r.Context(), request.Category, ids); err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Порядок задач обновлён",
		zap.String("category", request.Category),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Task positions updated successfully")
}

func (s *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.MoveTaskRequest
	if berr := decodeBody(w, r, &request); berr != nil {
		handleError(w, r, berr)
		return
	}

	taskID, ok := parseObjectID(request.TaskID)
	if !ok {
		handleError(w, r, invalidRequest("Invalid task ID", service.ToDetail("taskId", request.TaskID)))
		return
	}

	layout := make([]task.Placement, 0, len(request.Tasks))
	for _, p := range request.Tasks {
		id, ok := parseObjectID(p.ID)
		if !ok {
			handleError(w, r, invalidRequest("Invalid task ID", service.ToDetail("id", p.ID)))
			return
		}
		layout = append(layout, task.Placement{ID: id, Position: *p.Position})
	}

	if err := s.TaskService.MoveTask(r.Context(), taskID, request.Category, layout); err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задача перемещена",
		zap.String("task_id", taskID.Hex()),
		zap.String("category", request.Category),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Task moved and positions updated successfully")
}

func (s *TaskHandler) PatchTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, berr := pathID(r)
	if berr != nil {
		handleError(w, r, berr)
		return
	}

	var request dto.PatchTaskRequest
	if berr := decodeBody(w, r, &request); berr != nil {
		handleError(w, r, berr)
		return
	}

	var dueDate *time.Time
	if request.DueDate != nil {
		parsed, err := task.ParseDueDate(*request.DueDate)
		if err != nil {
			logger.Warn("HTTP: Ошибка валидации",
				zap.String("field", "dueDate"),
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))
			handleError(w, r, invalidRequest("Invalid due date format", service.ToDetail("field", "dueDate")))
			return
		}
		dueDate = parsed
	}

	patch := task.NewPatch(request.Options(dueDate)...)
	if err := s.TaskService.PatchTask(r.Context(), id, patch); err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Task updated successfully")
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, berr := pathID(r)
	if berr != nil {
		handleError(w, r, berr)
		return
	}

	var request dto.ReplaceTaskRequest
	if berr := decodeBody(w, r, &request); berr != nil {
		handleError(w, r, berr)
		return
	}

	if err := s.TaskService.ReplaceTask(r.Context(), id, request.Replacement()); err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задача перезаписана",
		zap.String("task_id", id.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Task updated successfully")
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, berr := pathID(r)
	if berr != nil {
		handleError(w, r, berr)
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Task deleted successfully")
}
