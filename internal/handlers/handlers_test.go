package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"taskManagement/internal/handlers"
	"taskManagement/internal/handlers/dto"
	"taskManagement/internal/models/task"
	"taskManagement/internal/models/user"
	"taskManagement/internal/repository"
	"taskManagement/internal/service"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

var _ handlers.Service = (*MockTaskService)(nil)

func (m *MockTaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) CreateTask(ctx context.Context, draft task.Draft) (*task.Task, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ReorderTasks(ctx context.Context, category string, ids []primitive.ObjectID) error {
	args := m.Called(ctx, category, ids)
	return args.Error(0)
}

func (m *MockTaskService) MoveTask(ctx context.Context, taskID primitive.ObjectID, category string, layout []task.Placement) error {
	args := m.Called(ctx, taskID, category, layout)
	return args.Error(0)
}

func (m *MockTaskService) PatchTask(ctx context.Context, id primitive.ObjectID, patch task.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockTaskService) ReplaceTask(ctx context.Context, id primitive.ObjectID, replacement task.Replacement) error {
	args := m.Called(ctx, id, replacement)
	return args.Error(0)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUserService - мок сервиса пользователей
type MockUserService struct {
	mock.Mock
}

var _ handlers.UserService = (*MockUserService)(nil)

func (m *MockUserService) ListUsers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, doc user.User) (repository.InsertResult, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(repository.InsertResult), args.Error(1)
}

type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func newRouter(tasks *MockTaskService, users *MockUserService) http.Handler {
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, handlers.NewTaskHandler(tasks), handlers.NewUserHandler(users))
	return r
}

func doRequest(h http.Handler, method, target, body, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body dto.MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Message
}

func TestTaskHandler_Root(t *testing.T) {
	h := newRouter(new(MockTaskService), new(MockUserService))

	w := doRequest(h, http.MethodGet, "/", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Server is running", w.Body.String())
}

// TestTaskHandler_HealthCheck тестирует проверку здоровья
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedState  string
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name: "error - store unavailable",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)), http.MethodGet, "/health", "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.expectedState, body["status"])
			assert.Equal(t, "task-management", body["service"])

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ListTasks тестирует фильтр и сортировку списка
func TestTaskHandler_ListTasks(t *testing.T) {
	stored := []*task.Task{
		{ID: primitive.NewObjectID(), Title: "a", Description: "d", Category: "todo", Position: 0},
		{ID: primitive.NewObjectID(), Title: "b", Description: "d", Category: "todo", Position: 1},
	}

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedCount  int
	}{
		{
			name:   "all tasks",
			target: "/tasks",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, repository.TaskFilter{}).Return(stored, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:   "category sorted by position",
			target: "/tasks?category=todo&sort=position",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, repository.TaskFilter{Category: "todo", SortByPosition: true}).
					Return(stored, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:   "empty list is an array",
			target: "/tasks?category=none",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, repository.TaskFilter{Category: "none"}).
					Return([]*task.Task{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name:           "error - unsupported sort",
			target:         "/tasks?sort=title",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - store failure",
			target: "/tasks",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, repository.TaskFilter{}).
					Return(nil, service.NewStoreError("Failed to fetch tasks", errors.New("timeout")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)), http.MethodGet, tt.target, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response []dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Len(t, response, tt.expectedCount)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	taskID := primitive.NewObjectID()
	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		requestBody     string
		contentType     string
		setupMock       func(*MockTaskService)
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:        "success - create task",
			requestBody: `{"title":"Write report","description":"Q3","category":"todo","dueDate":"2025-06-01T12:00:00Z"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(d task.Draft) bool {
					return d.Title == "Write report" && d.Category == "todo" &&
						d.DueDate != nil && d.DueDate.Equal(due)
				})).Return(&task.Task{
					ID:          taskID,
					Title:       "Write report",
					Description: "Q3",
					Category:    "todo",
					Position:    3,
					DueDate:     &due,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "success - content type with charset",
			requestBody: `{"title":"a","description":"b","category":"c"}`,
			contentType: "application/json; charset=utf-8",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, task.Draft{Title: "a", Description: "b", Category: "c"}).
					Return(&task.Task{ID: taskID, Title: "a", Description: "b", Category: "c"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedCode:   "UNSUPPORTED_MEDIA_TYPE",
		},
		{
			name:            "error - invalid JSON",
			requestBody:     `{invalid json}`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    service.CodeValidation,
			expectedMessage: "Invalid request body",
		},
		{
			name:            "error - missing category",
			requestBody:     `{"title":"a","description":"b"}`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    service.CodeValidation,
			expectedMessage: "All fields (title, description, category) are required",
		},
		{
			name:            "error - bad due date",
			requestBody:     `{"title":"a","description":"b","category":"c","dueDate":"someday"}`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    service.CodeValidation,
			expectedMessage: "Invalid due date format",
		},
		{
			name:        "error - store failure",
			requestBody: `{"title":"a","description":"b","category":"c"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, service.NewStoreError("Server error", errors.New("disk full")))
			},
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    service.CodeStore,
			expectedMessage: "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)),
				http.MethodPost, "/tasks", tt.requestBody, tt.contentType)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, taskID, response.ID)
			} else {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, body.Error)
				if tt.expectedMessage != "" {
					assert.Equal(t, tt.expectedMessage, body.Message)
				}
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ReorderTasks тестирует переупорядочивание в категории
func TestTaskHandler_ReorderTasks(t *testing.T) {
	first, second := primitive.NewObjectID(), primitive.NewObjectID()

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success",
			requestBody: `{"category":"todo","tasks":["` + second.Hex() + `","` + first.Hex() + `"]}`,
			setupMock: func(m *MockTaskService) {
				m.On("ReorderTasks", mock.Anything, "todo", []primitive.ObjectID{second, first}).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - empty list",
			requestBody:    `{"category":"todo","tasks":[]}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - malformed id",
			requestBody:    `{"category":"todo","tasks":["not-an-id"]}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - batch failed",
			requestBody: `{"category":"todo","tasks":["` + first.Hex() + `"]}`,
			setupMock: func(m *MockTaskService) {
				m.On("ReorderTasks", mock.Anything, "todo", []primitive.ObjectID{first}).
					Return(service.NewStoreError("Failed to update task positions", errors.New("bulk write")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)),
				http.MethodPatch, "/tasks/order", tt.requestBody, "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "Task positions updated successfully", decodeMessage(t, w))
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_MoveTask тестирует перенос задачи между категориями
func TestTaskHandler_MoveTask(t *testing.T) {
	moved, other := primitive.NewObjectID(), primitive.NewObjectID()
	layout := `[{"_id":"` + moved.Hex() + `","position":0},{"_id":"` + other.Hex() + `","position":1}]`

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedField  string
	}{
		{
			name:        "success",
			requestBody: `{"taskId":"` + moved.Hex() + `","category":"doing","tasks":` + layout + `}`,
			setupMock: func(m *MockTaskService) {
				m.On("MoveTask", mock.Anything, moved, "doing", []task.Placement{
					{ID: moved, Position: 0},
					{ID: other, Position: 1},
				}).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - missing position",
			requestBody:    `{"taskId":"` + moved.Hex() + `","category":"doing","tasks":[{"_id":"` + moved.Hex() + `"}]}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "tasks[0].position",
		},
		{
			name:           "error - negative position",
			requestBody:    `{"taskId":"` + moved.Hex() + `","category":"doing","tasks":[{"_id":"` + moved.Hex() + `","position":-1}]}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "tasks[0].position",
		},
		{
			name:           "error - malformed task id",
			requestBody:    `{"taskId":"xyz","category":"doing","tasks":` + layout + `}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - batch failed",
			requestBody: `{"taskId":"` + moved.Hex() + `","category":"doing","tasks":` + layout + `}`,
			setupMock: func(m *MockTaskService) {
				m.On("MoveTask", mock.Anything, moved, "doing", mock.Anything).
					Return(service.NewStoreError("Failed to move task", errors.New("bulk write")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)),
				http.MethodPatch, "/tasks/move", tt.requestBody, "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			switch {
			case tt.expectedStatus == http.StatusOK:
				assert.Equal(t, "Task moved and positions updated successfully", decodeMessage(t, w))
			case tt.expectedField != "":
				assert.Equal(t, tt.expectedField, decodeError(t, w).Details["field"])
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_PatchTaskByID тестирует частичное обновление
func TestTaskHandler_PatchTaskByID(t *testing.T) {
	taskID := primitive.NewObjectID()

	tests := []struct {
		name           string
		target         string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - empty strings dropped",
			target:      "/tasks/" + taskID.Hex(),
			requestBody: `{"title":"","description":"new","position":0}`,
			setupMock: func(m *MockTaskService) {
				m.On("PatchTask", mock.Anything, taskID, mock.MatchedBy(func(p task.Patch) bool {
					return p.Title == nil && p.Description != nil && *p.Description == "new" &&
						p.Position != nil && *p.Position == 0
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "error - nothing to update",
			target:      "/tasks/" + taskID.Hex(),
			requestBody: `{}`,
			setupMock: func(m *MockTaskService) {
				m.On("PatchTask", mock.Anything, taskID, mock.Anything).
					Return(service.NewBusinessError(service.CodeValidation, "At least one field must be provided to update."))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid id",
			target:         "/tasks/123",
			requestBody:    `{"title":"x"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - bad due date",
			target:         "/tasks/" + taskID.Hex(),
			requestBody:    `{"dueDate":"31.12.2025"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - not found",
			target:      "/tasks/" + taskID.Hex(),
			requestBody: `{"title":"x"}`,
			setupMock: func(m *MockTaskService) {
				m.On("PatchTask", mock.Anything, taskID, mock.Anything).
					Return(service.NewNotFound("Task not found or no changes made", taskID.Hex()))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)),
				http.MethodPatch, tt.target, tt.requestBody, "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "Task updated successfully", decodeMessage(t, w))
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует полную замену текстовых полей
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	taskID := primitive.NewObjectID()
	onlyTitle := mock.MatchedBy(func(r task.Replacement) bool {
		return r.Title != nil && *r.Title == "only title" && r.Description == nil && r.Category == nil
	})

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success",
			target: "/tasks/" + taskID.Hex(),
			setupMock: func(m *MockTaskService) {
				m.On("ReplaceTask", mock.Anything, taskID, onlyTitle).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid id",
			target:         "/tasks/zzzzzzzzzzzzzzzzzzzzzzzz",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - not found",
			target: "/tasks/" + taskID.Hex(),
			setupMock: func(m *MockTaskService) {
				m.On("ReplaceTask", mock.Anything, taskID, onlyTitle).Return(service.NewNotFound("Task not found", taskID.Hex()))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)),
				http.MethodPut, tt.target, `{"title":"only title"}`, "application/json")

			assert.Equal(t, tt.expectedStatus, w.Code)
			switch tt.expectedStatus {
			case http.StatusOK:
				assert.Equal(t, "Task updated successfully", decodeMessage(t, w))
			case http.StatusBadRequest:
				assert.Equal(t, service.CodeValidation, decodeError(t, w).Error)
				mockService.AssertNotCalled(t, "ReplaceTask", mock.Anything, mock.Anything, mock.Anything)
			case http.StatusNotFound:
				assert.Equal(t, service.CodeNotFound, decodeError(t, w).Error)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTaskByID тестирует удаление
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	taskID := primitive.NewObjectID()

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success",
			target: "/tasks/" + taskID.Hex(),
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, taskID).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "error - not found",
			target: "/tasks/" + taskID.Hex(),
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, taskID).Return(service.NewNotFound("Task not found", taskID.Hex()))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "error - invalid id",
			target:         "/tasks/zzzzzzzzzzzzzzzzzzzzzzzz",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - unexpected error",
			target: "/tasks/" + taskID.Hex(),
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, taskID).Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUserService)), http.MethodDelete, tt.target, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "Task deleted successfully", decodeMessage(t, w))
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestUserHandler тестирует маршруты пользователей
func TestUserHandler(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("list users", func(t *testing.T) {
		users := new(MockUserService)
		users.On("ListUsers", mock.Anything).Return([]user.User{{"_id": userID.Hex(), "name": "Ann"}}, nil)

		w := doRequest(newRouter(new(MockTaskService), users), http.MethodGet, "/users", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Ann", body[0]["name"])
		users.AssertExpectations(t)
	})

	t.Run("create user", func(t *testing.T) {
		users := new(MockUserService)
		users.On("CreateUser", mock.Anything, user.User{"name": "Ann", "age": float64(30)}).
			Return(repository.InsertResult{Acknowledged: true, InsertedID: userID}, nil)

		w := doRequest(newRouter(new(MockTaskService), users),
			http.MethodPost, "/users", `{"name":"Ann","age":30}`, "application/json")

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, true, body["acknowledged"])
		assert.Equal(t, userID.Hex(), body["insertedId"])
		users.AssertExpectations(t)
	})

	t.Run("store failure maps to bad request", func(t *testing.T) {
		users := new(MockUserService)
		users.On("CreateUser", mock.Anything, mock.Anything).
			Return(repository.InsertResult{}, service.NewStoreError("Error creating user", errors.New("duplicate key")))

		w := doRequest(newRouter(new(MockTaskService), users),
			http.MethodPost, "/users", `{"name":"Ann"}`, "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, service.CodeStore, body.Error)
		assert.Equal(t, "duplicate key", body.Details["cause"])
	})

	t.Run("null document rejected", func(t *testing.T) {
		w := doRequest(newRouter(new(MockTaskService), new(MockUserService)),
			http.MethodPost, "/users", `null`, "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskHandler_ConcurrentRequests тестирует параллельные запросы
func TestTaskHandler_ConcurrentRequests(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("ListTasks", mock.Anything, repository.TaskFilter{}).Return([]*task.Task{}, nil)
	h := newRouter(mockService, new(MockUserService))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doRequest(h, http.MethodGet, "/tasks", "", "")
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	mockService.AssertNumberOfCalls(t, "ListTasks", 20)
}
