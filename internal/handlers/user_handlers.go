package handlers

import (
	"net/http"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/user"
	"time"

	"go.uber.org/zap"
)

type UserHandler struct {
	UserService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		UserService: userService,
	}
}

func (s *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	users, err := s.UserService.ListUsers(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Пользователи получены",
		zap.Int("count", len(users)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, users)
}

// PostUser сохраняет документ без проверки схемы. Отказ хранилища отдаётся как 400.
func (s *UserHandler) PostUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var doc user.User
	if berr := decodeBody(w, r, &doc); berr != nil {
		handleError(w, r, berr)
		return
	}
	if doc == nil {
		handleError(w, r, invalidRequest("User document must be a JSON object"))
		return
	}

	result, err := s.UserService.CreateUser(r.Context(), doc)
	if err != nil {
		handleErrorWithStatus(w, r, err, http.StatusBadRequest)
		return
	}

	logger.Info("HTTP_OUT: Пользователь создан",
		zap.String("user_id", result.InsertedID.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, result)
}
