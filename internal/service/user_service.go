package service

import (
	"context"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/user"
	"taskManagement/internal/repository"

	"go.uber.org/zap"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		logger.Error("Service: Ошибка получения пользователей", err)
		return nil, NewStoreError("Failed to fetch users", err)
	}
	return users, nil
}

// CreateUser сохраняет документ как есть, уникальность не проверяется
func (s *UserService) CreateUser(ctx context.Context, doc user.User) (repository.InsertResult, error) {
	result, err := s.repo.InsertUser(ctx, doc.WithoutID())
	if err != nil {
		logger.Error("Service: Ошибка создания пользователя", err)
		return repository.InsertResult{}, NewStoreError("Error creating user", err)
	}

	logger.Info("Service: Пользователь создан", zap.String("user_id", result.InsertedID.Hex()))
	return result, nil
}
