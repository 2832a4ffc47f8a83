package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/task"
	"taskManagement/internal/repository"
	"taskManagement/internal/service"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const generationKey = "tasks:generation"

// Repository кэширует списки задач в Redis поверх любого бэкенда.
// Любая запись задач увеличивает поколение, старые ключи доживают до TTL.
type Repository struct {
	service.Repository
	redis *redis.Client
	ttl   time.Duration
}

func New(base service.Repository, client *redis.Client, ttl time.Duration) *Repository {
	if base == nil {
		panic("cache.New: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Repository{
		Repository: base,
		redis:      client,
		ttl:        ttl,
	}
}

func (c *Repository) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error) {
	key, ok := c.listKey(ctx, filter)
	if ok {
		if tasks, hit := c.load(ctx, key); hit {
			return tasks, nil
		}
	}

	tasks, err := c.Repository.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}

	if ok {
		c.store(ctx, key, tasks)
	}
	return tasks, nil
}

func (c *Repository) InsertTask(ctx context.Context, t *task.Task) error {
	defer c.invalidate(ctx)
	return c.Repository.InsertTask(ctx, t)
}

func (c *Repository) UpdateTask(ctx context.Context, id primitive.ObjectID, update task.Update) (repository.UpdateResult, error) {
	defer c.invalidate(ctx)
	return c.Repository.UpdateTask(ctx, id, update)
}

func (c *Repository) DeleteTask(ctx context.Context, id primitive.ObjectID) (int64, error) {
	defer c.invalidate(ctx)
	return c.Repository.DeleteTask(ctx, id)
}

// при частичном применении пакета кэш тоже должен устареть, поэтому сброс безусловный
func (c *Repository) ApplyPositions(ctx context.Context, placements []task.Placement) (repository.BatchResult, error) {
	defer c.invalidate(ctx)
	return c.Repository.ApplyPositions(ctx, placements)
}

func (c *Repository) Close(ctx context.Context) error {
	err := c.Repository.Close(ctx)
	if closeErr := c.redis.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

func (c *Repository) listKey(ctx context.Context, filter repository.TaskFilter) (string, bool) {
	generation, err := c.redis.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("Cache: Redis недоступен, читаем из хранилища", zap.Error(err))
		return "", false
	}
	return "tasks:list:" + strconv.FormatInt(generation, 10) +
		":" + url.QueryEscape(filter.Category) +
		":" + strconv.FormatBool(filter.SortByPosition), true
}

func (c *Repository) load(ctx context.Context, key string) ([]*task.Task, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Cache: Ошибка чтения", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var tasks []*task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Repository) store(ctx context.Context, key string, tasks []*task.Task) {
	if c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("Cache: Ошибка записи", zap.String("key", key), zap.Error(err))
	}
}

func (c *Repository) invalidate(ctx context.Context) {
	if err := c.redis.Incr(context.WithoutCancel(ctx), generationKey).Err(); err != nil {
		logger.Warn("Cache: Не удалось сбросить кэш", zap.Error(err))
	}
}
