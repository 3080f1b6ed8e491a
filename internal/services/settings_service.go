package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/repositories"
	"servo-system/pkg/config"
	"servo-system/pkg/constants"
)

// Settings — динамические настройки инсталляции. В отличие от config,
// меняются на лету без перезапуска.
type Settings struct {
	// Закрывать ли открытые ремонты при закрытии заявки.
	AutocompleteRepairs bool `json:"autocomplete_repairs"`

	// Очередь, в которую попадают заявки быстрой приёмки.
	CheckinQueueID uint64 `json:"checkin_queue_id"`

	NotifySMS   bool `json:"notify_sms"`
	NotifyEmail bool `json:"notify_email"`
}

type SettingsServiceInterface interface {
	Get(ctx context.Context) (Settings, error)
	Reload(ctx context.Context) (Settings, error)
	Update(ctx context.Context, payload dto.UpdateSettingsDTO) (Settings, error)
}

// SettingsService хранит настройки в redis и держит копию в памяти.
// Копия живёт SettingsTTL, после чего перечитывается — явный Reload,
// никакого фонового обновления.
type SettingsService struct {
	cache  repositories.CacheRepositoryInterface
	cfg    *config.Config
	logger *zap.Logger

	mu       sync.RWMutex
	current  Settings
	loadedAt time.Time
}

func NewSettingsService(cache repositories.CacheRepositoryInterface, cfg *config.Config, logger *zap.Logger) SettingsServiceInterface {
	return &SettingsService{cache: cache, cfg: cfg, logger: logger}
}

func defaultSettings() Settings {
	return Settings{
		AutocompleteRepairs: true,
		NotifySMS:           true,
		NotifyEmail:         true,
	}
}

func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	fresh := !s.loadedAt.IsZero() && time.Since(s.loadedAt) < s.cfg.SettingsTTL
	current := s.current
	s.mu.RUnlock()

	if fresh {
		return current, nil
	}
	return s.Reload(ctx)
}

// Reload перечитывает настройки из redis. Отсутствие ключа — не ошибка:
// инсталляция ещё не настроена, действуют значения по умолчанию.
func (s *SettingsService) Reload(ctx context.Context) (Settings, error) {
	raw, err := s.cache.Get(ctx, constants.CacheKeySettings)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return Settings{}, err
		}
		return s.store(defaultSettings()), nil
	}

	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.logger.Error("Не удалось разобрать настройки, действуют значения по умолчанию", zap.Error(err))
		return s.store(defaultSettings()), nil
	}
	return s.store(settings), nil
}

func (s *SettingsService) Update(ctx context.Context, payload dto.UpdateSettingsDTO) (Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if payload.AutocompleteRepairs.Valid {
		settings.AutocompleteRepairs = payload.AutocompleteRepairs.Bool
	}
	if payload.CheckinQueueID.Valid {
		settings.CheckinQueueID = uint64(payload.CheckinQueueID.Int)
	}
	if payload.NotifySMS.Valid {
		settings.NotifySMS = payload.NotifySMS.Bool
	}
	if payload.NotifyEmail.Valid {
		settings.NotifyEmail = payload.NotifyEmail.Bool
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return Settings{}, err
	}
	// Ключ живёт без TTL: срок жизни есть только у копии в памяти.
	if err := s.cache.Set(ctx, constants.CacheKeySettings, string(raw), 0); err != nil {
		return Settings{}, err
	}

	s.logger.Info("Настройки обновлены")
	return s.store(settings), nil
}

func (s *SettingsService) store(settings Settings) Settings {
	s.mu.Lock()
	s.current = settings
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return settings
}
