package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/pkg/config"
	"servo-system/pkg/constants"
)

func newSettingsService(ttl time.Duration) (SettingsServiceInterface, *fakeCacheRepo) {
	cache := newFakeCacheRepo()
	cfg := &config.Config{SettingsTTL: ttl}
	return NewSettingsService(cache, cfg, zap.NewNop()), cache
}

func TestSettingsDefaults(t *testing.T) {
	svc, _ := newSettingsService(time.Minute)
	ctx := context.Background()

	// Пустой redis - инсталляция ещё не настроена.
	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, settings.AutocompleteRepairs)
	assert.True(t, settings.NotifySMS)
	assert.True(t, settings.NotifyEmail)
	assert.Equal(t, uint64(0), settings.CheckinQueueID)
}

func TestSettingsCorruptCache(t *testing.T) {
	svc, cache := newSettingsService(time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, constants.CacheKeySettings, "{битый json", 0))

	settings, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, settings.AutocompleteRepairs)
}

func TestSettingsUpdate(t *testing.T) {
	svc, cache := newSettingsService(time.Minute)
	ctx := context.Background()

	updated, err := svc.Update(ctx, dto.UpdateSettingsDTO{
		AutocompleteRepairs: null.BoolFrom(false),
		CheckinQueueID:      null.IntFrom(7),
	})
	require.NoError(t, err)

	// Не заданные в запросе поля остаются прежними.
	assert.False(t, updated.AutocompleteRepairs)
	assert.Equal(t, uint64(7), updated.CheckinQueueID)
	assert.True(t, updated.NotifySMS)
	assert.True(t, updated.NotifyEmail)

	// Обновление уходит в redis, а не только в память.
	raw, err := cache.Get(ctx, constants.CacheKeySettings)
	require.NoError(t, err)
	assert.Contains(t, raw, `"checkin_queue_id":7`)
}

func TestSettingsMemoryCopy(t *testing.T) {
	t.Run("свежая копия не ходит в redis", func(t *testing.T) {
		svc, cache := newSettingsService(time.Minute)
		ctx := context.Background()

		first, err := svc.Get(ctx)
		require.NoError(t, err)

		// Меняем redis за спиной сервиса: копия ещё свежая, изменение не видно.
		require.NoError(t, cache.Set(ctx, constants.CacheKeySettings, `{"notify_sms": false}`, 0))

		second, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.True(t, second.NotifySMS)
	})

	t.Run("нулевой TTL перечитывает на каждый запрос", func(t *testing.T) {
		svc, cache := newSettingsService(0)
		ctx := context.Background()

		_, err := svc.Get(ctx)
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, constants.CacheKeySettings, `{"notify_sms": false, "notify_email": true}`, 0))

		settings, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.False(t, settings.NotifySMS)
	})
}
