package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"servo-system/internal/services"
	"servo-system/pkg/contextkeys"
)

// RepairStatusJob периодически опрашивает внешнюю систему по всем открытым
// поданным ремонтам. Расписание — раз в десять минут: чаще GSX опрашивать
// бессмысленно, статусы меняются редко.
type RepairStatusJob struct {
	repairService services.RepairServiceInterface
	systemUserID  uint64
	cron          *cron.Cron
	logger        *zap.Logger
}

func NewRepairStatusJob(repairService services.RepairServiceInterface, systemUserID uint64, logger *zap.Logger) *RepairStatusJob {
	return &RepairStatusJob{
		repairService: repairService,
		systemUserID:  systemUserID,
		cron:          cron.New(),
		logger:        logger.Named("repair_status_job"),
	}
}

func (j *RepairStatusJob) Start() error {
	_, err := j.cron.AddFunc("*/10 * * * *", func() {
		ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, j.systemUserID)

		changed, err := j.repairService.RefreshStatuses(ctx)
		if err != nil {
			j.logger.Error("Опрос статусов ремонтов завершился ошибкой", zap.Error(err))
			return
		}
		if changed > 0 {
			j.logger.Info("Статусы ремонтов обновлены", zap.Int("changed", changed))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Опрос статусов ремонтов запущен")
	return nil
}

func (j *RepairStatusJob) Stop() {
	j.cron.Stop()
	j.logger.Info("Опрос статусов ремонтов остановлен")
}
