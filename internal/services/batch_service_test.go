package services

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/pkg/constants"
	"servo-system/pkg/taskqueue"
)

type batchFixture struct {
	*orderFixture

	batch     BatchServiceInterface
	taskQueue *fakeTaskQueue
}

func newBatchFixture() *batchFixture {
	base := newOrderFixture()
	f := &batchFixture{
		orderFixture: base,
		taskQueue:    &fakeTaskQueue{},
	}
	f.batch = NewBatchService(base.orderRepo, base.service, f.taskQueue, zap.NewNop())
	return f
}

func TestBatchProcess(t *testing.T) {
	f := newBatchFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	first, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
	require.NoError(t, err)
	second, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Разбит экран"})
	require.NoError(t, err)

	t.Run("несуществующий код пропускается, остальные обрабатываются", func(t *testing.T) {
		processed, err := f.batch.Process(ctx, dto.BatchProcessDTO{
			OrderCodes: []string{*first.Code, "SRV999999", *second.Code},
			Action:     constants.ActSetPrio,
			Value:      "2",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, processed)

		saved, _ := f.orderRepo.FindByID(ctx, nil, first.ID)
		assert.Equal(t, constants.PrioHigh, saved.Priority)
		saved, _ = f.orderRepo.FindByID(ctx, nil, second.ID)
		assert.Equal(t, constants.PrioHigh, saved.Priority)
	})

	t.Run("неизвестное действие не обрабатывает ничего", func(t *testing.T) {
		processed, err := f.batch.Process(ctx, dto.BatchProcessDTO{
			OrderCodes: []string{*first.Code},
			Action:     "EXPLODE",
			Value:      "1",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, processed)
	})
}

func TestBatchSendSMS(t *testing.T) {
	f := newBatchFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	withPhone, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{
		Description:   "Не включается",
		CustomerPhone: "+79990001122",
	})
	require.NoError(t, err)
	withoutPhone, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Разбит экран"})
	require.NoError(t, err)

	processed, err := f.batch.Process(ctx, dto.BatchProcessDTO{
		OrderCodes: []string{*withPhone.Code, *withoutPhone.Code},
		Action:     constants.ActSendSMS,
		Value:      "Ваше устройство готово к выдаче",
	})
	require.NoError(t, err)

	// Заявка без телефона считается ошибкой, а не тихим пропуском.
	assert.Equal(t, 1, processed)
	require.Len(t, f.taskQueue.jobs, 1)
	assert.Equal(t, constants.JobSendSMS, f.taskQueue.jobs[0].Type)
}

func TestBatchEnqueue(t *testing.T) {
	f := newBatchFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	err := f.batch.Enqueue(ctx, dto.BatchProcessDTO{
		OrderCodes: []string{"SRV000001"},
		Action:     constants.ActSetPrio,
		Value:      "2",
	})
	require.NoError(t, err)

	require.Len(t, f.taskQueue.jobs, 1)
	assert.Equal(t, constants.JobBatchProcess, f.taskQueue.jobs[0].Type)

	// Инициатор сохраняется в задаче: воркер работает от его имени.
	payload, ok := f.taskQueue.jobs[0].Payload.(batchJobPayload)
	require.True(t, ok)
	assert.Equal(t, creator.ID, payload.UserID)
}

func TestBatchHandleJob(t *testing.T) {
	f := newBatchFixture()
	worker := f.addUser("Воркер", true)
	ctx := ctxWithUser(worker.ID)

	order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
	require.NoError(t, err)

	raw, err := json.Marshal(batchJobPayload{
		UserID:     worker.ID,
		Action:     constants.ActSetUser,
		Value:      strconv.FormatUint(worker.ID, 10),
		OrderCodes: []string{*order.Code},
	})
	require.NoError(t, err)

	// Воркер получает задачу без пользовательского контекста: инициатор
	// восстанавливается из полезной нагрузки.
	require.NoError(t, f.batch.HandleJob(context.Background(), taskqueue.Job{
		Type:    constants.JobBatchProcess,
		Payload: raw,
	}))

	saved, _ := f.orderRepo.FindByID(ctx, nil, order.ID)
	require.NotNil(t, saved.UserID)
	assert.Equal(t, worker.ID, *saved.UserID)
	assert.Equal(t, constants.StateOpen, saved.State)
}

func TestBatchHandleJobBadPayload(t *testing.T) {
	f := newBatchFixture()
	err := f.batch.HandleJob(context.Background(), taskqueue.Job{
		Type:    constants.JobBatchProcess,
		Payload: []byte("{не json"),
	})
	assert.Error(t, err)
}
