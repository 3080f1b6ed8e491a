package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/integrations/gsx"
	gsxmock "servo-system/internal/integrations/gsx/mock"
	"servo-system/pkg/constants"
	apperrors "servo-system/pkg/errors"
)

// repairFixture надстраивает orderFixture ремонтным сервисом и имитацией
// внешней системы.
type repairFixture struct {
	*orderFixture

	repairs      RepairServiceInterface
	itemRepo     *fakeOrderItemRepo
	purchaseRepo *fakePurchaseRepo
	gsxClient    *gsxmock.Client
}

func newRepairFixture() *repairFixture {
	base := newOrderFixture()
	f := &repairFixture{
		orderFixture: base,
		itemRepo:     newFakeOrderItemRepo(),
		purchaseRepo: newFakePurchaseRepo(),
		gsxClient:    gsxmock.New(zap.NewNop()),
	}
	f.repairs = NewRepairService(
		&fakeTxManager{}, base.repairRepo, base.orderRepo, f.itemRepo,
		f.purchaseRepo, base.deviceRepo, base.accountRepo, f.gsxClient,
		base.service, zap.NewNop(),
	)
	return f
}

// newDraft готовит заявку с устройством, учётной записью и позицией-заменой,
// затем создаёт черновик ремонта.
func (f *repairFixture) newDraft(t *testing.T, ctx context.Context) (*entities.Repair, *entities.ServiceOrderItem) {
	t.Helper()

	order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
	require.NoError(t, err)

	deviceID, err := f.deviceRepo.Create(ctx, nil, &entities.Device{SN: "C02XXTEST", Description: "MacBook Pro"})
	require.NoError(t, err)
	f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1, SoldTo: "0001145678"}

	item := &entities.ServiceOrderItem{
		OrderID: order.ID, ProductID: 1,
		Code: "661-07891", Title: "Плата логики",
		Amount: 1, Price: 35000,
		SN: "NEWSN1", KbbSN: "OLDSN1",
		PartType: constants.PartTypeReplacement,
	}
	itemID, err := f.itemRepo.Create(ctx, nil, item)
	require.NoError(t, err)
	item.ID = itemID

	repair, err := f.repairs.Create(ctx, dto.CreateRepairDTO{
		OrderID: order.ID, DeviceID: deviceID, GsxAccountID: 1,
		RepairType: "CIN", Symptom: "Не включается", Diagnosis: "Замена платы",
		OrderItemIDs: []uint64{itemID},
	})
	require.NoError(t, err)
	return repair, item
}

func gsxCreateRequest(sn string) gsx.CreateRepairRequest {
	return gsx.CreateRepairRequest{
		RepairType:   "CIN",
		Symptom:      "Не включается",
		Diagnosis:    "Замена платы",
		SerialNumber: sn,
		Parts:        []gsx.RepairPartRequest{{Code: "661-07891"}},
	}
}

func TestRepairCreate(t *testing.T) {
	f := newRepairFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	t.Run("детали создаются из позиций заявки по порядку", func(t *testing.T) {
		repair, item := f.newDraft(t, ctx)

		parts, err := f.repairs.ListParts(ctx, repair.ID)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, item.Code, parts[0].Code)
		assert.Equal(t, 1, parts[0].SequenceNo)
		require.NotNil(t, parts[0].OrderItemID)
		assert.Equal(t, item.ID, *parts[0].OrderItemID)
	})

	t.Run("mark_complete требует ровно одну заменяемую деталь", func(t *testing.T) {
		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Полосы на экране"})
		require.NoError(t, err)
		deviceID, _ := f.deviceRepo.Create(ctx, nil, &entities.Device{SN: "C02XXTES2"})

		itemID, _ := f.itemRepo.Create(ctx, nil, &entities.ServiceOrderItem{
			OrderID: order.ID, Code: "923-00001", PartType: constants.PartTypeAdjustment, Amount: 1,
		})

		_, err = f.repairs.Create(ctx, dto.CreateRepairDTO{
			OrderID: order.ID, DeviceID: deviceID, GsxAccountID: 1,
			RepairType: "CIN", Symptom: "Полосы", Diagnosis: "Юстировка",
			MarkComplete: true,
			OrderItemIDs: []uint64{itemID},
		})
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("чужая позиция заявки отклоняется", func(t *testing.T) {
		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Разбит экран"})
		require.NoError(t, err)
		other, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Другая заявка"})
		require.NoError(t, err)
		deviceID, _ := f.deviceRepo.Create(ctx, nil, &entities.Device{SN: "C02XXTES3"})

		foreignID, _ := f.itemRepo.Create(ctx, nil, &entities.ServiceOrderItem{
			OrderID: other.ID, Code: "661-00002", PartType: constants.PartTypeReplacement, Amount: 1,
		})

		_, err = f.repairs.Create(ctx, dto.CreateRepairDTO{
			OrderID: order.ID, DeviceID: deviceID, GsxAccountID: 1,
			RepairType: "CIN", Symptom: "Разбит экран", Diagnosis: "Замена",
			OrderItemIDs: []uint64{foreignID},
		})
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestCanMarkComplete(t *testing.T) {
	f := newRepairFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	t.Run("одна заменяемая деталь", func(t *testing.T) {
		repair, _ := f.newDraft(t, ctx)

		ok, err := f.repairs.CanMarkComplete(ctx, repair.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("любая вторая деталь ломает условие", func(t *testing.T) {
		repair, _ := f.newDraft(t, ctx)

		// Считается общее число деталей: даже незаменяемая вторая
		// деталь делает ремонт непригодным для mark_complete.
		itemID, _ := f.itemRepo.Create(ctx, nil, &entities.ServiceOrderItem{
			OrderID: repair.OrderID, Code: "923-00001", PartType: constants.PartTypeAdjustment, Amount: 1,
		})
		_, err := f.repairRepo.CreatePart(ctx, nil, &entities.ServicePart{
			RepairID: repair.ID, OrderItemID: &itemID, Code: "923-00001", SequenceNo: 2,
		})
		require.NoError(t, err)

		ok, err := f.repairs.CanMarkComplete(ctx, repair.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("деталь, принятая из внешней системы, тоже считается", func(t *testing.T) {
		repair, _ := f.newDraft(t, ctx)

		_, err := f.repairRepo.CreatePart(ctx, nil, &entities.ServicePart{
			RepairID: repair.ID, Code: "661-00004", SequenceNo: 2,
		})
		require.NoError(t, err)

		ok, err := f.repairs.CanMarkComplete(ctx, repair.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("единственная деталь без позиции заявки — тип неизвестен", func(t *testing.T) {
		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Импортированный ремонт"})
		require.NoError(t, err)
		deviceID, _ := f.deviceRepo.Create(ctx, nil, &entities.Device{SN: "C02XXTES9"})
		f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1, SoldTo: "0001145678"}

		confirmation, err := f.gsxClient.CreateRepair(ctx, f.accountRepo.accounts[1], gsxCreateRequest("C02XXTES9"))
		require.NoError(t, err)
		imported, err := f.repairs.CreateFromRemote(ctx, dto.ImportRepairDTO{
			OrderID: order.ID, DeviceID: deviceID, GsxAccountID: 1,
			Confirmation: confirmation.Confirmation,
		})
		require.NoError(t, err)

		ok, err := f.repairs.CanMarkComplete(ctx, imported.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepairSubmit(t *testing.T) {
	t.Run("успешная подача: подтверждение, сверка деталей и заказ поставщику", func(t *testing.T) {
		f := newRepairFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		repair, item := f.newDraft(t, ctx)
		require.NoError(t, f.repairs.Submit(ctx, repair.ID))

		saved, err := f.repairs.FindRepair(ctx, repair.ID)
		require.NoError(t, err)
		assert.Equal(t, "G000000001", saved.Confirmation)
		assert.True(t, saved.IsSubmitted())

		parts, _ := f.repairs.ListParts(ctx, repair.ID)
		require.Len(t, parts, 1)
		assert.Equal(t, "Ordered", parts[0].OrderStatus)

		// Заказ поставщику создан автоматически и привязан к ремонту.
		po, err := f.purchaseRepo.FindByRepair(ctx, nil, repair.ID)
		require.NoError(t, err)
		assert.Equal(t, saved.Confirmation, po.Reference)
		require.NotNil(t, po.SubmittedAt)

		lines, _ := f.purchaseRepo.ListItems(ctx, nil, po.ID)
		require.Len(t, lines, 1)
		assert.Equal(t, item.Code, lines[0].Code)
		assert.Equal(t, item.Price, lines[0].Price)
		require.NotNil(t, lines[0].ServicePartID)
		assert.Equal(t, parts[0].ID, *lines[0].ServicePartID)
	})

	t.Run("повторная подача отклоняется", func(t *testing.T) {
		f := newRepairFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		repair, _ := f.newDraft(t, ctx)
		require.NoError(t, f.repairs.Submit(ctx, repair.ID))

		err := f.repairs.Submit(ctx, repair.ID)
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("при повторной подаче второй заказ поставщику не создаётся", func(t *testing.T) {
		f := newRepairFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		repair, _ := f.newDraft(t, ctx)
		require.NoError(t, f.repairs.Submit(ctx, repair.ID))
		_ = f.repairs.Submit(ctx, repair.ID)

		pos, _ := f.purchaseRepo.ListByOrder(ctx, repair.OrderID)
		assert.Len(t, pos, 1)
	})
}

func TestRepairClose(t *testing.T) {
	f := newRepairFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	repair, _ := f.newDraft(t, ctx)

	t.Run("черновик закрыть нельзя", func(t *testing.T) {
		err := f.repairs.Close(ctx, repair.ID)
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	require.NoError(t, f.repairs.Submit(ctx, repair.ID))

	t.Run("закрытие фиксирует завершение", func(t *testing.T) {
		require.NoError(t, f.repairs.Close(ctx, repair.ID))

		saved, _ := f.repairs.FindRepair(ctx, repair.ID)
		assert.True(t, saved.IsClosed())
		require.NotNil(t, saved.CompletedByID)
		assert.Equal(t, creator.ID, *saved.CompletedByID)
	})

	t.Run("повторное закрытие — no-op", func(t *testing.T) {
		saved, _ := f.repairs.FindRepair(ctx, repair.ID)
		completedAt := *saved.CompletedAt

		require.NoError(t, f.repairs.Close(ctx, repair.ID))

		again, _ := f.repairs.FindRepair(ctx, repair.ID)
		assert.Equal(t, completedAt, *again.CompletedAt)
	})

	t.Run("закрытая заявка не мешает завершению ремонта", func(t *testing.T) {
		other, _ := f.newDraft(t, ctx)
		require.NoError(t, f.repairs.Submit(ctx, other.ID))
		require.NoError(t, f.service.Close(ctx, other.OrderID))

		require.NoError(t, f.repairs.Close(ctx, other.ID))
		saved, _ := f.repairs.FindRepair(ctx, other.ID)
		assert.True(t, saved.IsClosed())
	})
}

// gsxCallRecorder фиксирует порядок обращений к внешней системе,
// остальное делегирует имитации.
type gsxCallRecorder struct {
	*gsxmock.Client
	calls []string
}

func (r *gsxCallRecorder) UpdateSerialNumbers(ctx context.Context, acc *entities.GsxAccount, confirmation string, updates []gsx.SerialUpdate) error {
	r.calls = append(r.calls, "update_serials")
	return r.Client.UpdateSerialNumbers(ctx, acc, confirmation, updates)
}

func (r *gsxCallRecorder) MarkRepairComplete(ctx context.Context, acc *entities.GsxAccount, confirmation string, replacementSN string) error {
	r.calls = append(r.calls, "mark_complete")
	return r.Client.MarkRepairComplete(ctx, acc, confirmation, replacementSN)
}

func TestRepairCloseUpdatesSerialsFirst(t *testing.T) {
	base := newOrderFixture()
	recorder := &gsxCallRecorder{Client: gsxmock.New(zap.NewNop())}
	f := &repairFixture{
		orderFixture: base,
		itemRepo:     newFakeOrderItemRepo(),
		purchaseRepo: newFakePurchaseRepo(),
		gsxClient:    recorder.Client,
	}
	f.repairs = NewRepairService(
		&fakeTxManager{}, base.repairRepo, base.orderRepo, f.itemRepo,
		f.purchaseRepo, base.deviceRepo, base.accountRepo, recorder,
		base.service, zap.NewNop(),
	)

	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	repair, _ := f.newDraft(t, ctx)
	require.NoError(t, f.repairs.Submit(ctx, repair.ID))
	require.NoError(t, f.repairs.Close(ctx, repair.ID))

	// Серийники переставляются, пока ремонт ещё не завершён во внешней
	// системе: после завершения он может быть недоступен для правок.
	assert.Equal(t, []string{"update_serials", "mark_complete"}, recorder.calls)
}

func TestResendPart(t *testing.T) {
	f := newRepairFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	repair, _ := f.newDraft(t, ctx)
	parts, _ := f.repairs.ListParts(ctx, repair.ID)
	require.Len(t, parts, 1)

	t.Run("до подачи повторная отправка невозможна", func(t *testing.T) {
		_, err := f.repairs.ResendPart(ctx, parts[0].ID)
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("после подачи создаётся деталь-замена со ссылкой на исходную", func(t *testing.T) {
		require.NoError(t, f.repairs.Submit(ctx, repair.ID))

		replacement, err := f.repairs.ResendPart(ctx, parts[0].ID)
		require.NoError(t, err)

		assert.Equal(t, parts[0].Code, replacement.Code)
		assert.Equal(t, 2, replacement.SequenceNo)
		require.NotNil(t, replacement.ReplacesPartID)
		assert.Equal(t, parts[0].ID, *replacement.ReplacesPartID)

		all, _ := f.repairs.ListParts(ctx, repair.ID)
		assert.Len(t, all, 2)
	})
}

func TestCreateFromRemote(t *testing.T) {
	f := newRepairFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
	require.NoError(t, err)
	deviceID, _ := f.deviceRepo.Create(ctx, nil, &entities.Device{SN: "C02XXTEST"})
	f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1, SoldTo: "0001145678"}

	// Ремонт существует только во внешней системе.
	confirmation, err := f.gsxClient.CreateRepair(ctx, f.accountRepo.accounts[1], gsxCreateRequest("C02XXTEST"))
	require.NoError(t, err)

	repair, err := f.repairs.CreateFromRemote(ctx, dto.ImportRepairDTO{
		OrderID: order.ID, DeviceID: deviceID, GsxAccountID: 1,
		Confirmation: confirmation.Confirmation,
	})
	require.NoError(t, err)

	assert.Equal(t, confirmation.Confirmation, repair.Confirmation)
	assert.True(t, repair.IsSubmitted())
	assert.Equal(t, "New", repair.Status)

	// Детали импортированы без привязки к позициям заявки.
	parts, _ := f.repairs.ListParts(ctx, repair.ID)
	require.Len(t, parts, 1)
	assert.Nil(t, parts[0].OrderItemID)

	t.Run("повторный импорт того же подтверждения — конфликт", func(t *testing.T) {
		_, err := f.repairs.CreateFromRemote(ctx, dto.ImportRepairDTO{
			OrderID: order.ID, DeviceID: deviceID, GsxAccountID: 1,
			Confirmation: confirmation.Confirmation,
		})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestRepairDuplicate(t *testing.T) {
	f := newRepairFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)

	source, _ := f.newDraft(t, ctx)
	require.NoError(t, f.repairs.Submit(ctx, source.ID))

	clone, err := f.repairs.Duplicate(ctx, source.ID)
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, clone.ID)
	assert.Equal(t, source.Symptom, clone.Symptom)
	// Состояние подачи не переносится.
	assert.False(t, clone.IsSubmitted())
	assert.Empty(t, clone.Confirmation)

	parts, _ := f.repairs.ListParts(ctx, clone.ID)
	assert.Len(t, parts, 1)
}
