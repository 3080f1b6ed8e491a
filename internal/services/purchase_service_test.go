package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	gsxmock "servo-system/internal/integrations/gsx/mock"
	"servo-system/pkg/config"
	"servo-system/pkg/constants"
	apperrors "servo-system/pkg/errors"
)

type purchaseFixture struct {
	*orderFixture

	purchases     PurchaseServiceInterface
	purchaseRepo  *fakePurchaseRepo
	inventoryRepo *fakeInventoryRepo
}

func newPurchaseFixture() *purchaseFixture {
	base := newOrderFixture()
	f := &purchaseFixture{
		orderFixture:  base,
		purchaseRepo:  newFakePurchaseRepo(),
		inventoryRepo: newFakeInventoryRepo(),
	}
	cfg := &config.Config{Install: config.InstallConfig{ID: "SRV", LocationID: 1, SystemUserID: 1}}
	f.purchases = NewPurchaseService(
		&fakeTxManager{}, f.purchaseRepo, f.inventoryRepo, base.accountRepo,
		gsxmock.New(zap.NewNop()), base.service, cfg, zap.NewNop(),
	)
	return f
}

func (f *purchaseFixture) addProduct(code string, price float64) uint64 {
	id, _ := f.inventoryRepo.CreateProduct(context.Background(), nil, &entities.Product{
		Code: code, Title: "Деталь " + code, Price: price,
	})
	return id
}

func TestPurchaseCreate(t *testing.T) {
	f := newPurchaseFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)
	productID := f.addProduct("661-07891", 35000)

	po, err := f.purchases.Create(ctx, dto.CreatePurchaseOrderDTO{
		SupplierName: "GSX",
		Items: []dto.CreatePurchaseOrderItemDTO{
			{ProductID: productID, Amount: 2},
		},
	})
	require.NoError(t, err)

	items, err := f.purchases.ListItems(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	// Код, название и цена берутся из номенклатуры.
	assert.Equal(t, "661-07891", items[0].Code)
	assert.Equal(t, float64(35000), items[0].Price)
	assert.Equal(t, 2, items[0].Amount)
}

func TestPurchaseSubmit(t *testing.T) {
	f := newPurchaseFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)
	f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1, ShipTo: "0001145679"}
	productID := f.addProduct("661-07891", 35000)

	order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
	require.NoError(t, err)

	po, err := f.purchases.Create(ctx, dto.CreatePurchaseOrderDTO{
		OrderID:      &order.ID,
		SupplierName: "GSX",
		Items: []dto.CreatePurchaseOrderItemDTO{
			{ProductID: productID, Amount: 3},
		},
	})
	require.NoError(t, err)

	t.Run("подача фиксирует подтверждение и растит счётчик заказанного", func(t *testing.T) {
		require.NoError(t, f.purchases.Submit(ctx, po.ID, dto.SubmitPurchaseOrderDTO{GsxAccountID: 1}))

		saved, _ := f.purchases.FindPurchaseOrder(ctx, po.ID)
		assert.Equal(t, "S000000001", saved.Confirmation)
		require.NotNil(t, saved.SubmittedAt)

		counters, err := f.inventoryRepo.FindCounters(ctx, productID, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, counters.AmountOrdered)
		assert.Equal(t, 0, counters.AmountStocked)
	})

	t.Run("повторная подача отклоняется", func(t *testing.T) {
		err := f.purchases.Submit(ctx, po.ID, dto.SubmitPurchaseOrderDTO{GsxAccountID: 1})
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("позиции поданного заказа не изменяются", func(t *testing.T) {
		_, err := f.purchases.AddItem(ctx, po.ID, dto.CreatePurchaseOrderItemDTO{ProductID: productID, Amount: 1})
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestPurchaseSubmitEmpty(t *testing.T) {
	f := newPurchaseFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)
	f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1}

	po, err := f.purchases.Create(ctx, dto.CreatePurchaseOrderDTO{SupplierName: "GSX"})
	require.NoError(t, err)

	err = f.purchases.Submit(ctx, po.ID, dto.SubmitPurchaseOrderDTO{GsxAccountID: 1})
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestReceiveItem(t *testing.T) {
	f := newPurchaseFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)
	f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1}
	first := f.addProduct("661-07891", 35000)
	second := f.addProduct("661-07892", 12000)

	order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
	require.NoError(t, err)

	po, err := f.purchases.Create(ctx, dto.CreatePurchaseOrderDTO{
		OrderID:      &order.ID,
		SupplierName: "GSX",
		Items: []dto.CreatePurchaseOrderItemDTO{
			{ProductID: first, Amount: 1},
			{ProductID: second, Amount: 1},
		},
	})
	require.NoError(t, err)
	items, _ := f.purchases.ListItems(ctx, po.ID)
	require.Len(t, items, 2)

	t.Run("приёмка до подачи невозможна", func(t *testing.T) {
		err := f.purchases.ReceiveItem(ctx, items[0].ID, dto.ReceiveItemDTO{})
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	require.NoError(t, f.purchases.Submit(ctx, po.ID, dto.SubmitPurchaseOrderDTO{GsxAccountID: 1}))

	t.Run("частичная приёмка не помечает заказ прибывшим", func(t *testing.T) {
		require.NoError(t, f.purchases.ReceiveItem(ctx, items[0].ID, dto.ReceiveItemDTO{SN: "SN-001"}))

		saved, _ := f.purchases.FindPurchaseOrder(ctx, po.ID)
		assert.False(t, saved.HasArrived)

		// Товар переходит из «заказано» в «на складе».
		counters, _ := f.inventoryRepo.FindCounters(ctx, first, 1)
		assert.Equal(t, 0, counters.AmountOrdered)
		assert.Equal(t, 1, counters.AmountStocked)
	})

	t.Run("повторная приёмка той же позиции отклоняется", func(t *testing.T) {
		err := f.purchases.ReceiveItem(ctx, items[0].ID, dto.ReceiveItemDTO{})
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("последняя позиция помечает заказ прибывшим и шлёт уведомление", func(t *testing.T) {
		require.NoError(t, f.purchases.ReceiveItem(ctx, items[1].ID, dto.ReceiveItemDTO{}))

		saved, _ := f.purchases.FindPurchaseOrder(ctx, po.ID)
		assert.True(t, saved.HasArrived)

		events, _ := f.eventRepo.ListByOrder(ctx, order.ID)
		var arrived bool
		for _, event := range events {
			if event.Action == constants.ActionProductArrived {
				arrived = true
			}
		}
		assert.True(t, arrived)
	})
}

func TestPurchaseCancel(t *testing.T) {
	f := newPurchaseFixture()
	creator := f.addUser("Иванов И.И.", true)
	ctx := ctxWithUser(creator.ID)
	f.accountRepo.accounts[1] = &entities.GsxAccount{ID: 1}
	productID := f.addProduct("661-07891", 35000)

	t.Run("неподанный заказ удаляется вместе с позициями", func(t *testing.T) {
		po, err := f.purchases.Create(ctx, dto.CreatePurchaseOrderDTO{
			SupplierName: "GSX",
			Items:        []dto.CreatePurchaseOrderItemDTO{{ProductID: productID, Amount: 1}},
		})
		require.NoError(t, err)

		require.NoError(t, f.purchases.Cancel(ctx, po.ID))

		_, err = f.purchases.FindPurchaseOrder(ctx, po.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("поданный заказ отменить нельзя", func(t *testing.T) {
		po, err := f.purchases.Create(ctx, dto.CreatePurchaseOrderDTO{
			SupplierName: "GSX",
			Items:        []dto.CreatePurchaseOrderItemDTO{{ProductID: productID, Amount: 1}},
		})
		require.NoError(t, err)
		require.NoError(t, f.purchases.Submit(ctx, po.ID, dto.SubmitPurchaseOrderDTO{GsxAccountID: 1}))

		err = f.purchases.Cancel(ctx, po.ID)
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})
}
