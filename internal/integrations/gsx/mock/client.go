package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"servo-system/internal/entities"
	"servo-system/internal/integrations/gsx"
)

// Client — имитация внешней системы ремонтов для разработки и тестов.
// Запоминает созданные ремонты и отвечает правдоподобными данными.
type Client struct {
	logger *zap.Logger

	mu      sync.Mutex
	seq     int
	repairs map[string]*gsx.RepairDetails
}

func New(logger *zap.Logger) *Client {
	return &Client{
		logger:  logger.Named("gsx_mock"),
		repairs: make(map[string]*gsx.RepairDetails),
	}
}

func (c *Client) CreateRepair(ctx context.Context, acc *entities.GsxAccount, req gsx.CreateRepairRequest) (*gsx.RepairConfirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	confirmation := fmt.Sprintf("G%09d", c.seq)
	c.logger.Info("!!! ИМИТАЦИЯ СОЗДАНИЯ РЕМОНТА !!!",
		zap.String("confirmation", confirmation),
		zap.String("sn", req.SerialNumber),
	)

	parts := make([]gsx.RepairPartDetail, 0, len(req.Parts))
	for i, p := range req.Parts {
		parts = append(parts, gsx.RepairPartDetail{
			Code:            p.Code,
			SequenceNo:      i + 1,
			OrderStatus:     "Ordered",
			ReturnStatus:    "Pending Return",
			ComptiaCode:     p.ComptiaCode,
			ComptiaModifier: p.ComptiaModifier,
		})
	}
	c.repairs[confirmation] = &gsx.RepairDetails{
		Confirmation: confirmation,
		Status:       "New",
		StatusCode:   "RFPU",
		SerialNumber: req.SerialNumber,
		Parts:        parts,
	}
	return &gsx.RepairConfirmation{Confirmation: confirmation, Parts: parts}, nil
}

func (c *Client) RepairDetails(ctx context.Context, acc *entities.GsxAccount, confirmation string) (*gsx.RepairDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	details, ok := c.repairs[confirmation]
	if !ok {
		return nil, &gsx.Error{Code: "RPR.LKP.01", Message: "ремонт не найден"}
	}
	return details, nil
}

func (c *Client) RepairStatus(ctx context.Context, acc *entities.GsxAccount, confirmations []string) ([]gsx.RepairStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]gsx.RepairStatus, 0, len(confirmations))
	for _, confirmation := range confirmations {
		details, ok := c.repairs[confirmation]
		if !ok {
			continue
		}
		statuses = append(statuses, gsx.RepairStatus{
			Confirmation: confirmation,
			Status:       details.Status,
			StatusCode:   details.StatusCode,
		})
	}
	return statuses, nil
}

func (c *Client) MarkRepairComplete(ctx context.Context, acc *entities.GsxAccount, confirmation string, replacementSN string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	details, ok := c.repairs[confirmation]
	if !ok {
		return &gsx.Error{Code: "RPR.LKP.01", Message: "ремонт не найден"}
	}
	if details.CompletedAt != nil {
		return &gsx.Error{Code: "RPR.COM.030", Message: "ремонт уже завершён"}
	}
	now := time.Now()
	details.Status = "Repair Marked Complete"
	details.StatusCode = "RPCM"
	details.CompletedAt = &now
	c.logger.Info("!!! ИМИТАЦИЯ ЗАВЕРШЕНИЯ РЕМОНТА !!!", zap.String("confirmation", confirmation))
	return nil
}

func (c *Client) UpdateSerialNumbers(ctx context.Context, acc *entities.GsxAccount, confirmation string, updates []gsx.SerialUpdate) error {
	c.logger.Info("!!! ИМИТАЦИЯ ОБНОВЛЕНИЯ СЕРИЙНИКОВ !!!",
		zap.String("confirmation", confirmation),
		zap.Int("count", len(updates)),
	)
	return nil
}

func (c *Client) Warranty(ctx context.Context, acc *entities.GsxAccount, sn string) (*gsx.WarrantyInfo, error) {
	return &gsx.WarrantyInfo{
		SerialNumber:   sn,
		WarrantyStatus: "Apple Limited Warranty",
		Description:    "iPhone (имитация)",
	}, nil
}

func (c *Client) PartsLookup(ctx context.Context, acc *entities.GsxAccount, productCode string) ([]gsx.PartInfo, error) {
	return []gsx.PartInfo{
		{Code: productCode, Title: "Деталь (имитация)", Price: 100, IsSerialized: true},
	}, nil
}

func (c *Client) SubmitStockingOrder(ctx context.Context, acc *entities.GsxAccount, req gsx.StockingOrderRequest) (*gsx.StockingOrderConfirmation, error) {
	c.mu.Lock()
	c.seq++
	confirmation := fmt.Sprintf("S%09d", c.seq)
	c.mu.Unlock()

	c.logger.Info("!!! ИМИТАЦИЯ СКЛАДСКОГО ЗАКАЗА !!!", zap.String("confirmation", confirmation))
	return &gsx.StockingOrderConfirmation{Confirmation: confirmation}, nil
}
