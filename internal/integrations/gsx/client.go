package gsx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"servo-system/internal/entities"
)

// ClientInterface — фасад внешней системы ремонтов. Все методы принимают
// учётную запись точки: запросы выполняются от её имени.
type ClientInterface interface {
	CreateRepair(ctx context.Context, acc *entities.GsxAccount, req CreateRepairRequest) (*RepairConfirmation, error)
	RepairDetails(ctx context.Context, acc *entities.GsxAccount, confirmation string) (*RepairDetails, error)
	RepairStatus(ctx context.Context, acc *entities.GsxAccount, confirmations []string) ([]RepairStatus, error)
	MarkRepairComplete(ctx context.Context, acc *entities.GsxAccount, confirmation string, replacementSN string) error
	UpdateSerialNumbers(ctx context.Context, acc *entities.GsxAccount, confirmation string, updates []SerialUpdate) error
	Warranty(ctx context.Context, acc *entities.GsxAccount, sn string) (*WarrantyInfo, error)
	PartsLookup(ctx context.Context, acc *entities.GsxAccount, productCode string) ([]PartInfo, error)
	SubmitStockingOrder(ctx context.Context, acc *entities.GsxAccount, req StockingOrderRequest) (*StockingOrderConfirmation, error)
}

// Client — HTTP-клиент внешней системы.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) ClientInterface {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger.Named("gsx_client"),
	}
}

// errorEnvelope — формат ответа внешней системы при ошибке.
type errorEnvelope struct {
	Errors []Error `json:"errors"`
}

// call выполняет запрос и раскладывает ответ. Ошибки внешней системы
// возвращаются как *Error с сохранением кода.
func (c *Client) call(ctx context.Context, acc *entities.GsxAccount, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации запроса: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Apple-SoldTo", acc.SoldTo)
	req.Header.Set("X-Apple-ShipTo", acc.ShipTo)
	req.Header.Set("X-Apple-Service-Account-No", acc.TechID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса '%s': %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа '%s': %w", endpoint, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Errors) > 0 {
			c.logger.Warn("Внешняя система вернула ошибку",
				zap.String("endpoint", endpoint),
				zap.String("code", envelope.Errors[0].Code),
			)
			return &envelope.Errors[0]
		}
		return fmt.Errorf("внешняя система вернула статус %s для '%s'", resp.Status, endpoint)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("ошибка парсинга ответа '%s': %w", endpoint, err)
	}
	return nil
}

func (c *Client) CreateRepair(ctx context.Context, acc *entities.GsxAccount, req CreateRepairRequest) (*RepairConfirmation, error) {
	var confirmation RepairConfirmation
	if err := c.call(ctx, acc, http.MethodPost, "/repair/create", req, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

func (c *Client) RepairDetails(ctx context.Context, acc *entities.GsxAccount, confirmation string) (*RepairDetails, error) {
	var details RepairDetails
	endpoint := fmt.Sprintf("/repair/details?repairConfirmationNumber=%s", confirmation)
	if err := c.call(ctx, acc, http.MethodGet, endpoint, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) RepairStatus(ctx context.Context, acc *entities.GsxAccount, confirmations []string) ([]RepairStatus, error) {
	body := map[string][]string{"repairConfirmationNumbers": confirmations}
	var result struct {
		Repairs []RepairStatus `json:"repairs"`
	}
	if err := c.call(ctx, acc, http.MethodPost, "/repair/status", body, &result); err != nil {
		return nil, err
	}
	return result.Repairs, nil
}

func (c *Client) MarkRepairComplete(ctx context.Context, acc *entities.GsxAccount, confirmation string, replacementSN string) error {
	body := map[string]string{"repairConfirmationNumber": confirmation}
	if replacementSN != "" {
		body["replacementSerialNumber"] = replacementSN
	}
	return c.call(ctx, acc, http.MethodPost, "/repair/mark-complete", body, nil)
}

func (c *Client) UpdateSerialNumbers(ctx context.Context, acc *entities.GsxAccount, confirmation string, updates []SerialUpdate) error {
	body := map[string]interface{}{
		"repairConfirmationNumber": confirmation,
		"parts":                    updates,
	}
	return c.call(ctx, acc, http.MethodPost, "/repair/update-sn", body, nil)
}

func (c *Client) Warranty(ctx context.Context, acc *entities.GsxAccount, sn string) (*WarrantyInfo, error) {
	var info WarrantyInfo
	endpoint := fmt.Sprintf("/warranty?serialNumber=%s", sn)
	if err := c.call(ctx, acc, http.MethodGet, endpoint, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) PartsLookup(ctx context.Context, acc *entities.GsxAccount, productCode string) ([]PartInfo, error) {
	var result struct {
		Parts []PartInfo `json:"parts"`
	}
	endpoint := fmt.Sprintf("/parts/lookup?productCode=%s", productCode)
	if err := c.call(ctx, acc, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result.Parts, nil
}

func (c *Client) SubmitStockingOrder(ctx context.Context, acc *entities.GsxAccount, req StockingOrderRequest) (*StockingOrderConfirmation, error) {
	var confirmation StockingOrderConfirmation
	if err := c.call(ctx, acc, http.MethodPost, "/orders/stocking", req, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}
