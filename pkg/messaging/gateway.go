// Файл: pkg/messaging/gateway.go
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ServiceInterface — исходящие сообщения (SMS / email через шлюз).
// Это внешний коллаборатор: ядру важен только контракт send -> messageId.
type ServiceInterface interface {
	SendSMS(ctx context.Context, recipient, body string) (string, error)
	SendEmail(ctx context.Context, recipient, subject, body string) (string, error)
}

type Service struct {
	gatewayURL string
	sender     string
	httpClient *http.Client
}

func NewService(gatewayURL, sender string) ServiceInterface {
	return &Service{
		gatewayURL: gatewayURL,
		sender:     sender,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	Channel   string `json:"channel"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

func (s *Service) SendSMS(ctx context.Context, recipient, body string) (string, error) {
	return s.send(ctx, sendRequest{Channel: "sms", Sender: s.sender, Recipient: recipient, Body: body})
}

func (s *Service) SendEmail(ctx context.Context, recipient, subject, body string) (string, error) {
	return s.send(ctx, sendRequest{Channel: "email", Sender: s.sender, Recipient: recipient, Subject: subject, Body: body})
}

func (s *Service) send(ctx context.Context, payload sendRequest) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL+"/send", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("шлюз сообщений вернул статус %d: %s", resp.StatusCode, string(raw))
	}

	var result sendResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("шлюз сообщений: %s", result.Error)
	}
	return result.MessageID, nil
}

// MockService пишет в лог вместо реальной отправки. Идеально для тестирования
// и для инсталляций без настроенного шлюза.
type MockService struct {
	logger *zap.Logger
}

func NewMockService(logger *zap.Logger) ServiceInterface {
	return &MockService{logger: logger}
}

func (s *MockService) SendSMS(ctx context.Context, recipient, body string) (string, error) {
	s.logger.Info("!!! ИМИТАЦИЯ ОТПРАВКИ SMS !!!",
		zap.String("кому", recipient),
		zap.String("текст", body),
	)
	return "mock-sms", nil
}

func (s *MockService) SendEmail(ctx context.Context, recipient, subject, body string) (string, error) {
	s.logger.Info("!!! ИМИТАЦИЯ ОТПРАВКИ EMAIL !!!",
		zap.String("кому", recipient),
		zap.String("тема", subject),
	)
	return "mock-email", nil
}
