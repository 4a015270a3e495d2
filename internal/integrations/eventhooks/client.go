package eventhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client HTTP клиент уведомлений подписчиков об изменениях слотов
// Используется координатором как best-effort: ошибки доставки логируются
// на стороне вызывающего и не влияют на операции над слотами
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента уведомлений
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// OnSlotCreated уведомляет подписчиков о появлении нового слота
func (c *Client) OnSlotCreated(ctx context.Context, idSlot int64) error {
	return c.post(ctx, SlotEvent{Event: EventSlotCreated, IDSlot: idSlot})
}

// OnSlotChanged уведомляет подписчиков об изменении слота
func (c *Client) OnSlotChanged(ctx context.Context, idSlot int64) error {
	return c.post(ctx, SlotEvent{Event: EventSlotChanged, IDSlot: idSlot})
}

// OnSlotRemoved уведомляет подписчиков об удалении слота
func (c *Client) OnSlotRemoved(ctx context.Context, idSlot int64) error {
	return c.post(ctx, SlotEvent{Event: EventSlotRemoved, IDSlot: idSlot})
}

// post отправляет событие на endpoint подписчика
func (c *Client) post(ctx context.Context, event SlotEvent) error {
	url := fmt.Sprintf("%s/internal/slot-events", c.baseURL)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal event: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	c.log.Debug("eventhooks: delivered %s for slot_id=%d", event.Event, event.IDSlot)
	return nil
}
