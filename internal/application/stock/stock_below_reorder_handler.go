package stock

import (
	"context"
	"fmt"

	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/domain/stock"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReorderAlert is what a notifier receives when a key needs restocking
type ReorderAlert struct {
	Key             string `json:"key"`
	CurrentStock    int64  `json:"current_stock"`
	ReorderLevel    int64  `json:"reorder_level"`
	ReorderQuantity int64  `json:"reorder_quantity"`
	AlertType       string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// ReorderNotifier delivers reorder alerts
type ReorderNotifier interface {
	SendAlert(ctx context.Context, alert ReorderAlert) error
}

// StockBelowReorderHandler handles StockBelowReorderLevel events
type StockBelowReorderHandler struct {
	logger   *zap.Logger
	notifier ReorderNotifier
	metrics  *telemetry.LifecycleMetrics
}

// NewStockBelowReorderHandler creates a new handler for low stock events
func NewStockBelowReorderHandler(logger *zap.Logger) *StockBelowReorderHandler {
	return &StockBelowReorderHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowReorderHandler) WithNotifier(notifier ReorderNotifier) *StockBelowReorderHandler {
	h.notifier = notifier
	return h
}

// WithMetrics sets the lifecycle metrics collector
func (h *StockBelowReorderHandler) WithMetrics(m *telemetry.LifecycleMetrics) *StockBelowReorderHandler {
	h.metrics = m
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowReorderHandler) EventTypes() []string {
	return []string{stock.EventTypeStockBelowReorderLevel}
}

// Handle processes a StockBelowReorderLevelEvent
func (h *StockBelowReorderHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*stock.StockBelowReorderLevelEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			stock.EventTypeStockBelowReorderLevel, event.EventType())
	}

	alert := ReorderAlert{
		Key:             e.Key.String(),
		CurrentStock:    e.CurrentStock,
		ReorderLevel:    e.ReorderLevel,
		ReorderQuantity: e.ReorderQuantity,
		AlertType:       "low_stock",
	}
	if e.CurrentStock <= 0 {
		alert.AlertType = "out_of_stock"
	}

	h.logger.Warn("stock at or below reorder level",
		zap.String("key", alert.Key),
		zap.Int64("current_stock", alert.CurrentStock),
		zap.Int64("reorder_level", alert.ReorderLevel),
		zap.Int64("reorder_quantity", alert.ReorderQuantity),
		zap.String("alert_type", alert.AlertType))

	if h.metrics != nil {
		h.metrics.RecordBelowReorder(ctx, alert.Key)
	}
	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// a failed notification does not fail event handling
			h.logger.Error("failed to send reorder alert", zap.String("key", alert.Key), zap.Error(err))
		}
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowReorderHandler)(nil)
