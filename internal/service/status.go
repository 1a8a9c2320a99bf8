package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/retailcore/order-service/internal/entities"
)

// SetStatus moves an order to a new lifecycle state. The delivery flag
// and timestamp are fully derived from the new state: entering
// Delivered sets them, entering anything else clears them. The write is
// serialized per order via a row lock.
func (s *orderService) SetStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error) {
	if _, err := entities.ParseStatus(string(status)); err != nil {
		return entities.Order{}, err
	}

	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !o.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, o.Status, status)
		}

		now := time.Now()
		o.Status = status
		if status == entities.StatusDelivered {
			o.IsDelivered = true
			o.DeliveredAt = &now
		} else {
			o.IsDelivered = false
			o.DeliveredAt = nil
		}
		o.UpdatedAt = now

		if err := s.repo.UpdateOrderStatus(ctx, o); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Debug("order status updated",
		slog.String("order_id", order.ID),
		slog.String("status", string(order.Status)),
	)
	s.cacheOrder(order)
	s.notify("status changed", order.ID, func(ctx context.Context) error {
		return s.notifier.StatusChanged(ctx, order)
	})

	return order, nil
}

// MarkPaid records the external payment confirmation. Status is left
// untouched, paid and delivered are independent axes.
func (s *orderService) MarkPaid(ctx context.Context, orderID string, result entities.PaymentResult) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		now := time.Now()
		o.IsPaid = true
		o.PaidAt = &now
		o.Payment = &result
		o.UpdatedAt = now

		if err := s.repo.UpdateOrderPayment(ctx, o); err != nil {
			return fmt.Errorf("failed to update order payment: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Debug("order marked paid", slog.String("order_id", order.ID))
	s.cacheOrder(order)
	return order, nil
}
