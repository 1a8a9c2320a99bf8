package service

import (
	"context"
	"strings"

	"github.com/retailcore/order-service/internal/entities"
)

// TrackOrder answers an anonymous tracking request: the order id plus a
// matching email (case-insensitive) or phone (exact) is enough, either
// alone suffices. The mismatch error is distinct from not-found here;
// the transport layer presents both identically so existing order ids
// cannot be probed.
func (s *orderService) TrackOrder(ctx context.Context, orderID, email, phone string) (entities.Order, error) {
	if orderID == "" {
		return entities.Order{}, entities.ErrOrderNotFound
	}

	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	match := false
	if email != "" && strings.EqualFold(email, order.Purchaser.Email) {
		match = true
	}
	if phone != "" && phone == order.Purchaser.Phone {
		match = true
	}

	if !match {
		return entities.Order{}, entities.ErrVerificationMismatch
	}
	return order, nil
}
