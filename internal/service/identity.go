package service

import (
	"errors"

	"github.com/retailcore/order-service/internal/entities"
)

var ErrGuestContactRequired = errors.New("guest name, email and phone are required")

type GuestDetails struct {
	Name  string
	Email string
	Phone string
}

// ResolvePurchaser produces the single purchaser identity bound to an
// order at creation time. Authenticated claims win: name and email come
// from the token, the phone from the submitted contact fields since
// tokens carry no phone number. Without claims all three guest fields
// are required.
func ResolvePurchaser(claims *entities.AuthClaims, guest GuestDetails) (entities.Purchaser, error) {
	if claims != nil {
		return entities.Purchaser{
			UserID: claims.ID,
			Name:   claims.Name,
			Email:  claims.Email,
			Phone:  guest.Phone,
		}, nil
	}

	if guest.Name == "" || guest.Email == "" || guest.Phone == "" {
		return entities.Purchaser{}, ErrGuestContactRequired
	}

	return entities.Purchaser{
		Name:  guest.Name,
		Email: guest.Email,
		Phone: guest.Phone,
	}, nil
}
