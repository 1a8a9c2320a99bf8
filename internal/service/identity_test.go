package service_test

import (
	"testing"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePurchaser(t *testing.T) {
	guest := service.GuestDetails{Name: "Jane", Email: "jane@example.com", Phone: "+1"}

	t.Run("claims win over guest fields", func(t *testing.T) {
		claims := &entities.AuthClaims{ID: "u1", Name: "John", Email: "john@example.com"}

		p, err := service.ResolvePurchaser(claims, guest)
		require.NoError(t, err)
		assert.True(t, p.Registered())
		assert.Equal(t, "u1", p.UserID)
		assert.Equal(t, "John", p.Name)
		assert.Equal(t, "john@example.com", p.Email)
		// Tokens carry no phone, it comes from the submitted fields.
		assert.Equal(t, "+1", p.Phone)
	})

	t.Run("guest requires all contact fields", func(t *testing.T) {
		for _, g := range []service.GuestDetails{
			{Email: "jane@example.com", Phone: "+1"},
			{Name: "Jane", Phone: "+1"},
			{Name: "Jane", Email: "jane@example.com"},
			{},
		} {
			_, err := service.ResolvePurchaser(nil, g)
			assert.ErrorIs(t, err, service.ErrGuestContactRequired)
		}
	})

	t.Run("guest identity has no user reference", func(t *testing.T) {
		p, err := service.ResolvePurchaser(nil, guest)
		require.NoError(t, err)
		assert.False(t, p.Registered())
		assert.Equal(t, "Jane", p.Name)
		assert.Equal(t, "jane@example.com", p.Email)
		assert.Equal(t, "+1", p.Phone)
	})
}
