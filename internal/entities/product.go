package entities

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Product struct {
	ID           string
	Name         string
	Price        int64
	Image        string
	CountInStock int
}
