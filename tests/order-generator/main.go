package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type CartLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type PlaceOrderRequest struct {
	Items         []CartLine `json:"items"`
	Shipping      Address    `json:"shipping_address"`
	PaymentMethod string     `json:"payment_method"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	ItemsPrice    int64 `json:"items_price"`
	TaxPrice      int64 `json:"tax_price"`
	ShippingPrice int64 `json:"shipping_price"`
	TotalPrice    int64 `json:"total_price"`
}

func randomString(n int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func randomOrder(products []string) PlaceOrderRequest {
	items := make([]CartLine, 0, 2)
	for i := 0; i < 1+rand.Intn(2); i++ {
		items = append(items, CartLine{
			ProductID: products[rand.Intn(len(products))],
			Qty:       1 + rand.Intn(3),
		})
	}

	itemsPrice := int64(rand.Intn(50000) + 1000)
	tax := itemsPrice / 10
	shipping := int64(500)

	return PlaceOrderRequest{
		Items: items,
		Shipping: Address{
			Street:     fmt.Sprintf("Street %d", rand.Intn(100)),
			City:       "City" + randomString(4),
			PostalCode: fmt.Sprintf("%06d", rand.Intn(999999)),
			Country:    "PK",
		},
		PaymentMethod: "Cash on Delivery",
		Name:          "John Doe",
		Email:         fmt.Sprintf("user%d@example.com", rand.Intn(1000)),
		Phone:         fmt.Sprintf("+%d", rand.Intn(9999999999)),
		ItemsPrice:    itemsPrice,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    itemsPrice + tax + shipping,
	}
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "service address")
	workers := flag.Int("workers", 4, "concurrent workers")
	interval := flag.Duration("interval", 2*time.Second, "delay between orders per worker")
	flag.Parse()

	products := flag.Args()
	if len(products) == 0 {
		log.Fatal("pass at least one product id as an argument")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			ticker := time.NewTicker(*interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					placeOrder(ctx, *addr, randomOrder(products))
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
	g.Wait()
}

func placeOrder(ctx context.Context, addr string, order PlaceOrderRequest) {
	data, _ := json.Marshal(order)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/api/orders", bytes.NewReader(data))
	if err != nil {
		log.Println("failed to build request:", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Println("failed to place order:", err)
		return
	}
	defer res.Body.Close()

	log.Println("order placed, status", res.StatusCode)
}
