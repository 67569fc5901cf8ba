package entity

import (
	"math"
	"time"
)

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id,omitempty"`
	CustomerName string      `json:"customer_name"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Language     string      `json:"language"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ComputeTotal sums quantity times unit price, rounded to cents.
func ComputeTotal(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.Price
	}
	return math.Round(total*100) / 100
}

func (o Order) FormattedTotal() string {
	return FormatMoney(o.Total, DefaultCurrency)
}
