package model

import "time"

// Rating represents the aggregate rating attached to a product listing.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product represents a single marketplace listing. Image storage itself is
// handled by an external service; we only record the resulting URLs.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Images      []string  `json:"image"`
	Rating      Rating    `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
}
