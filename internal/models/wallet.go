package models

import (
	"time"
)

// Wallet is an address tracked on behalf of a user
type Wallet struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Address   string    `json:"address" db:"address"`
	Label     *string   `json:"label,omitempty" db:"label"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Trade is one secondary market (YAM) trade of a realtoken on Gnosis
type Trade struct {
	TxHash    string    `json:"txHash" ch:"tx_hash"`
	Contract  string    `json:"contract" ch:"contract"`
	Quantity  float64   `json:"quantity" ch:"quantity"`
	Price     float64   `json:"price" ch:"price"`
	Timestamp time.Time `json:"timestamp" ch:"timestamp"`
}
