package models

import "time"

type UserPoint struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	Point     int64     `json:"point" db:"point"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PointHistory struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	Amount    int64           `json:"amount" db:"amount"`
	Type      TransactionType `json:"type" db:"type"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type TransactionType string

const (
	TransactionTypeCharge TransactionType = "CHARGE"
	TransactionTypeUse    TransactionType = "USE"
)

// PointEvent is published after a charge or use has been committed.
type PointEvent struct {
	HistoryID int64           `json:"history_id"`
	UserID    int64           `json:"user_id"`
	Amount    int64           `json:"amount"`
	Balance   int64           `json:"balance"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}
