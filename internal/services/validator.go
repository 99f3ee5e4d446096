package services

import "errors"

const MaxBalance int64 = 10000

var (
	ErrInvalidUser         = errors.New("user point not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrBalanceCapExceeded  = errors.New("point balance would exceed the maximum")
)

func validateUserID(userID int64) error {
	if userID < 0 {
		return ErrInvalidUser
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateCharge(current, amount int64) error {
	// written as a subtraction so a huge amount cannot overflow past the cap
	if amount > MaxBalance-current {
		return ErrBalanceCapExceeded
	}
	return nil
}

func validateUse(current, amount int64) error {
	if current < amount {
		return ErrInsufficientBalance
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidUser):
		return "invalid_user"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrBalanceCapExceeded):
		return "balance_cap_exceeded"
	default:
		return "error"
	}
}

func isRejection(err error) bool {
	label := resultLabel(err)
	return label != "success" && label != "error"
}
