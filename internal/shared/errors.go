package shared

import "fmt"

// ErrorCode identifies a business-rule failure with a stable code.
type ErrorCode string

const (
	CodeUserNotFound               ErrorCode = "USER_NOT_FOUND"
	CodeAccountNotFound            ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeUserAccountMismatch        ErrorCode = "USER_ACCOUNT_MISMATCH"
	CodeAccountAlreadyUnregistered ErrorCode = "ACCOUNT_ALREADY_UNREGISTERED"
	CodeAmountExceedsBalance       ErrorCode = "AMOUNT_EXCEEDS_BALANCE"
	CodeMaxAccountsPerUser         ErrorCode = "MAX_ACCOUNTS_PER_USER"
	CodeBalanceNotEmpty            ErrorCode = "BALANCE_NOT_EMPTY"
	CodeTransactionNotFound        ErrorCode = "TRANSACTION_NOT_FOUND"
	CodeTransactionAccountMismatch ErrorCode = "TRANSACTION_ACCOUNT_MISMATCH"
	CodeCancelMustBeFull           ErrorCode = "CANCEL_MUST_BE_FULL"
	CodeTooOldToCancel             ErrorCode = "TOO_OLD_TO_CANCEL"
	CodeLockUnavailable            ErrorCode = "LOCK_UNAVAILABLE"
	CodeInvalidRequest             ErrorCode = "INVALID_REQUEST"
	CodeLedgerInconsistency        ErrorCode = "LEDGER_INCONSISTENCY"
)

// Error is a business failure carrying a stable code and a human message.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes shared errors comparable with errors.Is by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUserNotFound               = &Error{CodeUserNotFound, "user not found"}
	ErrAccountNotFound            = &Error{CodeAccountNotFound, "account not found"}
	ErrUserAccountMismatch        = &Error{CodeUserAccountMismatch, "user does not own the account"}
	ErrAccountAlreadyUnregistered = &Error{CodeAccountAlreadyUnregistered, "account is already unregistered"}
	ErrAmountExceedsBalance       = &Error{CodeAmountExceedsBalance, "amount exceeds account balance"}
	ErrMaxAccountsPerUser         = &Error{CodeMaxAccountsPerUser, "a user may hold at most 10 accounts"}
	ErrBalanceNotEmpty            = &Error{CodeBalanceNotEmpty, "balance must be empty to close the account"}
	ErrTransactionNotFound        = &Error{CodeTransactionNotFound, "transaction not found"}
	ErrTransactionAccountMismatch = &Error{CodeTransactionAccountMismatch, "transaction does not belong to the account"}
	ErrCancelMustBeFull           = &Error{CodeCancelMustBeFull, "cancel amount must equal the original amount"}
	ErrTooOldToCancel             = &Error{CodeTooOldToCancel, "transactions older than one year cannot be cancelled"}
	ErrLockUnavailable            = &Error{CodeLockUnavailable, "account is processing another transaction"}
	ErrInvalidRequest             = &Error{CodeInvalidRequest, "invalid request"}
	ErrLedgerInconsistency        = &Error{CodeLedgerInconsistency, "account updated but ledger entry could not be written"}
)
