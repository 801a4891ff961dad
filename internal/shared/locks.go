package shared

import "fmt"

// AccountLockKey builds redis keys for account critical sections.
func AccountLockKey(accountNumber string) string {
	return fmt.Sprintf("account:%s:lock", accountNumber)
}
