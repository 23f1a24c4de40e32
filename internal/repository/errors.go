// Package repository contains the database/sql persistence layer. Failures
// that handlers need to distinguish are returned as apperr values tagged at
// the point of detection; driver errors that carry no such meaning bubble up
// wrapped as Internal.
package repository

import "strings"

// MySQL error numbers the repositories care about. The driver formats them
// into the error string as "Error NNNN:", which is what we match on.
const (
	mysqlDuplicateEntry = "1062" // unique key violation
	mysqlFKViolation    = "1452" // foreign key constraint fails
)

func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), mysqlDuplicateEntry)
}

func isFKViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), mysqlFKViolation)
}
