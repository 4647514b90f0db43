// Package sqlxrepos implements the domain repositories on Postgres via sqlx.
// Uniqueness rules are enforced by unique indexes (see migrations) and mapped
// back to the domain sentinel errors.
package sqlxrepos

import "strconv"

func itoa(i int) string { return strconv.Itoa(i) }
