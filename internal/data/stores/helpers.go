// Package stores provides the SQLite-backed implementations of the history
// and plan store interfaces.
package stores

import (
	"database/sql"
	"errors"
)

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// IsNotFoundError reports whether err is the driver's no-rows error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
