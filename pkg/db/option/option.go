// Package option composes gorm query modifiers for list endpoints.
package option

import (
	"strings"

	"gorm.io/gorm"
)

// Operator is a SQL comparison operator applied to a single column.
type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition is one column comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// QueryOption mutates a gorm statement.
type QueryOption func(*gorm.DB) *gorm.DB

// ApplyOperator adds a WHERE clause for the condition.
func ApplyOperator(cond Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		return db.Where(field+" "+string(cond.Operator)+" ?", cond.Value)
	}
}

// QuerySortBy restricts sorting to an allowlist of columns.
type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

// WithSortBy orders results by an allowed column, defaulting to
// created_at descending.
func WithSortBy(sort QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" || !sort.Allow[field] {
			field = "created_at"
			sort.Desc = true
		}
		order := field
		if sort.Desc {
			order += " DESC"
		}
		return db.Order(order)
	}
}

// WithLimit caps the number of rows returned.
func WithLimit(limit int) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	}
}
