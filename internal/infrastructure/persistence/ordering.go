package persistence

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSortColumn = "created_at"

// SortColumns whitelists the columns a list may be ordered by. Every list
// accepts id, created_at and updated_at.
type SortColumns map[string]struct{}

// NewSortColumns builds a whitelist of the common columns plus extra
func NewSortColumns(extra ...string) SortColumns {
	cols := SortColumns{"id": {}, "created_at": {}, "updated_at": {}}
	for _, c := range extra {
		cols[c] = struct{}{}
	}
	return cols
}

// Column returns requested when whitelisted, else created_at
func (s SortColumns) Column(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := s[requested]; ok {
		return requested
	}
	return defaultSortColumn
}

// descending is true unless dir is asc in any case; newest first is the default
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// applyOrder orders by the requested column then by id, so pages stay stable
// when many rows share a timestamp or status.
func applyOrder(db *gorm.DB, table string, cols SortColumns, field, dir string) *gorm.DB {
	column := cols.Column(field)
	desc := descending(dir)
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Table: table, Name: column}, Desc: desc},
	}}
	if column != "id" {
		order.Columns = append(order.Columns, clause.OrderByColumn{
			Column: clause.Column{Table: table, Name: "id"}, Desc: desc,
		})
	}
	return db.Clauses(order)
}

var (
	DirectorySortFields   = NewSortColumns("name")
	WorkRequestSortFields = NewSortColumns("status", "category", "diffused_at", "locked_at", "closed_at")
	WorkOrderSortFields   = NewSortColumns("status", "amount", "started_at", "completed_at", "validated_at")
	InvoiceSortFields     = NewSortColumns("number", "status", "gross_amount", "sent_at", "paid_at")
)
