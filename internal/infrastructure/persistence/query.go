package persistence

import (
	"errors"
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// translateError maps driver errors onto domain errors.
// Duplicate keys are the losing side of a uniqueness race and surface as conflicts.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrDuplicate
	}
	return err
}

// notFound maps a missing row onto the NOT_FOUND error of entity
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(entity)
	}
	return translateError(err)
}

// listQuery applies filter conditions, ordering and pagination.
// columns maps accepted filter keys to qualified column names; unknown keys are ignored.
func listQuery(db *gorm.DB, table string, filter shared.Filter, columns map[string]string, sortFields SortColumns) *gorm.DB {
	filter = filter.Normalize()
	db = whereFilter(db, filter, columns)
	db = applyOrder(db, table, sortFields, filter.OrderBy, filter.OrderDir)

	offset := (filter.Page - 1) * filter.PageSize
	return db.Offset(offset).Limit(filter.PageSize)
}

// whereFilter applies the equality filters present in filter
func whereFilter(db *gorm.DB, filter shared.Filter, columns map[string]string) *gorm.DB {
	for key, value := range filter.Filters {
		column, ok := columns[key]
		if !ok || value == nil || value == "" {
			continue
		}
		db = db.Where(column+" = ?", value)
	}
	return db
}

// lockedUpdate applies updates to the row with id only if its version is still version,
// bumping the version. A lost race is reported as stale state.
func lockedUpdate(tx *gorm.DB, model interface{}, id uuid.UUID, version int, updates map[string]interface{}) error {
	updates["version"] = version + 1
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	result := tx.Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrStaleState
	}
	return nil
}
