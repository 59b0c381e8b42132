package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle shared by every domain repository. Domain
// repositories embed it and read through DB so queries always pick up the
// caller's context.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Rebound swaps the underlying handle for a transaction. Repositories use it
// in their WithTx implementations so reads inside a transaction see
// uncommitted rows.
func (b Base) Rebound(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
