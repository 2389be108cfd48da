// Package repository holds the GORM and MongoDB stores used by services.
package repository

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleCart is returned when a cart changed since it was loaded.
	ErrStaleCart = errors.New("cart was modified concurrently")
	// ErrUsageLimit is returned when an offer has no redemptions left.
	ErrUsageLimit = errors.New("offer usage limit reached")
)

type txKey struct{}

// Transactor runs callbacks inside a database transaction. Stores resolve
// the active transaction from the context passed to them.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor constructs a Transactor.
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction runs fn in a transaction, reusing one already carried
// by ctx.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx or the base handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
