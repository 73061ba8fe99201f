package store

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork is the per-request storage session handed to services.
type UnitOfWork interface {
	Accounts() AccountStore
	// AfterCommit registers fn to run once the surrounding transaction has
	// committed. Nothing runs if the transaction rolls back.
	AfterCommit(fn func())
	// AfterRollback registers fn to undo a side effect made outside the
	// database, such as a written file, when the transaction fails.
	AfterRollback(fn func())
}

type unitOfWork struct {
	accounts      AccountStore
	hooks         []func()
	rollbackHooks []func()
}

func (u *unitOfWork) Accounts() AccountStore { return u.accounts }

func (u *unitOfWork) AfterCommit(fn func()) { u.hooks = append(u.hooks, fn) }

func (u *unitOfWork) AfterRollback(fn func()) { u.rollbackHooks = append(u.rollbackHooks, fn) }

// Transactor opens a transaction per call and commits it when the callback succeeds.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a new transactor over db
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Do runs fn inside a transaction. A nil return commits, an error or panic
// rolls back. After-commit hooks run in registration order once the commit
// has succeeded; after-rollback hooks run when fn or the commit fails.
func (t *Transactor) Do(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := &unitOfWork{}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow.accounts = NewAccountStore(tx)
		return fn(uow)
	})
	if err != nil {
		for _, hook := range uow.rollbackHooks {
			hook()
		}
		return err
	}
	for _, hook := range uow.hooks {
		hook()
	}
	return nil
}
