package persistence

import (
	"context"
	"errors"
)

var errNoFileTx = errors.New("no file transaction in context")

type fileTxKey struct{}

// fileTx is a working copy of the document held under the repository lock.
type fileTx struct {
	repo    *FileTaskRepository
	records []taskRecord
	dirty   bool
}

type fileTxInfo struct {
	tx    *fileTx
	owned bool
}

func fileTxFromContext(ctx context.Context, repo *FileTaskRepository) (*fileTx, bool) {
	info, ok := ctx.Value(fileTxKey{}).(fileTxInfo)
	if !ok || info.tx == nil || info.tx.repo != repo {
		return nil, false
	}
	return info.tx, true
}

// FileUnitOfWork serializes commands against a FileTaskRepository.
// Begin takes the repository lock and loads the document once; Commit writes it
// back only if something changed. Concurrent commands therefore cannot lose updates.
type FileUnitOfWork struct {
	repo *FileTaskRepository
}

// NewFileUnitOfWork creates a unit of work for repo.
func NewFileUnitOfWork(repo *FileTaskRepository) *FileUnitOfWork {
	return &FileUnitOfWork{repo: repo}
}

// Begin locks the repository and stores a working copy in the context.
func (u *FileUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if tx, ok := fileTxFromContext(ctx, u.repo); ok {
		return context.WithValue(ctx, fileTxKey{}, fileTxInfo{tx: tx, owned: false}), nil
	}

	u.repo.mu.Lock()
	records, err := u.repo.load()
	if err != nil {
		u.repo.mu.Unlock()
		return nil, err
	}

	tx := &fileTx{repo: u.repo, records: records}
	return context.WithValue(ctx, fileTxKey{}, fileTxInfo{tx: tx, owned: true}), nil
}

// Commit writes the working copy if it changed and releases the lock.
func (u *FileUnitOfWork) Commit(ctx context.Context) error {
	info, ok := ctx.Value(fileTxKey{}).(fileTxInfo)
	if !ok || info.tx == nil || info.tx.repo != u.repo {
		return errNoFileTx
	}
	if !info.owned {
		return nil
	}
	defer u.repo.mu.Unlock()

	if !info.tx.dirty {
		return nil
	}
	return u.repo.store(info.tx.records)
}

// Rollback discards the working copy and releases the lock.
func (u *FileUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := ctx.Value(fileTxKey{}).(fileTxInfo)
	if !ok || info.tx == nil || info.tx.repo != u.repo {
		return errNoFileTx
	}
	if !info.owned {
		return nil
	}
	u.repo.mu.Unlock()
	return nil
}
