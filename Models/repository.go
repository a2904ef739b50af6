package Models

import (
	"context"
	"errors"
	"fmt"
)

// maxMutateAttempts bounds how often Mutate re-reads a table after losing a
// version race.
const maxMutateAttempts = 3

// TaskRepository gives typed access to the Tasks sheet.
type TaskRepository struct {
	Store SheetStore
}

func NewTaskRepository(store SheetStore) *TaskRepository {
	return &TaskRepository{Store: store}
}

// List reads every task and the version they were read at. Legacy rows without
// an id get one and the table is written back once so the ids stay stable.
func (r *TaskRepository) List(ctx context.Context) ([]Task, int64, error) {
	for attempt := 0; ; attempt++ {
		sheet, err := r.Store.Read(ctx, TasksSheet)
		if err != nil {
			return nil, 0, err
		}
		tasks, backfilled := DecodeTasks(sheet)
		if !backfilled {
			return tasks, sheet.Version, nil
		}
		version, err := r.ReplaceAll(ctx, tasks, sheet.Version)
		if err == nil {
			return tasks, version, nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt+1 >= maxMutateAttempts {
			return nil, 0, err
		}
	}
}

// ReplaceAll writes tasks as the whole table if nobody wrote since version.
func (r *TaskRepository) ReplaceAll(ctx context.Context, tasks []Task, version int64) (int64, error) {
	header, rows := EncodeTasks(tasks)
	return r.Store.Write(ctx, TasksSheet, header, rows, version)
}

// Mutate runs a read-modify-write cycle. fn receives a fresh copy of the table
// and returns the table to store. On a version conflict the cycle starts over
// with the newer table, so concurrent edits to different rows both land.
func (r *TaskRepository) Mutate(ctx context.Context, fn func([]Task) ([]Task, error)) ([]Task, error) {
	var lastErr error
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		tasks, version, err := r.List(ctx)
		if err != nil {
			return nil, err
		}
		next, err := fn(tasks)
		if err != nil {
			return nil, err
		}
		if _, err := r.ReplaceAll(ctx, next, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return next, nil
	}
	return nil, fmt.Errorf("tasks: %w after %d attempts", lastErr, maxMutateAttempts)
}

// UserRepository gives typed access to the Users sheet.
type UserRepository struct {
	Store SheetStore
}

func NewUserRepository(store SheetStore) *UserRepository {
	return &UserRepository{Store: store}
}

func (r *UserRepository) List(ctx context.Context) ([]User, int64, error) {
	sheet, err := r.Store.Read(ctx, UsersSheet)
	if err != nil {
		return nil, 0, err
	}
	return DecodeUsers(sheet), sheet.Version, nil
}

func (r *UserRepository) ReplaceAll(ctx context.Context, users []User, version int64) (int64, error) {
	header, rows := EncodeUsers(users)
	return r.Store.Write(ctx, UsersSheet, header, rows, version)
}

// Find returns the user with the given name or ErrNotFound.
func (r *UserRepository) Find(ctx context.Context, username string) (User, error) {
	users, _, err := r.List(ctx)
	if err != nil {
		return User{}, err
	}
	if i := FindUser(users, username); i >= 0 {
		return users[i], nil
	}
	return User{}, ErrNotFound
}

// Create appends a user. Usernames are unique.
func (r *UserRepository) Create(ctx context.Context, user User) error {
	var lastErr error
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		users, version, err := r.List(ctx)
		if err != nil {
			return err
		}
		if FindUser(users, user.Username) >= 0 {
			return fmt.Errorf("%s: %w", user.Username, ErrUserExists)
		}
		if _, err := r.ReplaceAll(ctx, append(users, user), version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("users: %w after %d attempts", lastErr, maxMutateAttempts)
}
