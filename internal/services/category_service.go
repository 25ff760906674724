package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

type CategoryService struct {
	categories   CategoryStore
	transactions TransactionStore
}

func NewCategoryService(categories CategoryStore, transactions TransactionStore) *CategoryService {
	return &CategoryService{
		categories:   categories,
		transactions: transactions,
	}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, name string) (core.Category, error) {
	c := core.Category{UserID: userID, Name: strings.TrimSpace(name)}
	if err := s.check(ctx, c); err != nil {
		return core.Category{}, err
	}

	created, err := s.categories.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", created.ID, "user_id", userID, "name", created.Name)
	return created, nil
}

func (s *CategoryService) Rename(ctx context.Context, userID, id int64, name string) (core.Category, error) {
	c, err := s.categories.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.Name = strings.TrimSpace(name)
	if err := s.check(ctx, c); err != nil {
		return core.Category{}, err
	}

	updated, err := s.categories.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Category renamed", "id", id, "user_id", userID, "name", updated.Name)
	return updated, nil
}

// Delete removes a category nobody references.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.categories.GetCategory(ctx, userID, id); err != nil {
		return err
	}
	used, err := s.transactions.CountTransactionsByCategory(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count transactions for category %d: %w", id, err)
	}
	if used > 0 {
		return categoryInUseError(used)
	}

	if err := s.categories.DeleteCategory(ctx, userID, id); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		if errors.Is(err, core.ErrCategoryInUse) {
			// A transaction took the category between the count and the delete.
			used, cerr := s.transactions.CountTransactionsByCategory(ctx, userID, id)
			if cerr != nil || used < 1 {
				used = 1
			}
			return categoryInUseError(used)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Category deleted", "id", id, "user_id", userID)
	return nil
}

func categoryInUseError(used int) error {
	return core.NewValidationError("", fmt.Sprintf(
		"Cannot delete category. It is used in %d transaction(s). Please reassign or delete those transactions first.", used))
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.categories.GetCategory(ctx, userID, id)
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	cats, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *CategoryService) check(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	taken, err := s.categories.CategoryNameTaken(ctx, c.UserID, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return core.NewValidationError("name", "A category with this name already exists")
	}
	return nil
}
