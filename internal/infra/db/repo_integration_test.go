//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"coffeeshop/internal/domain"

	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, err := Open(databaseURL)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := Reset(conn); err != nil {
		t.Fatalf("reset test db: %v", err)
	}
	return conn
}

func TestDrinkRepository_CRUD(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewDrinkRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Drink{
		Title: "Cortado",
		Recipe: []domain.Ingredient{
			{Name: "espresso", Color: "brown", Parts: 1},
			{Name: "milk", Color: "white", Parts: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned id")
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Cortado" || len(got.Recipe) != 2 || got.Recipe[0].Name != "espresso" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	newTitle := "Gibraltar"
	updated, err := repo.Update(ctx, created.ID, domain.DrinkPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Gibraltar" {
		t.Fatalf("title not updated: %+v", updated)
	}
	if len(updated.Recipe) != 2 {
		t.Fatalf("recipe lost on title-only patch: %+v", updated)
	}

	drinks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drinks) != 1 {
		t.Fatalf("expected one drink, got %d", len(drinks))
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDrinkRepository_NotFound(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewDrinkRepository(conn)
	ctx := context.Background()

	if _, err := repo.Get(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	title := "Nope"
	if _, err := repo.Update(ctx, 404, domain.DrinkPatch{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := repo.Delete(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestDrinkRepository_DuplicateTitleRejected(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewDrinkRepository(conn)
	ctx := context.Background()

	drink := domain.Drink{
		Title:  "Americano",
		Recipe: []domain.Ingredient{{Name: "espresso", Color: "brown", Parts: 1}},
	}
	if _, err := repo.Create(ctx, drink); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, drink); err == nil {
		t.Fatal("expected unique index to reject a duplicate title")
	}
}
