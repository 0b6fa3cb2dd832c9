package service

import (
	"errors"
	"testing"

	"github.com/fridgelog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupFridgeTestDB(t *testing.T) (*FridgeService, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Ingredient{}, &db.FridgeItem{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return NewFridgeService(gdb), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestFridgeAddAndList(t *testing.T) {
	svc, cleanup := setupFridgeTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")

	item, err := svc.Add(1, FridgeItemInput{IngredientID: tomato.ID, Quantity: 4, Unit: "pcs"})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if item.Ingredient.Name != "Tomato" {
		t.Fatalf("expected ingredient preloaded, got %+v", item)
	}

	// 数量必须为正
	if _, err := svc.Add(1, FridgeItemInput{IngredientID: tomato.ID, Quantity: 0, Unit: "pcs"}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	// 未知食材拒绝入库
	if _, err := svc.Add(1, FridgeItemInput{IngredientID: 9999, Quantity: 1, Unit: "pcs"}); !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}

	items, err := svc.List(1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	foreign, err := svc.List(2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(foreign) != 0 {
		t.Fatal("expected fridge isolation between users")
	}
}

func TestFridgeUpdateAndRemove(t *testing.T) {
	svc, cleanup := setupFridgeTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	milk := seedIngredient(t, "Milk", "dairy")

	item, err := svc.Add(1, FridgeItemInput{IngredientID: tomato.ID, Quantity: 4, Unit: "pcs"})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	updated, err := svc.Update(1, item.ID, FridgeItemInput{IngredientID: milk.ID, Quantity: 500, Unit: "ml", Notes: "早餐用"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.IngredientID != milk.ID || updated.Quantity != 500 || updated.Notes != "早餐用" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := svc.Update(2, item.ID, FridgeItemInput{IngredientID: milk.ID, Quantity: 1, Unit: "ml"}); !errors.Is(err, ErrFridgeItemNotFound) {
		t.Fatalf("expected ErrFridgeItemNotFound for foreign user, got %v", err)
	}

	if err := svc.Remove(1, item.ID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Remove(1, item.ID); !errors.Is(err, ErrFridgeItemNotFound) {
		t.Fatalf("expected ErrFridgeItemNotFound after removal, got %v", err)
	}
}

// 过期清扫只删 expiry < now 的条目，无过期日期的条目保留
func TestFridgeSweepExpired(t *testing.T) {
	svc, cleanup := setupFridgeTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	milk := seedIngredient(t, "Milk", "dairy")
	flour := seedIngredient(t, "Flour", "staple")

	now := mustDate(t, "2025-03-10")
	past := now.AddDate(0, 0, -2)
	future := now.AddDate(0, 0, 2)

	if _, err := svc.Add(1, FridgeItemInput{IngredientID: tomato.ID, Quantity: 1, Unit: "pcs", ExpiresAt: &past}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := svc.Add(1, FridgeItemInput{IngredientID: milk.ID, Quantity: 1, Unit: "ml", ExpiresAt: &future}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := svc.Add(1, FridgeItemInput{IngredientID: flour.ID, Quantity: 1, Unit: "g"}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	// 其他用户的过期条目不受影响
	if _, err := svc.Add(2, FridgeItemInput{IngredientID: tomato.ID, Quantity: 1, Unit: "pcs", ExpiresAt: &past}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	removed, err := svc.SweepExpired(1, now)
	if err != nil {
		t.Fatalf("SweepExpired returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed item, got %d", removed)
	}

	items, err := svc.List(1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 surviving items, got %d", len(items))
	}

	foreign, err := svc.List(2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(foreign) != 1 {
		t.Fatal("sweep must not touch other users' items")
	}
}

func TestFridgeExpiringSoon(t *testing.T) {
	svc, cleanup := setupFridgeTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	milk := seedIngredient(t, "Milk", "dairy")

	now := mustDate(t, "2025-03-10")
	soon := now.AddDate(0, 0, 2)
	later := now.AddDate(0, 0, 10)

	if _, err := svc.Add(1, FridgeItemInput{IngredientID: tomato.ID, Quantity: 1, Unit: "pcs", ExpiresAt: &soon}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := svc.Add(1, FridgeItemInput{IngredientID: milk.ID, Quantity: 1, Unit: "ml", ExpiresAt: &later}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	items, err := svc.ExpiringSoon(1, now, 3)
	if err != nil {
		t.Fatalf("ExpiringSoon returned error: %v", err)
	}
	if len(items) != 1 || items[0].Ingredient.Name != "Tomato" {
		t.Fatalf("expected only the soon-expiring tomato, got %+v", items)
	}
}
