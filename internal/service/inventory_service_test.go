package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"testing"

	"stockroom/internal/entity"
)

func TestInventoryCreateDefaults(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")
	actor := actorFor(user)

	item, err := inv.Create(ctx, actor, entity.InventoryCreateRequest{Name: "Notebook", Price: 3.5, Quantity: 12})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Category != entity.DefaultCategory {
		t.Fatalf("blank category should default to %q, got %q", entity.DefaultCategory, item.Category)
	}
	if item.Owner.ID != user.User.ID {
		t.Fatalf("owner must be the actor, got %d", item.Owner.ID)
	}
}

func TestInventoryCreateValidation(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")
	actor := actorFor(user)

	tests := []struct {
		name string
		req  entity.InventoryCreateRequest
	}{
		{"名称过短", entity.InventoryCreateRequest{Name: "ab", Price: 1, Quantity: 1}},
		{"负价格", entity.InventoryCreateRequest{Name: "Widget", Price: -1, Quantity: 1}},
		{"非有限价格", entity.InventoryCreateRequest{Name: "Widget", Price: math.Inf(1), Quantity: 1}},
		{"负库存", entity.InventoryCreateRequest{Name: "Widget", Price: 1, Quantity: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inv.Create(ctx, actor, tt.req)
			if _, ok := AsValidation(err); !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInventoryReadIsOpen(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	owner := signupUser(t, svc, "alice", "alice@example.com")
	reader := signupUser(t, svc, "bobby", "bob@example.com")

	item, err := inv.Create(ctx, actorFor(owner), entity.InventoryCreateRequest{Name: "Widget", Price: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := inv.Get(ctx, actorFor(reader), item.ID)
	if err != nil {
		t.Fatalf("stranger read should be permitted: %v", err)
	}
	if got.Owner.Email != "alice@example.com" {
		t.Fatalf("owner summary missing, got %+v", got.Owner)
	}
}

func TestInventoryGetMissing(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")
	actor := actorFor(user)

	if _, err := inv.Get(ctx, actor, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing item, got %v", err)
	}

	item, err := inv.Create(ctx, actor, entity.InventoryCreateRequest{Name: "Widget", Price: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := inv.Delete(ctx, actor, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// 软删除对外表现为不存在
	if _, err := inv.Get(ctx, actor, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for soft-deleted item, got %v", err)
	}
}

func TestInventoryUpdateOwnership(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	owner := signupUser(t, svc, "alice", "alice@example.com")
	stranger := signupUser(t, svc, "bobby", "bob@example.com")
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)

	item, err := inv.Create(ctx, actorFor(owner), entity.InventoryCreateRequest{Name: "Widget", Price: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := 4.0
	if _, err := inv.Update(ctx, actorFor(stranger), item.ID, entity.InventoryUpdateRequest{Price: &price}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger update should be forbidden, got %v", err)
	}

	updated, err := inv.Update(ctx, actorFor(owner), item.ID, entity.InventoryUpdateRequest{Price: &price})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Price != price {
		t.Fatalf("expected price %v, got %v", price, updated.Price)
	}

	// 管理员可以跨属主修改
	quantity := 9
	if _, err := inv.Update(ctx, admin, item.ID, entity.InventoryUpdateRequest{Quantity: &quantity}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestInventoryUpdateNoChange(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	owner := signupUser(t, svc, "alice", "alice@example.com")
	actor := actorFor(owner)

	item, err := inv.Create(ctx, actor, entity.InventoryCreateRequest{Name: "Widget", Price: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := 2.0
	if _, err := inv.Update(ctx, actor, item.ID, entity.InventoryUpdateRequest{Price: &price}); !errors.Is(err, ErrNoChange) {
		t.Fatalf("identical patch should report ErrNoChange, got %v", err)
	}
	if _, err := inv.Update(ctx, actor, item.ID, entity.InventoryUpdateRequest{}); !errors.Is(err, ErrNoChange) {
		t.Fatalf("empty patch should report ErrNoChange, got %v", err)
	}
}

func TestInventoryDeleteOwnership(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	owner := signupUser(t, svc, "alice", "alice@example.com")
	stranger := signupUser(t, svc, "bobby", "bob@example.com")

	item, err := inv.Create(ctx, actorFor(owner), entity.InventoryCreateRequest{Name: "Widget", Price: 2, Quantity: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := inv.Delete(ctx, actorFor(stranger), item.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete should be forbidden, got %v", err)
	}
	if err := inv.Delete(ctx, actorFor(owner), item.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	// 再删一次:条目已不可见
	if err := inv.Delete(ctx, actorFor(owner), item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat delete should read as missing, got %v", err)
	}

	raw, err := repo.GetInventoryItemByID(ctx, item.ID, true)
	if err != nil {
		t.Fatalf("audit read: %v", err)
	}
	if raw.Quantity != 0 {
		t.Fatalf("delete must zero quantity, got %d", raw.Quantity)
	}
}

func TestInventoryListByOwner(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	alice := signupUser(t, svc, "alice", "alice@example.com")
	bob := signupUser(t, svc, "bobby", "bob@example.com")
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)

	if _, err := inv.Create(ctx, actorFor(alice), entity.InventoryCreateRequest{Name: "Widget", Price: 2, Quantity: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 普通用户不能查看别人的清单
	if _, err := inv.ListByOwner(ctx, actorFor(bob), alice.User.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger per-owner listing should be forbidden, got %v", err)
	}

	mine, err := inv.ListByOwner(ctx, actorFor(alice), alice.User.ID, nil)
	if err != nil {
		t.Fatalf("own listing: %v", err)
	}
	if len(mine.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(mine.Items))
	}

	if _, err := inv.ListByOwner(ctx, admin, alice.User.ID, nil); err != nil {
		t.Fatalf("admin per-owner listing: %v", err)
	}
}

func TestInventoryExport(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	alice := signupUser(t, svc, "alice", "alice@example.com")
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)

	if _, err := inv.Create(ctx, actorFor(alice), entity.InventoryCreateRequest{Name: "Widget", Price: 2.5, Quantity: 4}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := inv.Export(ctx, actorFor(alice)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain user export should be forbidden, got %v", err)
	}

	resp, err := inv.Export(ctx, admin)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if resp.Items != 1 {
		t.Fatalf("expected 1 exported item, got %d", resp.Items)
	}
	if resp.Key == "" {
		t.Fatal("export should return a storage key")
	}
}

func TestRenderInventoryCSV(t *testing.T) {
	owner := &entity.DbUser{ID: 7, Email: "alice@example.com"}
	items := []entity.DbInventoryItem{
		{ID: 1, Name: "Widget", Price: 2.5, Quantity: 4, Category: "tools", OwnerID: 7, Owner: owner},
		{ID: 2, Name: "Gadget", Price: 10, Quantity: 1, Category: "electronics", OwnerID: 7},
	}

	payload, err := renderInventoryCSV(items)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][1] != "Widget" || records[1][2] != "2.50" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[1][6] != "alice@example.com" {
		t.Fatalf("owner email missing: %v", records[1])
	}
	if records[2][6] != "" {
		t.Fatalf("missing owner should render empty email, got %v", records[2])
	}
}
