package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/entity"
	"stockroom/internal/model"
	modelsql "stockroom/internal/model/sql"
	"stockroom/internal/policy"
	"stockroom/internal/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Vortex#91k"

func newTestRepo(t *testing.T) model.Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "service_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&entity.DbUser{}, &entity.DbInventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return modelsql.NewGormRepository(db)
}

func newAccountService(t *testing.T) (*AccountService, model.Repository) {
	t.Helper()
	repo := newTestRepo(t)
	tokens, err := auth.NewManager("service-test-secret", "stockroom-test", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return NewAccountService(repo, tokens), repo
}

func newInventoryService(t *testing.T, repo model.Repository) *InventoryService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	return NewInventoryService(repo, store)
}

func signupUser(t *testing.T, svc *AccountService, name, email string) *entity.AuthResponse {
	t.Helper()
	resp, err := svc.Signup(context.Background(), entity.AuthSignupRequest{
		Name:     name,
		Email:    email,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return resp
}

func actorFor(resp *entity.AuthResponse) policy.Actor {
	return policy.Actor{ID: resp.User.ID, Role: resp.User.Role}
}

func seedPrivileged(t *testing.T, repo model.Repository, name, email, role string) policy.Actor {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := entity.DbUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := repo.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return policy.Actor{ID: user.ID, Role: role}
}

func TestSignupAssignsPlainRole(t *testing.T) {
	svc, _ := newAccountService(t)

	resp := signupUser(t, svc, "alice", "alice@example.com")
	if resp.User.Role != entity.UserRoleUser {
		t.Fatalf("signup must assign the plain role, got %q", resp.User.Role)
	}
	if resp.Token == "" {
		t.Fatal("signup should issue a token")
	}
}

func TestSignupRejectsActiveDuplicateEmail(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	signupUser(t, svc, "alice", "alice@example.com")

	_, err := svc.Signup(ctx, entity.AuthSignupRequest{
		Name:     "mallory",
		Email:    "ALICE@example.com",
		Password: testPassword,
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestSignupEmailFreedByDeactivation(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	first := signupUser(t, svc, "alice", "alice@example.com")
	if err := svc.Deactivate(ctx, actorFor(first), first.User.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	second, err := svc.Signup(ctx, entity.AuthSignupRequest{
		Name:     "alicia",
		Email:    "alice@example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("re-register freed email: %v", err)
	}
	if second.User.ID == first.User.ID {
		t.Fatal("re-registration must create a fresh account")
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  entity.AuthSignupRequest
	}{
		{"保留用户名", entity.AuthSignupRequest{Name: "admin", Email: "a@example.com", Password: testPassword}},
		{"一次性邮箱", entity.AuthSignupRequest{Name: "alice", Email: "a@mailinator.com", Password: testPassword}},
		{"弱密码", entity.AuthSignupRequest{Name: "alice", Email: "a@example.com", Password: "password"}},
		{"密码包含用户名", entity.AuthSignupRequest{Name: "alice", Email: "a@example.com", Password: "Alice#19xy"}},
		{"年龄越界", entity.AuthSignupRequest{Name: "alice", Email: "a@example.com", Password: testPassword, Age: intPtr(200)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.req)
			if _, ok := AsValidation(err); !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")

	resp, err := svc.Login(ctx, entity.AuthLoginRequest{Email: "Alice@Example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != user.User.ID {
		t.Fatalf("expected user %d, got %d", user.User.ID, resp.User.ID)
	}

	if _, err := svc.Login(ctx, entity.AuthLoginRequest{Email: "alice@example.com", Password: "Wrong#99pw"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password should fail closed, got %v", err)
	}
	if _, err := svc.Login(ctx, entity.AuthLoginRequest{Email: "ghost@example.com", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should fail identically, got %v", err)
	}
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")
	if err := svc.Deactivate(ctx, actorFor(user), user.User.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Login(ctx, entity.AuthLoginRequest{Email: "alice@example.com", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("deactivated account must not log in, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")
	actor := actorFor(user)

	newName := "alicia"
	updated, err := svc.UpdateProfile(ctx, actor, user.User.ID, entity.ProfileUpdateRequest{Name: &newName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "alicia" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}

	// 相同取值的补丁没有任何可写字段
	if _, err := svc.UpdateProfile(ctx, actor, user.User.ID, entity.ProfileUpdateRequest{Name: &newName}); !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange, got %v", err)
	}

	// 空补丁同样如此
	if _, err := svc.UpdateProfile(ctx, actor, user.User.ID, entity.ProfileUpdateRequest{}); !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange for empty patch, got %v", err)
	}
}

func TestUpdateProfileSelfOnly(t *testing.T) {
	svc, repo := newAccountService(t)
	ctx := context.Background()

	alice := signupUser(t, svc, "alice", "alice@example.com")
	bob := signupUser(t, svc, "bobby", "bob@example.com")
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)

	name := "intruder"
	if _, err := svc.UpdateProfile(ctx, actorFor(bob), alice.User.ID, entity.ProfileUpdateRequest{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger update should be forbidden, got %v", err)
	}
	// 管理员也无权改别人的资料
	if _, err := svc.UpdateProfile(ctx, admin, alice.User.ID, entity.ProfileUpdateRequest{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin profile update should be forbidden, got %v", err)
	}
}

func TestDeactivateCascade(t *testing.T) {
	svc, repo := newAccountService(t)
	inv := newInventoryService(t, repo)
	ctx := context.Background()

	user := signupUser(t, svc, "alice", "alice@example.com")
	actor := actorFor(user)

	item, err := inv.Create(ctx, actor, entity.InventoryCreateRequest{Name: "Ledger", Price: 15, Quantity: 3})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := svc.Deactivate(ctx, actor, user.User.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// 级联后商品对公开读取不可见,且数量清零
	raw, err := repo.GetInventoryItemByID(ctx, item.ID, true)
	if err != nil {
		t.Fatalf("audit read: %v", err)
	}
	if raw.IsActive || raw.Quantity != 0 {
		t.Fatalf("cascade should deactivate items and zero quantity, got active=%v quantity=%d", raw.IsActive, raw.Quantity)
	}

	// 重复注销是幂等的
	if err := svc.Deactivate(ctx, actor, user.User.ID); !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange on repeat, got %v", err)
	}
}

func TestDeactivateHierarchy(t *testing.T) {
	svc, repo := newAccountService(t)
	ctx := context.Background()

	alice := signupUser(t, svc, "alice", "alice@example.com")
	bob := signupUser(t, svc, "bobby", "bob@example.com")
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)
	peer := seedPrivileged(t, repo, "diana", "diana@example.com", entity.UserRoleAdmin)
	superAdmin := seedPrivileged(t, repo, "erika", "erika@example.com", entity.UserRoleSuperAdmin)

	// 普通用户不能注销别人
	if err := svc.Deactivate(ctx, actorFor(alice), bob.User.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete should be forbidden, got %v", err)
	}
	// 管理员只能注销普通用户,不能动平级管理员
	if err := svc.Deactivate(ctx, admin, peer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin deleting a peer should be forbidden, got %v", err)
	}
	if err := svc.Deactivate(ctx, admin, bob.User.ID); err != nil {
		t.Fatalf("admin deleting a plain user: %v", err)
	}
	// 超级管理员账号在任何路径下都不可注销
	if err := svc.Deactivate(ctx, admin, superAdmin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("super admin must be undeletable, got %v", err)
	}
	if err := svc.Deactivate(ctx, superAdmin, superAdmin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("super admin self-delete must be refused, got %v", err)
	}
	// 超级管理员可以注销管理员
	if err := svc.Deactivate(ctx, superAdmin, peer.ID); err != nil {
		t.Fatalf("super admin deleting an admin: %v", err)
	}
}

func TestDeactivateMissingUser(t *testing.T) {
	svc, repo := newAccountService(t)
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)

	if err := svc.Deactivate(context.Background(), admin, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersRequiresPrivilege(t *testing.T) {
	svc, repo := newAccountService(t)
	ctx := context.Background()

	alice := signupUser(t, svc, "alice", "alice@example.com")
	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)

	if _, err := svc.ListUsers(ctx, actorFor(alice), nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain user listing should be forbidden, got %v", err)
	}

	resp, err := svc.ListUsers(ctx, admin, nil)
	if err != nil {
		t.Fatalf("admin listing: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 active users, got %d", len(resp.Users))
	}
}

func TestCreateUserSuperAdminOnly(t *testing.T) {
	svc, repo := newAccountService(t)
	ctx := context.Background()

	admin := seedPrivileged(t, repo, "carol", "carol@example.com", entity.UserRoleAdmin)
	superAdmin := seedPrivileged(t, repo, "erika", "erika@example.com", entity.UserRoleSuperAdmin)

	req := entity.UserCreateRequest{
		Name:     "frank",
		Email:    "frank@example.com",
		Password: testPassword,
		Role:     entity.UserRoleAdmin,
	}
	if _, err := svc.CreateUser(ctx, admin, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain admin creation should be forbidden, got %v", err)
	}

	created, err := svc.CreateUser(ctx, superAdmin, req)
	if err != nil {
		t.Fatalf("super admin creation: %v", err)
	}
	if created.Role != entity.UserRoleAdmin {
		t.Fatalf("expected admin role, got %q", created.Role)
	}

	// 不允许铸造第二个超级管理员
	req.Email = "second@example.com"
	req.Role = entity.UserRoleSuperAdmin
	if _, err := svc.CreateUser(ctx, superAdmin, req); err == nil {
		t.Fatal("minting a super admin must be rejected")
	}
}

func intPtr(v int) *int {
	return &v
}
