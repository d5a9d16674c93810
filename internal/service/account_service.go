package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockroom/internal/auth"
	"stockroom/internal/entity"
	"stockroom/internal/model"
	"stockroom/internal/policy"
	"stockroom/internal/validation"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AccountService 账户服务，封装注册、登录与账户生命周期逻辑
type AccountService struct {
	repo   model.Repository
	tokens *auth.Manager
}

// NewAccountService 创建账户服务实例
func NewAccountService(repo model.Repository, tokens *auth.Manager) *AccountService {
	return &AccountService{
		repo:   repo,
		tokens: tokens,
	}
}

// Signup registers a plain user account. The role is fixed: privileged
// accounts only come from bootstrap or the super admin creation flow.
func (s *AccountService) Signup(ctx context.Context, req entity.AuthSignupRequest) (*entity.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := validation.NormalizeEmail(req.Email)

	if err := validation.Name(name); err != nil {
		return nil, validationError(err)
	}
	if err := validation.Email(email); err != nil {
		return nil, validationError(err)
	}
	if err := validation.Password(req.Password, name, email); err != nil {
		return nil, validationError(err)
	}
	age := 0
	if req.Age != nil {
		if err := validation.Age(*req.Age); err != nil {
			return nil, validationError(err)
		}
		age = *req.Age
	}

	// 只有活跃账号占用邮箱，注销后的地址可以重新注册
	if _, err := s.repo.GetActiveUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := entity.DbUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Age:          age,
		Role:         entity.UserRoleUser,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user signed up")

	return s.issueToken(&user)
}

// Login authenticates against active accounts only. Soft-deleted accounts
// fail exactly like a wrong password.
func (s *AccountService) Login(ctx context.Context, req entity.AuthLoginRequest) (*entity.AuthResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *AccountService) issueToken(user *entity.DbUser) (*entity.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &entity.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      entity.MakeUserSummary(user),
	}, nil
}

// Profile returns the actor's own account.
func (s *AccountService) Profile(ctx context.Context, actor policy.Actor) (*entity.UserSummary, error) {
	user, err := s.repo.GetUserByID(ctx, actor.ID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	summary := entity.MakeUserSummary(user)
	return &summary, nil
}

// GetUser returns one account, active only. Admins read anyone, plain users
// read themselves.
func (s *AccountService) GetUser(ctx context.Context, actor policy.Actor, targetID uint) (*entity.UserSummary, error) {
	target, err := s.loadUserState(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessUser(actor, policy.ActionRead, target.state); err != nil {
		return nil, err
	}
	summary := entity.MakeUserSummary(target.user)
	return &summary, nil
}

// UpdateProfile applies the self-service patch. Email and role are immutable
// after signup; fields that equal the current value are dropped, and a patch
// that drops to nothing yields ErrNoChange.
func (s *AccountService) UpdateProfile(ctx context.Context, actor policy.Actor, targetID uint, req entity.ProfileUpdateRequest) (*entity.UserSummary, error) {
	target, err := s.loadUserState(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessUser(actor, policy.ActionUpdate, target.state); err != nil {
		return nil, err
	}
	user := target.user

	var updates entity.UserUpdates
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validation.Name(name); err != nil {
			return nil, validationError(err)
		}
		if name != user.Name {
			updates.Name = &name
		}
	}
	if req.Age != nil {
		if err := validation.Age(*req.Age); err != nil {
			return nil, validationError(err)
		}
		if *req.Age != user.Age {
			updates.Age = req.Age
		}
	}
	if req.Password != nil {
		if err := validation.Password(*req.Password, user.Name, user.Email); err != nil {
			return nil, validationError(err)
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates.PasswordHash = &hash
	}

	if updates.IsEmpty() {
		return nil, ErrNoChange
	}

	rows, err := s.repo.UpdateUserFields(ctx, user.ID, updates)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if rows == 0 {
		// 读到写之间账号被注销了
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"actor_id": actor.ID,
		}).Warn("profile update lost to concurrent deactivation")
		return nil, ErrConflict
	}

	updated, err := s.repo.GetUserByID(ctx, user.ID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("reload user: %w", err)
	}
	summary := entity.MakeUserSummary(updated)
	return &summary, nil
}

// Deactivate soft-deletes an account with the full cascade: owned inventory
// is deactivated first (quantities zeroed), then the account flag flips.
// A repeat call on an already-inactive account reports ErrNoChange.
func (s *AccountService) Deactivate(ctx context.Context, actor policy.Actor, targetID uint) error {
	user, err := s.repo.GetUserByID(ctx, targetID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	state := policy.UserState{
		ID:     user.ID,
		Role:   user.Role,
		Exists: true,
		Active: user.IsActive,
	}

	if !user.IsActive {
		// 幂等:账号已注销。仍按活跃状态走一遍授权,
		// 无权限的调用方只会看到"不存在"。
		state.Active = true
		if err := policy.CanAccessUser(actor, policy.ActionDelete, state); err != nil {
			if errors.Is(err, policy.ErrForbidden) {
				return ErrNotFound
			}
			return err
		}
		return ErrNoChange
	}

	if err := policy.CanAccessUser(actor, policy.ActionDelete, state); err != nil {
		return err
	}

	// 先处理库存,再翻转账号标志:中途失败时不会出现
	// "账号已注销但商品仍然可见"的状态
	itemRows, err := s.repo.DeactivateInventoryByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("deactivate inventory: %w", err)
	}

	rows, err := s.repo.DeactivateUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if rows == 0 {
		return ErrNoChange
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"actor_id": actor.ID,
		"items":    itemRows,
	}).Info("account deactivated")
	return nil
}

// ListUsers is the admin listing. The includeInactive audit switch is only
// honored for privileged actors.
func (s *AccountService) ListUsers(ctx context.Context, actor policy.Actor, query *entity.UserQuery) (*entity.UserListResponse, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if query == nil {
		query = &entity.UserQuery{}
	}

	users, meta, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]entity.AdminUserSummary, 0, len(users))
	for i := range users {
		out = append(out, entity.MakeAdminUserSummary(&users[i]))
	}
	return &entity.UserListResponse{Users: out, Meta: meta}, nil
}

// CreateUser is the super-admin flow that assigns roles at creation time.
// Another super admin cannot be minted this way.
func (s *AccountService) CreateUser(ctx context.Context, actor policy.Actor, req entity.UserCreateRequest) (*entity.UserSummary, error) {
	if actor.Role != entity.UserRoleSuperAdmin {
		return nil, ErrForbidden
	}
	if req.Role != entity.UserRoleUser && req.Role != entity.UserRoleAdmin {
		return nil, validationError(errors.New("role must be user or admin"))
	}

	name := strings.TrimSpace(req.Name)
	email := validation.NormalizeEmail(req.Email)
	if err := validation.Name(name); err != nil {
		return nil, validationError(err)
	}
	if err := validation.Email(email); err != nil {
		return nil, validationError(err)
	}
	if err := validation.Password(req.Password, name, email); err != nil {
		return nil, validationError(err)
	}
	age := 0
	if req.Age != nil {
		if err := validation.Age(*req.Age); err != nil {
			return nil, validationError(err)
		}
		age = *req.Age
	}

	if _, err := s.repo.GetActiveUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := entity.DbUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Age:          age,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"role":     user.Role,
		"actor_id": actor.ID,
	}).Info("account created by super admin")

	summary := entity.MakeUserSummary(&user)
	return &summary, nil
}

type userTarget struct {
	user  *entity.DbUser
	state policy.UserState
}

// loadUserState fetches the target including inactive rows so the policy
// can distinguish soft-deleted from missing.
func (s *AccountService) loadUserState(ctx context.Context, id uint) (*userTarget, error) {
	user, err := s.repo.GetUserByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &userTarget{
		user: user,
		state: policy.UserState{
			ID:     user.ID,
			Role:   user.Role,
			Exists: true,
			Active: user.IsActive,
		},
	}, nil
}
