package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockroom/internal/entity"
	"stockroom/internal/model"
	"stockroom/internal/policy"
	"stockroom/internal/storage"
	"stockroom/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InventoryService 库存服务,封装商品的增删改查、统计与导出逻辑
type InventoryService struct {
	repo    model.Repository
	storage storage.Storage
}

// NewInventoryService 创建库存服务实例
func NewInventoryService(repo model.Repository, store storage.Storage) *InventoryService {
	return &InventoryService{
		repo:    repo,
		storage: store,
	}
}

// Create inserts a new item owned by the actor. Ownership is fixed at
// creation and never transfers.
func (s *InventoryService) Create(ctx context.Context, actor policy.Actor, req entity.InventoryCreateRequest) (*entity.InventoryItem, error) {
	name := strings.TrimSpace(req.Name)
	if err := validation.ItemName(name); err != nil {
		return nil, validationError(err)
	}
	if err := validation.Price(req.Price); err != nil {
		return nil, validationError(err)
	}
	if err := validation.Quantity(req.Quantity); err != nil {
		return nil, validationError(err)
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = entity.DefaultCategory
	}
	if err := validation.Category(category); err != nil {
		return nil, validationError(err)
	}

	item := entity.DbInventoryItem{
		Name:     name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Category: category,
		OwnerID:  actor.ID,
		IsActive: true,
	}
	if err := s.repo.CreateInventoryItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	// 重新加载以带出属主信息
	created, err := s.repo.GetInventoryItemByID(ctx, item.ID, false)
	if err != nil {
		return nil, fmt.Errorf("reload item: %w", err)
	}
	out := entity.MakeInventoryItem(created)
	return &out, nil
}

// Get returns one item. Reads are open to every authenticated actor;
// soft-deleted items read as missing.
func (s *InventoryService) Get(ctx context.Context, actor policy.Actor, id uint) (*entity.InventoryItem, error) {
	target, err := s.loadItemState(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessItem(actor, policy.ActionRead, target.state); err != nil {
		return nil, err
	}
	out := entity.MakeInventoryItem(target.item)
	return &out, nil
}

// List returns the active catalog with optional category/name filters.
func (s *InventoryService) List(ctx context.Context, query *entity.InventoryQuery) (*entity.InventoryListResponse, error) {
	if query == nil {
		query = &entity.InventoryQuery{}
	}
	return s.list(ctx, query)
}

// ListByOwner narrows the listing to one owner. Serves both "my items" and
// the admin per-user view.
func (s *InventoryService) ListByOwner(ctx context.Context, actor policy.Actor, ownerID uint, query *entity.InventoryQuery) (*entity.InventoryListResponse, error) {
	if ownerID != actor.ID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if query == nil {
		query = &entity.InventoryQuery{}
	}
	query.OwnerID = ownerID
	return s.list(ctx, query)
}

func (s *InventoryService) list(ctx context.Context, query *entity.InventoryQuery) (*entity.InventoryListResponse, error) {
	items, meta, err := s.repo.ListInventoryItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]entity.InventoryItem, 0, len(items))
	for i := range items {
		out = append(out, entity.MakeInventoryItem(&items[i]))
	}
	return &entity.InventoryListResponse{Items: out, Meta: meta}, nil
}

// Update patches an item through a single conditional write scoped by
// ownership. A patch equal to the current state yields ErrNoChange; zero
// matched rows after a successful read means a concurrent change.
func (s *InventoryService) Update(ctx context.Context, actor policy.Actor, id uint, req entity.InventoryUpdateRequest) (*entity.InventoryItem, error) {
	target, err := s.loadItemState(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessItem(actor, policy.ActionUpdate, target.state); err != nil {
		return nil, err
	}
	item := target.item

	var updates entity.InventoryUpdates
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validation.ItemName(name); err != nil {
			return nil, validationError(err)
		}
		if name != item.Name {
			updates.Name = &name
		}
	}
	if req.Price != nil {
		if err := validation.Price(*req.Price); err != nil {
			return nil, validationError(err)
		}
		if *req.Price != item.Price {
			updates.Price = req.Price
		}
	}
	if req.Quantity != nil {
		if err := validation.Quantity(*req.Quantity); err != nil {
			return nil, validationError(err)
		}
		if *req.Quantity != item.Quantity {
			updates.Quantity = req.Quantity
		}
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			category = entity.DefaultCategory
		}
		if err := validation.Category(category); err != nil {
			return nil, validationError(err)
		}
		if category != item.Category {
			updates.Category = &category
		}
	}

	if updates.IsEmpty() {
		return nil, ErrNoChange
	}

	rows, err := s.repo.UpdateInventoryConditional(ctx, item.ID, s.scopeFor(actor), updates)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if rows == 0 {
		logrus.WithFields(logrus.Fields{
			"item_id":  item.ID,
			"actor_id": actor.ID,
		}).Warn("item update lost to concurrent change")
		return nil, ErrConflict
	}

	updated, err := s.repo.GetInventoryItemByID(ctx, item.ID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("reload item: %w", err)
	}
	out := entity.MakeInventoryItem(updated)
	return &out, nil
}

// Delete soft-deletes one item, zeroing its quantity. Idempotence comes for
// free: a soft-deleted item reads as missing on the next call.
func (s *InventoryService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	target, err := s.loadItemState(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanAccessItem(actor, policy.ActionDelete, target.state); err != nil {
		return err
	}

	rows, err := s.repo.DeactivateInventoryConditional(ctx, id, s.scopeFor(actor))
	if err != nil {
		return fmt.Errorf("deactivate item: %w", err)
	}
	if rows == 0 {
		logrus.WithFields(logrus.Fields{
			"item_id":  id,
			"actor_id": actor.ID,
		}).Warn("item delete lost to concurrent change")
		return ErrConflict
	}
	return nil
}

// Stats aggregates the active catalog; ownerID zero means everyone.
func (s *InventoryService) Stats(ctx context.Context, ownerID uint) (*entity.InventoryStatsResponse, error) {
	stats, err := s.repo.InventoryStats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}
	return stats, nil
}

// Export writes the active catalog as CSV to the configured storage backend
// and returns the object key. Admin only.
func (s *InventoryService) Export(ctx context.Context, actor policy.Actor) (*entity.InventoryExportResponse, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if s.storage == nil {
		return nil, errors.New("storage not configured")
	}

	items, err := s.repo.ListActiveInventoryForExport(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	payload, err := renderInventoryCSV(items)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	baseName := fmt.Sprintf("inventory-%s-%s",
		time.Now().UTC().Format("20060102-150405"), uuid.NewString())
	key, err := s.storage.Save(ctx, payload, storage.SaveOptions{
		Category:  "exports",
		Extension: "csv",
		BaseName:  baseName,
	})
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"actor_id": actor.ID,
		"items":    len(items),
		"key":      key,
	}).Info("inventory exported")

	return &entity.InventoryExportResponse{Key: key, Items: len(items)}, nil
}

func renderInventoryCSV(items []entity.DbInventoryItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "name", "price", "quantity", "category", "owner_id", "owner_email", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := range items {
		item := &items[i]
		ownerEmail := ""
		if item.Owner != nil {
			ownerEmail = item.Owner.Email
		}
		record := []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
			strconv.FormatFloat(item.Price, 'f', 2, 64),
			strconv.Itoa(item.Quantity),
			item.Category,
			strconv.FormatUint(uint64(item.OwnerID), 10),
			ownerEmail,
			item.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scopeFor pins conditional writes to the actor unless the role carries
// cross-owner rights.
func (s *InventoryService) scopeFor(actor policy.Actor) *model.OwnerScope {
	if actor.IsPrivileged() {
		return nil
	}
	return &model.OwnerScope{OwnerID: actor.ID}
}

type itemTarget struct {
	item  *entity.DbInventoryItem
	state policy.ItemState
}

// loadItemState fetches including inactive rows; the policy maps inactive
// back to an absence so clients cannot probe soft-deleted items.
func (s *InventoryService) loadItemState(ctx context.Context, id uint) (*itemTarget, error) {
	item, err := s.repo.GetInventoryItemByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	return &itemTarget{
		item: item,
		state: policy.ItemState{
			OwnerID: item.OwnerID,
			Exists:  true,
			Active:  item.IsActive,
		},
	}, nil
}
