package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"stockroom/internal/entity"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateItem 创建商品,属主固定为当前用户
func (h *HTTPHandler) CreateItem(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.InventoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.inventoryService.Create(ctx, user.Actor(), req)
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListItems 浏览活跃商品目录,支持类目与名称过滤。
// 管理员可带 include_inactive=true 审计已下架商品。
func (h *HTTPHandler) ListItems(c *gin.Context) {
	query, ok := bindInventoryQuery(c)
	if !ok {
		return
	}

	if user := CurrentUser(c); user != nil && user.IsAdmin() {
		query.IncludeInactive = strings.EqualFold(c.Query("include_inactive"), "true")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.inventoryService.List(ctx, query)
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMyItems 查看自己名下的商品
func (h *HTTPHandler) ListMyItems(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	query, ok := bindInventoryQuery(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.inventoryService.ListByOwner(ctx, user.Actor(), user.ID, query)
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListUserItems 管理员查看指定用户名下的商品
func (h *HTTPHandler) ListUserItems(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ownerID, ok := parseIDParam(c)
	if !ok {
		return
	}
	query, ok := bindInventoryQuery(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.inventoryService.ListByOwner(ctx, user.Actor(), ownerID, query)
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetItem 查看单个商品,任何认证用户可读
func (h *HTTPHandler) GetItem(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.inventoryService.Get(ctx, user.Actor(), id)
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateItem 属主或管理员修改商品。与现状一致的补丁原样返回当前商品。
func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req entity.InventoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.inventoryService.Update(ctx, user.Actor(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrNoChange) {
			current, gerr := h.inventoryService.Get(ctx, user.Actor(), id)
			if gerr != nil {
				RespondServiceError(c, gerr, ErrCodeItemNotFound)
				return
			}
			c.JSON(http.StatusOK, current)
			return
		}
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem 属主或管理员下架商品,数量同时清零
func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.inventoryService.Delete(ctx, user.Actor(), id); err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

// ItemStats 商品统计。scope=mine 只统计自己名下的商品。
func (h *HTTPHandler) ItemStats(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var ownerID uint
	if strings.EqualFold(strings.TrimSpace(c.Query("scope")), "mine") {
		ownerID = user.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.inventoryService.Stats(ctx, ownerID)
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportItems 管理员将活跃商品目录导出为 CSV 并落入存储后端
func (h *HTTPHandler) ExportItems(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.inventoryService.Export(ctx, user.Actor())
	if err != nil {
		RespondServiceError(c, err, ErrCodeItemNotFound)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func bindInventoryQuery(c *gin.Context) (*entity.InventoryQuery, bool) {
	var query entity.InventoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return nil, false
	}
	query.Normalize()
	return &query, true
}
