package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockroom/internal/entity"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

// ListUsers 管理员用户列表。include_inactive=true 时包含已注销账号,
// 用于审计视角。
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var query entity.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	query.Normalize()
	query.IncludeInactive = strings.EqualFold(c.Query("include_inactive"), "true")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.accountService.ListUsers(ctx, user.Actor(), &query)
	if err != nil {
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetUser 查看单个账号,管理员可以看任何活跃账号
func (h *HTTPHandler) GetUser(c *gin.Context) {
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

	target, err := h.accountService.GetUser(ctx, user.Actor(), id)
	if err != nil {
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusOK, target)
}

// CreateUser 超级管理员创建账号并指定角色
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	created, err := h.accountService.CreateUser(ctx, user.Actor(), req)
	if err != nil {
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// DeleteUser 管理员注销账号。层级规则由业务层裁决:管理员只能注销
// 普通用户,超级管理员账号任何人都无法注销。
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.accountService.Deactivate(ctx, user.Actor(), id); err != nil {
		if errors.Is(err, service.ErrNoChange) {
			c.Status(http.StatusNoContent)
			return
		}
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
