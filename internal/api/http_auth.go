package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stockroom/internal/entity"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Signup 用户注册。角色固定为普通用户,特权账号走超级管理员创建流程。
func (h *HTTPHandler) Signup(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "user repository not available")
		return
	}

	var req entity.AuthSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.accountService.Signup(ctx, req)
	if err != nil {
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login 用户登录。只有活跃账号可以通过,注销账号与错误密码表现一致。
func (h *HTTPHandler) Login(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "user repository not available")
		return
	}

	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.accountService.Login(ctx, req)
	if err != nil {
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout 注销当前会话。令牌是无状态的,服务端不保存会话,
// 此端点用于审计日志和客户端流程对称,由客户端丢弃令牌。
func (h *HTTPHandler) Logout(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user logged out")

	c.Status(http.StatusNoContent)
}

// Me 返回当前用户资料
func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.accountService.Profile(ctx, user.Actor())
	if err != nil {
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMe 更新当前用户资料。邮箱与角色不可变;与现状相同的补丁
// 原样返回当前资料。
func (h *HTTPHandler) UpdateMe(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.accountService.UpdateProfile(ctx, user.Actor(), user.ID, req)
	if err != nil {
		if errors.Is(err, service.ErrNoChange) {
			profile, perr := h.accountService.Profile(ctx, user.Actor())
			if perr != nil {
				RespondServiceError(c, perr, ErrCodeUserNotFound)
				return
			}
			c.JSON(http.StatusOK, profile)
			return
		}
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteMe 注销当前账号并级联下架名下商品
func (h *HTTPHandler) DeleteMe(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.accountService.Deactivate(ctx, user.Actor(), user.ID); err != nil {
		if errors.Is(err, service.ErrNoChange) {
			c.Status(http.StatusNoContent)
			return
		}
		RespondServiceError(c, err, ErrCodeUserNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}
