package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "BadRequest",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidRequest,
			message:        "无效的请求",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
			expectedMsg:    "无效的请求",
		},
		{
			name:           "NotFound",
			status:         http.StatusNotFound,
			code:           ErrCodeItemNotFound,
			message:        "商品不存在",
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeItemNotFound,
			expectedMsg:    "商品不存在",
		},
		{
			name:           "InternalError",
			status:         http.StatusInternalServerError,
			code:           ErrCodeInternalError,
			message:        "服务器内部错误",
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
			expectedMsg:    "服务器内部错误",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponse(c, tt.status, tt.code, tt.message)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}

			if response.Message != tt.expectedMsg {
				t.Errorf("expected message %s, got %s", tt.expectedMsg, response.Message)
			}
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		notFoundCode   string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "缺失资源",
			err:            service.ErrNotFound,
			notFoundCode:   ErrCodeItemNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeItemNotFound,
		},
		{
			name:           "并发冲突与缺失不可区分",
			err:            service.ErrConflict,
			notFoundCode:   ErrCodeUserNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeUserNotFound,
		},
		{
			name:           "越权",
			err:            service.ErrForbidden,
			notFoundCode:   ErrCodeItemNotFound,
			expectedStatus: http.StatusForbidden,
			expectedCode:   ErrCodeForbidden,
		},
		{
			name:           "邮箱占用",
			err:            service.ErrEmailExists,
			notFoundCode:   ErrCodeUserNotFound,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeEmailExists,
		},
		{
			name:           "凭证错误",
			err:            service.ErrInvalidCredentials,
			notFoundCode:   ErrCodeUserNotFound,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeInvalidCredentials,
		},
		{
			name:           "字段校验失败",
			err:            &service.ValidationError{Message: "name is required"},
			notFoundCode:   ErrCodeUserNotFound,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeValidation,
		},
		{
			name:           "未知错误",
			err:            errors.New("boom"),
			notFoundCode:   ErrCodeItemNotFound,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			RespondServiceError(c, tt.err, tt.notFoundCode)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
		})
	}
}
