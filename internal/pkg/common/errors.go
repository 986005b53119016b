package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error { return e.Err }

// Is 以錯誤代碼判斷是否為同一類錯誤
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap 以相同代碼包裝底層錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼
func StatusOf(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Status != 0 {
		return ce.Status
	}
	if IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// CodeOf 取得錯誤代碼
func CodeOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	if IsValidationError(err) {
		return ErrCodeInvalidRequest
	}
	return ErrCodeInternalError
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError  = "INTERNAL_ERROR"  // 500
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT" // 504

	// 業務錯誤
	ErrCodeRecipeUnavailable = "RECIPE_UNAVAILABLE"
	ErrCodeStoreWriteFailed  = "STORE_WRITE_FAILED"
	ErrCodeInvalidDishName   = "INVALID_DISH_NAME"
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError  = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrGatewayTimeout = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrRecipeUnavailable = NewError(ErrCodeRecipeUnavailable, "recipe unavailable", http.StatusServiceUnavailable, nil)
	ErrStoreWriteFailed  = NewError(ErrCodeStoreWriteFailed, "recipe could not be saved", http.StatusInternalServerError, nil)
	ErrInvalidDishName   = NewError(ErrCodeInvalidDishName, "dish name is required", http.StatusBadRequest, nil)
	ErrSessionNotFound   = NewError(ErrCodeSessionNotFound, "session not found", http.StatusNotFound, nil)
)
