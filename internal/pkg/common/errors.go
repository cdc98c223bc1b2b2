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
		return e.Err.Error()
	}
	return e.Message
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

// ExtractionError 擷取失敗錯誤
// 管線中唯一需要呼叫端明確處理的錯誤；其餘退化情況
// （查無營養、AI 不可用、無來源文字）一律編碼在回傳資料中。
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}

// NewExtractionError 創建擷取失敗錯誤
func NewExtractionError(reason string) error {
	return &ExtractionError{Reason: reason}
}

// IsExtractionError 檢查是否為擷取失敗錯誤
func IsExtractionError(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503

	// 業務錯誤
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)

	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "無效的圖片格式", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled      = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
	ErrAIServiceError     = NewError("AI_SERVICE_ERROR", "AI 服務錯誤", http.StatusServiceUnavailable, nil)
	ErrAIUnavailable      = NewError("AI_UNAVAILABLE", "AI 服務未設定", http.StatusServiceUnavailable, nil)
)
