package image

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Service 圖片負載處理服務
// 管線不自行解碼媒體，只驗證協作者交付的負載並正規化為 data URI。
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// ProcessImage 驗證並正規化圖片負載
// 接受 http(s) URL、data URI 或裸 base64；回傳可直接送交多模態模型的字串。
func (s *Service) ProcessImage(imageData string) (string, error) {
	// URL 直接轉交，由模型端抓取
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		return imageData, nil
	}

	payload := imageData
	prefix := "data:image/jpeg;base64"

	// data URI：拆出標頭與資料
	if strings.HasPrefix(imageData, "data:") {
		if !strings.HasPrefix(imageData, "data:image/") {
			return "", fmt.Errorf("invalid image data format")
		}
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
			return "", fmt.Errorf("invalid data uri format")
		}
		prefix = parts[0]
		payload = parts[1]
	}

	// 驗證 base64 與大小
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 data: %w", err)
	}
	if int64(len(decoded)) > s.maxSizeBytes {
		return "", fmt.Errorf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes)
	}
	if len(decoded) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	return fmt.Sprintf("%s,%s", prefix, payload), nil
}

// ValidateImage 驗證圖片負載
func (s *Service) ValidateImage(imageData string) error {
	_, err := s.ProcessImage(imageData)
	return err
}

// MimeFromDataURI 從 data URI 取出 MIME 類型；非 data URI 回傳空字串
func MimeFromDataURI(imageData string) string {
	if !strings.HasPrefix(imageData, "data:") {
		return ""
	}
	rest := strings.TrimPrefix(imageData, "data:")
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return rest[:i]
	}
	return ""
}
