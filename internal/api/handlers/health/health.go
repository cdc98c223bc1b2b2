package health

import (
	"net/http"
	"runtime"
	"time"

	aiservice "recipe-pipeline/internal/core/ai/service"
	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Pipeline  *PipelineStatus        `json:"pipeline,omitempty"`
}

// PipelineStatus 管線協作者狀態
type PipelineStatus struct {
	AIAvailable  bool `json:"ai_available"`
	CacheEnabled bool `json:"cache_enabled"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// 構建響應
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	// AI 協作者狀態（擷取在 AI 不可用時退化為啟發式，不影響健康狀態）
	if svc, exists := c.Get("ai_service"); exists {
		if aiSvc, ok := svc.(*aiservice.Service); ok {
			response.Pipeline = &PipelineStatus{
				AIAvailable:  aiSvc.Available(),
				CacheEnabled: config.Cache.Enabled,
			}
		}
	}

	// 記錄請求
	common.LogInfo("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
func ReadinessCheck(c *gin.Context) {
	// 營養表在啟動時載入，走到這裡即代表路由已可服務
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
