package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-pipeline/internal/api/handlers/health"
	pipelineHandler "recipe-pipeline/internal/api/handlers/pipeline"
	"recipe-pipeline/internal/api/middleware"
	"recipe-pipeline/internal/core/ai/cache"
	aiservice "recipe-pipeline/internal/core/ai/service"
	"recipe-pipeline/internal/core/extraction"
	"recipe-pipeline/internal/core/nutrition"
	"recipe-pipeline/internal/core/service"
	"recipe-pipeline/internal/core/validation"
	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (10MB)
	maxBodySize = 10 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.CacheManager) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 重複請求過濾與速率限制
	if cfg.DedupWindow > 0 {
		router.Use(middleware.Deduplication(cfg))
	}
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("model", cfg.OpenRouter.Model),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化 AI 服務
	aiService, err := aiservice.NewService(cfg, cacheManager)
	if err != nil || aiService == nil {
		common.LogError("Failed to initialize AI service", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize AI service: %w", err)
	}

	// 載入營養表與別名表
	table, err := nutrition.LoadTableFile(cfg.Pipeline.NutrientTablePath)
	if err != nil {
		common.LogError("Failed to load nutrient table", zap.Error(err))
		return nil, fmt.Errorf("failed to load nutrient table: %w", err)
	}
	synonyms, err := nutrition.LoadSynonymFile(cfg.Pipeline.SynonymTablePath)
	if err != nil {
		common.LogError("Failed to load synonym table", zap.Error(err))
		return nil, fmt.Errorf("failed to load synonym table: %w", err)
	}

	// 初始化管線服務
	engine := nutrition.NewEngine(table, synonyms, aiService)
	fetcher := service.NewPageFetcher(cfg)
	aiParser := extraction.NewAIParser(aiService)
	// 影音轉錄協作者尚未接入，影音來源會得到明確的擷取失敗
	orchestrator := extraction.NewOrchestrator(fetcher, nil, aiParser)

	validatorCfg := validation.Config{
		LowConfidenceThreshold: cfg.Pipeline.LowConfidenceThreshold,
		QuantityTolerance:      cfg.Pipeline.QuantityTolerance,
		MissingMinConfidence:   cfg.Pipeline.MissingMinConfidence,
	}
	validator := validation.NewValidator(validatorCfg, synonyms)
	quickFixes := validation.NewGenerator(validatorCfg)

	common.LogInfo("Pipeline services initialized successfully",
		zap.Bool("ai_available", aiService.Available()),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.String("environment", cfg.App.Env),
	)

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// 設置配置與服務供處理器取用
		c.Set("config", cfg)
		c.Set("ai_service", aiService)

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := pipelineHandler.NewHandler(orchestrator, validator, quickFixes, engine)

		recipeGroup := api.Group("/recipe")
		{
			// 完整匯入管線
			recipeGroup.POST("/import", handler.HandleImport)

			// 分段端點
			recipeGroup.POST("/extract", handler.HandleExtract)
			recipeGroup.POST("/validate", handler.HandleValidate)
			recipeGroup.POST("/nutrition", handler.HandleNutrition)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("ai_available", aiService.Available()),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
