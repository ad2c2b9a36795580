package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mufassa12/contrivance/internal/adapters/api/middleware"
	"github.com/Mufassa12/contrivance/internal/application/auth"
	"github.com/Mufassa12/contrivance/internal/application/spreadsheet"
	"github.com/Mufassa12/contrivance/internal/realtime"
)

// Handler handles HTTP requests for the collaboration API
type Handler struct {
	authService  *auth.Service
	sheetService *spreadsheet.Service
	registry     *realtime.Registry
}

// NewHandler creates a new API handler
func NewHandler(authService *auth.Service, sheetService *spreadsheet.Service, registry *realtime.Registry) *Handler {
	return &Handler{
		authService:  authService,
		sheetService: sheetService,
		registry:     registry,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	authenticated := middleware.AuthMiddleware(h.authService)

	api := r.Group("/api/v1")
	{
		// Auth routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
			authGroup.POST("/logout", authenticated, h.Logout)
			authGroup.POST("/logout-all", authenticated, h.LogoutAll)
			authGroup.GET("/me", authenticated, h.Me)
		}

		// Spreadsheet routes
		sheets := api.Group("/spreadsheets", authenticated)
		{
			sheets.POST("", h.CreateSpreadsheet)
			sheets.GET("", h.ListSpreadsheets)
			sheets.GET("/:spreadsheetId", h.GetSpreadsheet)
			sheets.PUT("/:spreadsheetId", h.UpdateSpreadsheet)
			sheets.DELETE("/:spreadsheetId", h.DeleteSpreadsheet)

			// Column routes
			columns := sheets.Group("/:spreadsheetId/columns")
			{
				columns.POST("", h.CreateColumn)
				columns.PUT("/:columnId", h.UpdateColumn)
				columns.DELETE("/:columnId", h.DeleteColumn)
			}

			// Row routes
			rows := sheets.Group("/:spreadsheetId/rows")
			{
				rows.POST("", h.CreateRow)
				rows.PUT("/:rowId", h.UpdateRow)
				rows.DELETE("/:rowId", h.DeleteRow)
			}
		}

		api.GET("/health", h.Health)
	}

	// WebSocket endpoint for live spreadsheet updates (bearer header or ?token=...)
	r.GET("/ws/spreadsheet/:spreadsheetId", h.HandleWebSocket)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Health godoc
//
//	@Summary		Health check
//	@Description	Check if the API is healthy
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.registry.TotalConnections(),
	})
}
