// Package server wires services and handlers into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"spendwise/internal/config"
	_ "spendwise/internal/docs" // swagger spec registration
	"spendwise/internal/handlers"
	"spendwise/internal/mailer"
	"spendwise/internal/middleware"
	"spendwise/internal/services"
)

// Services is every business service the router needs.
type Services struct {
	User      services.UserServicer
	Category  services.CategoryServicer
	Budget    services.BudgetServicer
	Expense   services.ExpenseServicer
	Settings  services.SettingsServicer
	Contact   services.ContactServicer
	Analytics services.AnalyticsServicer
	Audit     services.AuditServicer
}

// NewServices builds the gorm-backed services.
func NewServices(db *gorm.DB, mail mailer.Mailer, cfg *config.Config) *Services {
	return &Services{
		User: services.NewUserService(db, mail, services.AuthPolicy{
			OTPTTL:        cfg.OTPTTL,
			MaxLoginFails: cfg.MaxLoginFails,
			LockoutWindow: cfg.LockoutWindow,
		}),
		Category:  services.NewCategoryService(db),
		Budget:    services.NewBudgetService(db),
		Expense:   services.NewExpenseService(db),
		Settings:  services.NewSettingsService(db, cfg.DefaultCurrency),
		Contact:   services.NewContactService(db),
		Analytics: services.NewAnalyticsService(db),
		Audit:     services.NewAuditService(db),
	}
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(svc *Services, cfg *config.Config) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.User, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Category, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budget, svc.Analytics, svc.Audit)
	expenseHandler := handlers.NewExpenseHandler(svc.Expense, svc.Settings, svc.Audit)
	dashboardHandler := handlers.NewDashboardHandler(svc.Analytics)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Audit)
	contactHandler := handlers.NewContactHandler(svc.Contact)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/resend-otp", authHandler.ResendOTP)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/password-reset/request", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/verify-otp", authHandler.VerifyPasswordResetOTP)
	auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	v1.GET("/settings/currencies", settingsHandler.GetCurrencies)
	v1.POST("/contact", contactHandler.Submit)

	admin := v1.Group("/admin", middleware.AdminKey(cfg.AdminAPIKey))
	admin.GET("/contact-messages", contactHandler.ListMessages)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)

	protected.GET("/settings", settingsHandler.GetSettings)
	protected.PUT("/settings", settingsHandler.UpdateSettings)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/utilization", budgetHandler.GetUtilization)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/export/pdf", expenseHandler.ExportPDF)
	expenses.GET("/export/csv", expenseHandler.ExportCSV)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("/summary", dashboardHandler.GetSummary)
	insights := dashboard.Group("/analytics")
	insights.GET("/trends", dashboardHandler.GetTrends)
	insights.GET("/category-breakdown", dashboardHandler.GetCategoryBreakdown)
	insights.GET("/budget-adherence", dashboardHandler.GetBudgetAdherence)
	insights.GET("/month-comparison", dashboardHandler.GetMonthComparison)
	insights.GET("/statistics", dashboardHandler.GetStatistics)

	return router
}
