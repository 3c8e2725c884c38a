package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/interfaces/http/handler"
	"github.com/hospital-erp/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// APIHandlers are the handlers served under the versioned prefix
type APIHandlers struct {
	Auth         *handler.AuthHandler
	Inventory    *handler.InventoryHandler
	Requests     *handler.RequestHandler
	Procurement  *handler.ProcurementHandler
	Transactions *handler.TransactionHandler
	Users        *handler.UserHandler
	Departments  *handler.DepartmentHandler
	System       *handler.SystemHandler
}

// AccessControl gates domain groups on the caller's module permissions
type AccessControl struct {
	Authorizer middleware.ModuleAuthorizer
	// LoginLimiter slows password guessing; nil disables it
	LoginLimiter *middleware.RateLimiter
	Logger       *zap.Logger
}

// RegisterAPI registers the ERP domain groups and the health check, which
// is served both at /health and under the versioned prefix
func (r *Router) RegisterAPI(h APIHandlers, ac AccessControl) *Router {
	requireModule := func(key identity.ModuleKey) gin.HandlerFunc {
		return middleware.RequireModule(ac.Authorizer, key, ac.Logger)
	}

	r.engine.GET("/health", h.System.Health)
	systemRoutes := NewDomainGroup("system", "")
	systemRoutes.GET("/health", h.System.Health)

	authRoutes := NewDomainGroup("auth", "/auth")
	login := []gin.HandlerFunc{h.Auth.Login}
	if ac.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.RateLimit(ac.LoginLimiter)}, login...)
	}
	authRoutes.POST("/login", login...)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)

	inventoryRoutes := NewDomainGroup("inventory", "/inventory").Use(requireModule(identity.ModuleInventory))
	inventoryRoutes.GET("/main", h.Inventory.ListMain)
	inventoryRoutes.GET("/department", h.Inventory.ListDepartment)
	inventoryRoutes.POST("/add", h.Inventory.AddItem)
	inventoryRoutes.POST("/restock/:id", h.Inventory.Restock)
	inventoryRoutes.POST("/transfer", h.Inventory.Transfer)
	inventoryRoutes.POST("/:id/checkout", h.Inventory.CheckoutDepartmentItem)
	inventoryRoutes.POST("/main/:id/checkout", h.Inventory.CheckoutMainItem)

	requestRoutes := NewDomainGroup("inventory-requests", "/inventory-requests").Use(requireModule(identity.ModuleInventory))
	requestRoutes.GET("", h.Requests.List)
	requestRoutes.POST("", h.Requests.Create)
	requestRoutes.PATCH("/:id/status", h.Requests.UpdateStatus)
	requestRoutes.DELETE("/:id", h.Requests.Delete)
	// issuing a token is a GET but arms a checkout
	requestRoutes.GET("/:id/checkout", middleware.RequireWrite(), h.Requests.IssueCheckoutToken)
	requestRoutes.POST("/:id/checkout", h.Requests.CompleteCheckout)

	procurementRoutes := NewDomainGroup("procurement", "/procurement-requests").Use(requireModule(identity.ModuleProcurement))
	procurementRoutes.GET("", h.Procurement.List)
	procurementRoutes.POST("", h.Procurement.Create)
	procurementRoutes.POST("/:id/submit", h.Procurement.Submit)
	procurementRoutes.PATCH("/:id/status", h.Procurement.UpdateStatus)
	procurementRoutes.DELETE("/:id", h.Procurement.Delete)

	transactionRoutes := NewDomainGroup("inventory-transactions", "/inventory-transactions").Use(requireModule(identity.ModuleInventory))
	transactionRoutes.GET("", h.Transactions.List)
	transactionRoutes.GET("/monthly-report", h.Transactions.MonthlyReport)
	transactionRoutes.GET("/export/csv", h.Transactions.ExportCSV)
	transactionRoutes.GET("/export/xlsx", h.Transactions.ExportXLSX)

	userRoutes := NewDomainGroup("users", "/users").Use(requireModule(identity.ModuleUserManagement))
	userRoutes.GET("", h.Users.List)
	userRoutes.GET("/deleted", h.Users.ListDeleted)
	userRoutes.POST("/create", h.Users.Create)
	userRoutes.PATCH("/:id", h.Users.Update)
	userRoutes.DELETE("/:id", h.Users.Delete)
	userRoutes.PATCH("/:id/restore", h.Users.Restore)

	departmentRoutes := NewDomainGroup("departments", "/departments").Use(requireModule(identity.ModuleDepartments))
	departmentRoutes.GET("", h.Departments.List)
	departmentRoutes.POST("/create", h.Departments.Create)
	departmentRoutes.PATCH("/assign-head", h.Departments.AssignHead)
	departmentRoutes.PATCH("/:id", h.Departments.Update)
	departmentRoutes.DELETE("/:id", h.Departments.Delete)

	return r.Register(systemRoutes).
		Register(authRoutes).
		Register(inventoryRoutes).
		Register(requestRoutes).
		Register(procurementRoutes).
		Register(transactionRoutes).
		Register(userRoutes).
		Register(departmentRoutes)
}
