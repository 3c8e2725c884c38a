package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	transactionapp "github.com/hospital-erp/backend/internal/application/transaction"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/auth"
	"github.com/hospital-erp/backend/internal/infrastructure/cache"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/models"
	"github.com/hospital-erp/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testUserHeader = "X-Test-User-ID"

// testEnv wires the handlers to real services over an in-memory database
type testEnv struct {
	engine *gin.Engine

	users       *persistence.GormUserRepository
	departments *persistence.GormDepartmentRepository

	transactionService *transactionapp.TransactionService
	blacklist          *auth.InMemoryTokenBlacklist

	admin *identity.User
	nurse *identity.User
	ward  *identity.Department
	icu   *identity.Department
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := zap.NewNop()
	txManager := persistence.NewTxManager(db)
	userRepo := persistence.NewGormUserRepository(db)
	deptRepo := persistence.NewGormDepartmentRepository(db)
	itemRepo := persistence.NewGormStockItemRepository(db)
	txRepo := persistence.NewGormInventoryTransactionRepository(db)
	requestRepo := persistence.NewGormInventoryRequestRepository(db)
	purchaseRepo := persistence.NewGormPurchaseRequestRepository(db)

	tokens := cache.NewInMemoryCheckoutTokenStore()
	t.Cleanup(func() { _ = tokens.Close() })
	blacklist := auth.NewInMemoryTokenBlacklist()

	inventoryService := inventoryapp.NewInventoryService(itemRepo, txRepo, txManager, log)
	inventoryService.SetDepartmentRepository(deptRepo)
	requestService := requestapp.NewRequestService(requestRepo, purchaseRepo, inventoryService, txManager, log)
	purchaseService := requestapp.NewPurchaseService(purchaseRepo, log)
	checkoutService := checkoutapp.NewCheckoutService(requestRepo, tokens, inventoryService, txManager, 5*time.Minute, log)
	transactionService := transactionapp.NewTransactionService(txRepo, time.UTC, log)
	userService := identityapp.NewUserService(userRepo, deptRepo, blacklist, time.Hour, log)
	departmentService := identityapp.NewDepartmentService(deptRepo, userRepo, log)

	env := &testEnv{
		users:              userRepo,
		departments:        deptRepo,
		transactionService: transactionService,
		blacklist:          blacklist,
	}
	env.ward = env.seedDepartment(t, "Ward A")
	env.icu = env.seedDepartment(t, "ICU")
	env.admin = env.seedUser(t, "admin", identity.RoleAdmin, nil)
	env.nurse = env.seedUser(t, "nurse.kim", identity.RoleStaff, &env.ward.ID)

	inventoryHandler := NewInventoryHandler(inventoryService)
	requestHandler := NewRequestHandler(requestService, checkoutService)
	procurementHandler := NewProcurementHandler(purchaseService)
	transactionHandler := NewTransactionHandler(transactionService)
	userHandler := NewUserHandler(userService)
	departmentHandler := NewDepartmentHandler(departmentService)

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(env.authenticate(), middleware.DataScope(userRepo, log))

	api.GET("/inventory/main", inventoryHandler.ListMain)
	api.GET("/inventory/department", inventoryHandler.ListDepartment)
	api.POST("/inventory/add", inventoryHandler.AddItem)
	api.POST("/inventory/restock/:id", inventoryHandler.Restock)
	api.POST("/inventory/transfer", inventoryHandler.Transfer)
	api.POST("/inventory/:id/checkout", inventoryHandler.CheckoutDepartmentItem)
	api.POST("/inventory/main/:id/checkout", inventoryHandler.CheckoutMainItem)

	api.GET("/inventory-requests", requestHandler.List)
	api.POST("/inventory-requests", requestHandler.Create)
	api.PATCH("/inventory-requests/:id/status", requestHandler.UpdateStatus)
	api.DELETE("/inventory-requests/:id", requestHandler.Delete)
	api.GET("/inventory-requests/:id/checkout", requestHandler.IssueCheckoutToken)
	api.POST("/inventory-requests/:id/checkout", requestHandler.CompleteCheckout)

	api.GET("/procurement-requests", procurementHandler.List)
	api.POST("/procurement-requests", procurementHandler.Create)
	api.POST("/procurement-requests/:id/submit", procurementHandler.Submit)
	api.PATCH("/procurement-requests/:id/status", procurementHandler.UpdateStatus)
	api.DELETE("/procurement-requests/:id", procurementHandler.Delete)

	api.GET("/inventory-transactions", transactionHandler.List)
	api.GET("/inventory-transactions/monthly-report", transactionHandler.MonthlyReport)
	api.GET("/inventory-transactions/export/csv", transactionHandler.ExportCSV)
	api.GET("/inventory-transactions/export/xlsx", transactionHandler.ExportXLSX)

	api.GET("/users", userHandler.List)
	api.GET("/users/deleted", userHandler.ListDeleted)
	api.POST("/users/create", userHandler.Create)
	api.PATCH("/users/:id", userHandler.Update)
	api.DELETE("/users/:id", userHandler.Delete)
	api.PATCH("/users/:id/restore", userHandler.Restore)

	api.GET("/departments", departmentHandler.List)
	api.POST("/departments/create", departmentHandler.Create)
	api.PATCH("/departments/assign-head", departmentHandler.AssignHead)
	api.PATCH("/departments/:id", departmentHandler.Update)
	api.DELETE("/departments/:id", departmentHandler.Delete)

	env.engine = engine
	return env
}

// authenticate stands in for the JWT middleware: the caller is named by id
// in a test header
func (e *testEnv) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(testUserHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.JWTUserIDKey, id)
		if u, err := e.users.FindByIDUnscoped(c.Request.Context(), id); err == nil {
			c.Set(middleware.JWTUsernameKey, u.Username)
		}
		c.Next()
	}
}

func (e *testEnv) seedDepartment(t *testing.T, name string) *identity.Department {
	t.Helper()
	d, err := identity.NewDepartment(name)
	require.NoError(t, err)
	require.NoError(t, e.departments.Save(context.Background(), d))
	return d
}

// seedUser stores a user without a password; these users never log in
func (e *testEnv) seedUser(t *testing.T, username string, role identity.Role, departmentID *int64) *identity.User {
	t.Helper()
	u := &identity.User{
		BaseEntity:   shared.NewBaseEntity(),
		Username:     username,
		Role:         role,
		DepartmentID: departmentID,
	}
	require.NoError(t, e.users.Save(context.Background(), u))
	return u
}

// do performs a request as actor; a nil actor is anonymous
func (e *testEnv) do(t *testing.T, actor *identity.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set(testUserHeader, strconv.FormatInt(actor.ID, 10))
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success envelope
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

// errorCode returns the code of an error envelope
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

// addItem creates a warehouse item with one batch through the API
func (e *testEnv) addItem(t *testing.T, name string, quantity int) inventoryapp.ItemResponse {
	t.Helper()
	w := e.do(t, e.admin, http.MethodPost, "/inventory/add", inventoryapp.AddItemRequest{
		ItemName: name,
		Category: "Consumables",
		Unit:     "box",
		Batches:  []inventoryapp.BatchInput{{Quantity: quantity}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[inventoryapp.ItemEnvelope](t, w).Item
}
