package transaction

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTransactionRepository is a mock implementation of inventory.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *inventory.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id int64) (*inventory.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter inventory.TransactionFilter) ([]inventory.Transaction, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventory.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ListInRange(ctx context.Context, r shared.DateRange) ([]inventory.Transaction, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Transaction), args.Error(1)
}

func dept(id int64) *int64 {
	return &id
}

func txAt(id int64, typ inventory.TransactionType, inventoryID int64, deptID *int64, qty int, at time.Time) inventory.Transaction {
	return inventory.Transaction{
		ID:           id,
		ItemName:     "Gauze",
		InventoryID:  inventoryID,
		DepartmentID: deptID,
		Type:         typ,
		Quantity:     qty,
		PerformedBy:  "alice",
		Verification: inventory.VerificationSession,
		CreatedAt:    at,
	}
}

func newService(repo *MockTransactionRepository) *TransactionService {
	svc := NewTransactionService(repo, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestTransactionService_List(t *testing.T) {
	t.Run("kind expands to its types", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		ctx := context.Background()
		repo.On("List", ctx, mock.MatchedBy(func(f inventory.TransactionFilter) bool {
			return len(f.Types) == 2 &&
				f.Types[0] == inventory.TransactionTypeUsage &&
				f.Types[1] == inventory.TransactionTypeCheckout &&
				f.Page == 1 && f.PageSize == 20
		})).Return([]inventory.Transaction{}, int64(41), nil)

		resp, err := svc.List(ctx, ListTransactionsFilter{Kind: "checkout"})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.TotalPages)
		assert.Equal(t, 1, resp.CurrentPage)
	})

	t.Run("type wins over kind", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		ctx := context.Background()
		repo.On("List", ctx, mock.MatchedBy(func(f inventory.TransactionFilter) bool {
			return len(f.Types) == 1 && f.Types[0] == inventory.TransactionTypeTransfer
		})).Return([]inventory.Transaction{}, int64(0), nil)

		_, err := svc.List(ctx, ListTransactionsFilter{Type: "Transfer", Kind: "checkout"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("end date is inclusive", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		ctx := context.Background()
		to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
		repo.On("List", ctx, mock.MatchedBy(func(f inventory.TransactionFilter) bool {
			return f.Range.To != nil && f.Range.To.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
		})).Return([]inventory.Transaction{}, int64(0), nil)

		_, err := svc.List(ctx, ListTransactionsFilter{To: &to})

		require.NoError(t, err)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		svc := newService(new(MockTransactionRepository))

		_, err := svc.List(context.Background(), ListTransactionsFilter{Kind: "sideways"})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestTransactionService_MonthlyReport(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	txs := []inventory.Transaction{
		txAt(1, inventory.TransactionTypeRestocking, 10, nil, 50, march.Add(time.Hour)),
		txAt(2, inventory.TransactionTypeUsage, 20, dept(3), 4, march.Add(48*time.Hour)),
		txAt(3, inventory.TransactionTypeCheckout, 20, dept(3), 6, march.Add(72*time.Hour)),
		txAt(4, inventory.TransactionTypeCheckout, 21, dept(4), 2, march.Add(96*time.Hour)),
	}

	t.Run("defaults to the current month", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		ctx := context.Background()
		repo.On("ListInRange", ctx, mock.MatchedBy(func(r shared.DateRange) bool {
			return r.From.Equal(march) && r.To.Equal(april)
		})).Return(txs, nil)

		resp, err := svc.MonthlyReport(ctx, MonthlyReportQuery{})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Month)
		assert.Equal(t, 2024, resp.Year)
		assert.Equal(t, 4, resp.TotalTransactions)
		assert.Equal(t, 10, resp.TopUsedItems[20])
		assert.Equal(t, 2, resp.TopUsedItems[21])
		require.Len(t, resp.TopUsage, 2)
		assert.Equal(t, int64(20), resp.TopUsage[0].InventoryID)
	})

	t.Run("department caller sees only its department", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		ctx := datascope.WithScope(context.Background(), datascope.Scope{DepartmentID: dept(4)})
		repo.On("ListInRange", ctx, mock.Anything).Return(txs, nil)

		resp, err := svc.MonthlyReport(ctx, MonthlyReportQuery{Month: 3, Year: 2024})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.TotalTransactions)
		assert.Equal(t, map[int64]int{21: 2}, resp.TopUsedItems)
	})

	t.Run("invalid month is rejected", func(t *testing.T) {
		svc := newService(new(MockTransactionRepository))

		_, err := svc.MonthlyReport(context.Background(), MonthlyReportQuery{Month: 13, Year: 2024})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestTransactionService_Export(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []inventory.Transaction{
		txAt(1, inventory.TransactionTypeRestocking, 10, nil, 50, march.Add(time.Hour)),
		txAt(2, inventory.TransactionTypeUsage, 20, dept(3), 4, march.Add(48*time.Hour)),
	}

	t.Run("csv is returned inline without storage", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		repo.On("ListInRange", mock.Anything, mock.Anything).Return(txs, nil)

		result, err := svc.ExportCSV(context.Background(), ExportFilter{Kind: "checkout"})

		require.NoError(t, err)
		assert.Empty(t, result.URL)
		lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "Usage")
		assert.True(t, strings.HasSuffix(result.FileName, ".csv"))
	})

	t.Run("csv is uploaded and linked with storage", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		store := storage.NewMemoryObjectStorage("http://files.local")
		svc.SetObjectStorage(store)
		repo.On("ListInRange", mock.Anything, mock.Anything).Return(txs, nil)

		result, err := svc.ExportCSV(context.Background(), ExportFilter{})

		require.NoError(t, err)
		assert.Nil(t, result.Data)
		assert.True(t, strings.HasPrefix(result.URL, "http://files.local/exports/transactions-"))
		obj, ok := store.Get("exports/" + result.FileName)
		require.True(t, ok)
		assert.Equal(t, "text/csv", obj.ContentType)
	})

	t.Run("monthly workbook", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		svc := newService(repo)
		repo.On("ListInRange", mock.Anything, mock.Anything).Return(txs, nil)

		result, err := svc.ExportMonthlyXLSX(context.Background(), MonthlyReportQuery{Month: 3, Year: 2024})

		require.NoError(t, err)
		assert.Equal(t, "monthly-report-2024-03.xlsx", result.FileName)
		assert.NotEmpty(t, result.Data)
	})
}
