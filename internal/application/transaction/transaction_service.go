package transaction

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/export"
	"github.com/hospital-erp/backend/internal/infrastructure/persistence/datascope"
	"github.com/hospital-erp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultDownloadExpiry is the lifetime of a presigned export link
const DefaultDownloadExpiry = 15 * time.Minute

// ObjectStorage stores generated exports
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// TransactionService serves the transaction history, the monthly report and
// their exports
type TransactionService struct {
	txRepo  inventory.TransactionRepository
	storage ObjectStorage
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewTransactionService creates a new TransactionService. Reports are cut at
// month boundaries of loc.
func NewTransactionService(txRepo inventory.TransactionRepository, loc *time.Location, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &TransactionService{
		txRepo: txRepo,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// SetObjectStorage enables upload of exports. Without storage exports are
// returned inline.
func (s *TransactionService) SetObjectStorage(storage ObjectStorage) {
	s.storage = storage
}

// List returns one page of the transaction history visible to the caller
func (s *TransactionService) List(ctx context.Context, filter ListTransactionsFilter) (*TransactionListResponse, error) {
	types, err := typesOf(filter.Type, filter.Kind)
	if err != nil {
		return nil, err
	}
	page := shared.DefaultFilter()
	if filter.Page > 0 {
		page.Page = filter.Page
	}
	if filter.Limit > 0 {
		page.PageSize = filter.Limit
	}
	page.Search = filter.Search

	repoFilter := inventory.TransactionFilter{
		Filter:       page,
		Types:        types,
		DepartmentID: filter.DepartmentID,
		Range:        s.inclusiveRange(filter.From, filter.To),
	}
	rows, total, err := s.txRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return &TransactionListResponse{
		Transactions: inventoryapp.ToTransactionResponses(rows),
		Total:        total,
		TotalPages:   shared.NewPaginated(rows, total, page.Page, page.PageSize).TotalPages,
		CurrentPage:  page.Page,
	}, nil
}

// MonthlyReport aggregates one calendar month of transactions
func (s *TransactionService) MonthlyReport(ctx context.Context, query MonthlyReportQuery) (*MonthlyReportResponse, error) {
	report, err := s.buildReport(ctx, query.Year, query.Month)
	if err != nil {
		return nil, err
	}
	return ToMonthlyReportResponse(report), nil
}

// ExportCSV renders the selected transactions as CSV
func (s *TransactionService) ExportCSV(ctx context.Context, filter ExportFilter) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "TransactionService", "ExportCSV")
	defer span.End()

	types, err := typesOf(filter.Type, filter.Kind)
	if err != nil {
		return nil, err
	}
	txs, err := s.txRepo.ListInRange(ctx, s.inclusiveRange(filter.From, filter.To))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	txs = selectTransactions(datascope.FromContext(ctx), txs, types, filter.DepartmentID)

	data, err := export.TransactionsCSV(txs, s.loc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	name := fmt.Sprintf("transactions-%s.csv", s.now().In(s.loc).Format("20060102-150405"))
	return s.publish(ctx, name, export.CSVContentType, data)
}

// ExportMonthlyXLSX renders the monthly report as a workbook
func (s *TransactionService) ExportMonthlyXLSX(ctx context.Context, query MonthlyReportQuery) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "TransactionService", "ExportMonthlyXLSX")
	defer span.End()

	report, err := s.buildReport(ctx, query.Year, query.Month)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	data, err := export.MonthlyReportXLSX(report, s.loc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	name := fmt.Sprintf("monthly-report-%04d-%02d.xlsx", report.Year, int(report.Month))
	return s.publish(ctx, name, export.XLSXContentType, data)
}

func (s *TransactionService) buildReport(ctx context.Context, year, month int) (*inventory.MonthlyReport, error) {
	now := s.now().In(s.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	window, err := inventory.MonthWindow(year, time.Month(month), s.loc)
	if err != nil {
		return nil, err
	}
	txs, err := s.txRepo.ListInRange(ctx, window)
	if err != nil {
		return nil, err
	}
	txs = selectTransactions(datascope.FromContext(ctx), txs, nil, nil)
	return inventory.BuildMonthlyReport(year, time.Month(month), s.loc, txs)
}

// publish uploads an export when storage is configured
func (s *TransactionService) publish(ctx context.Context, name, contentType string, data []byte) (*ExportResult, error) {
	result := &ExportResult{FileName: name, ContentType: contentType}
	if s.storage == nil {
		result.Data = data
		return result, nil
	}

	key := "exports/" + name
	if err := s.storage.Upload(ctx, key, data, contentType); err != nil {
		s.logger.Error("Failed to upload export", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, DefaultDownloadExpiry)
	if err != nil {
		return nil, err
	}
	result.URL = url
	result.ExpiresAt = expiresAt

	s.logger.Info("Export uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return result, nil
}

// inclusiveRange turns calendar dates into a half-open range in the report zone
func (s *TransactionService) inclusiveRange(from, to *time.Time) shared.DateRange {
	var r shared.DateRange
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.loc)
		r.From = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
		r.To = &t
	}
	return r
}

// typesOf resolves the type and kind query values. A type wins over a kind.
func typesOf(typ, kind string) ([]inventory.TransactionType, error) {
	if typ != "" {
		t, err := inventory.ParseTransactionType(typ)
		if err != nil {
			return nil, err
		}
		return []inventory.TransactionType{t}, nil
	}
	if kind == "" {
		return nil, nil
	}
	types := inventory.TransactionKind(kind).Types()
	if types == nil {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Unknown transaction kind %q", kind)
	}
	return types, nil
}

// selectTransactions applies the caller's data scope and the export filters
// to an unscoped range listing
func selectTransactions(scope datascope.Scope, txs []inventory.Transaction, types []inventory.TransactionType, departmentID *int64) []inventory.Transaction {
	out := make([]inventory.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !scope.All && (tx.DepartmentID == nil || !scope.Allows(*tx.DepartmentID)) {
			continue
		}
		if departmentID != nil && (tx.DepartmentID == nil || *tx.DepartmentID != *departmentID) {
			continue
		}
		if len(types) > 0 && !containsType(types, tx.Type) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func containsType(types []inventory.TransactionType, t inventory.TransactionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
