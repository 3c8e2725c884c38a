package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	"github.com/hospital-erp/backend/internal/application/store"
	transactionapp "github.com/hospital-erp/backend/internal/application/transaction"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/infrastructure/apiclient"
)

// ListTransactions loads the transaction ledger and caches the page
func (c *Console) ListTransactions(ctx context.Context, filter transactionapp.ListTransactionsFilter) (*transactionapp.TransactionListResponse, error) {
	gen := c.store.Begin(store.TargetTransactions)
	params := apiclient.Params{}.
		With("type", filter.Type).
		With("kind", filter.Kind).
		With("departmentId", formatOptionalID(filter.DepartmentID)).
		With("search", filter.Search).
		With("from", formatDate(filter.From)).
		With("to", formatDate(filter.To)).
		With("page", formatInt(filter.Page)).
		With("limit", formatInt(filter.Limit))

	resp, err := apiclient.Call[transactionapp.TransactionListResponse](ctx, c.client,
		apiclient.ResourceTransactions, apiclient.VerbList, params, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.TransactionsFetched{Transactions: resp.Transactions}); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MonthlyReport loads the usage report of one month
func (c *Console) MonthlyReport(ctx context.Context, query transactionapp.MonthlyReportQuery) (*transactionapp.MonthlyReportResponse, error) {
	params := apiclient.Params{}.
		With("month", formatInt(query.Month)).
		With("year", formatInt(query.Year))
	return callPtr[transactionapp.MonthlyReportResponse](ctx, c,
		apiclient.ResourceTransactions, apiclient.VerbMonthlyReport, params, nil)
}

// ExportCSV exports the filtered ledger. The server either streams the file
// or answers with a download link to object storage.
func (c *Console) ExportCSV(ctx context.Context, filter transactionapp.ExportFilter) (*transactionapp.ExportResult, error) {
	params := apiclient.Params{}.
		With("type", filter.Type).
		With("kind", filter.Kind).
		With("departmentId", formatOptionalID(filter.DepartmentID)).
		With("from", formatDate(filter.From)).
		With("to", formatDate(filter.To)).
		With("month", formatInt(filter.Month)).
		With("year", formatInt(filter.Year))
	return c.export(ctx, apiclient.VerbExportCSV, params)
}

// ExportXLSX exports the monthly report as a workbook
func (c *Console) ExportXLSX(ctx context.Context, query transactionapp.MonthlyReportQuery) (*transactionapp.ExportResult, error) {
	params := apiclient.Params{}.
		With("month", formatInt(query.Month)).
		With("year", formatInt(query.Year))
	return c.export(ctx, apiclient.VerbExportXLSX, params)
}

func (c *Console) export(ctx context.Context, verb apiclient.Verb, params apiclient.Params) (*transactionapp.ExportResult, error) {
	raw, err := c.client.Do(ctx, apiclient.ResourceTransactions, verb, params, nil)
	if err != nil {
		return nil, err
	}
	if !raw.IsJSON() {
		return &transactionapp.ExportResult{
			FileName:    raw.FileName,
			ContentType: raw.ContentType,
			Data:        raw.Body,
		}, nil
	}

	var env struct {
		Data transactionapp.ExportResult `json:"data"`
	}
	if err := json.Unmarshal(raw.Body, &env); err != nil {
		return nil, fmt.Errorf("decoding export link: %w", err)
	}
	return &env.Data, nil
}

// ListUsers loads active users, or soft-deleted ones when deleted is set
func (c *Console) ListUsers(ctx context.Context, deleted bool) ([]identityapp.UserResponse, error) {
	verb := apiclient.VerbList
	if deleted {
		verb = apiclient.VerbListDeleted
	}
	gen := c.store.Begin(store.TargetUsers)
	resp, err := apiclient.Call[identityapp.UserListResponse](ctx, c.client, apiclient.ResourceUsers, verb, nil, nil)
	if err != nil {
		return nil, err
	}
	if !deleted {
		if _, err := c.store.DispatchIfCurrent(ctx, gen, store.UsersFetched{Users: resp.Users}); err != nil {
			return nil, err
		}
	}
	return resp.Users, nil
}

// CreateUser creates an account
func (c *Console) CreateUser(ctx context.Context, input identityapp.CreateUserInput) (*identityapp.UserResponse, error) {
	return c.mutateUser(ctx, apiclient.VerbCreate, nil, input)
}

// UpdateUser changes an account
func (c *Console) UpdateUser(ctx context.Context, id int64, input identityapp.UpdateUserInput) (*identityapp.UserResponse, error) {
	return c.mutateUser(ctx, apiclient.VerbUpdate, apiclient.ID(id), input)
}

// RestoreUser brings back a soft-deleted account
func (c *Console) RestoreUser(ctx context.Context, id int64) (*identityapp.UserResponse, error) {
	return c.mutateUser(ctx, apiclient.VerbRestore, apiclient.ID(id), nil)
}

// DeleteUser soft-deletes an account
func (c *Console) DeleteUser(ctx context.Context, id int64) error {
	if err := c.requireWrite(identity.ModuleUserManagement); err != nil {
		return err
	}
	gen := c.store.Begin(store.TargetUsers)
	if _, err := c.client.Do(ctx, apiclient.ResourceUsers, apiclient.VerbDelete, apiclient.ID(id), nil); err != nil {
		return err
	}
	_, err := c.store.DispatchIfCurrent(ctx, gen, store.UserRemoved{ID: id})
	return err
}

func (c *Console) mutateUser(ctx context.Context, verb apiclient.Verb, params apiclient.Params, body any) (*identityapp.UserResponse, error) {
	if err := c.requireWrite(identity.ModuleUserManagement); err != nil {
		return nil, err
	}
	gen := c.store.Begin(store.TargetUsers)
	resp, err := apiclient.Call[identityapp.UserEnvelope](ctx, c.client, apiclient.ResourceUsers, verb, params, body)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.UserUpserted{User: resp.User}); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListDepartments loads the department registry
func (c *Console) ListDepartments(ctx context.Context) ([]identityapp.DepartmentResponse, error) {
	gen := c.store.Begin(store.TargetDepartments)
	resp, err := apiclient.Call[identityapp.DepartmentListResponse](ctx, c.client,
		apiclient.ResourceDepartments, apiclient.VerbList, nil, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.DepartmentsFetched{Departments: resp.Departments}); err != nil {
		return nil, err
	}
	return resp.Departments, nil
}

// CreateDepartment adds a department
func (c *Console) CreateDepartment(ctx context.Context, input identityapp.CreateDepartmentInput) (*identityapp.DepartmentResponse, error) {
	return c.mutateDepartment(ctx, apiclient.VerbCreate, nil, input)
}

// RenameDepartment changes a department's name
func (c *Console) RenameDepartment(ctx context.Context, id int64, input identityapp.UpdateDepartmentInput) (*identityapp.DepartmentResponse, error) {
	return c.mutateDepartment(ctx, apiclient.VerbUpdate, apiclient.ID(id), input)
}

// AssignHead sets or clears the head of a department
func (c *Console) AssignHead(ctx context.Context, input identityapp.AssignHeadInput) (*identityapp.DepartmentResponse, error) {
	return c.mutateDepartment(ctx, apiclient.VerbAssignHead, nil, input)
}

// DeleteDepartment removes a department
func (c *Console) DeleteDepartment(ctx context.Context, id int64) error {
	if err := c.requireWrite(identity.ModuleDepartments); err != nil {
		return err
	}
	gen := c.store.Begin(store.TargetDepartments)
	if _, err := c.client.Do(ctx, apiclient.ResourceDepartments, apiclient.VerbDelete, apiclient.ID(id), nil); err != nil {
		return err
	}
	_, err := c.store.DispatchIfCurrent(ctx, gen, store.DepartmentRemoved{ID: id})
	return err
}

func (c *Console) mutateDepartment(ctx context.Context, verb apiclient.Verb, params apiclient.Params, body any) (*identityapp.DepartmentResponse, error) {
	if err := c.requireWrite(identity.ModuleDepartments); err != nil {
		return nil, err
	}
	gen := c.store.Begin(store.TargetDepartments)
	resp, err := apiclient.Call[identityapp.DepartmentEnvelope](ctx, c.client, apiclient.ResourceDepartments, verb, params, body)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.DepartmentUpserted{Department: resp.Department}); err != nil {
		return nil, err
	}
	return &resp.Department, nil
}

// DepartmentName returns the cached name of a department, or its id
func (c *Console) DepartmentName(id int64) string {
	for _, d := range c.store.Snapshot().Departments {
		if d.ID == id {
			return d.Name
		}
	}
	return strconv.FormatInt(id, 10)
}
