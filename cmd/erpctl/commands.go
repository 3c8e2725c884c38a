package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	checkoutapp "github.com/hospital-erp/backend/internal/application/checkout"
	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
	transactionapp "github.com/hospital-erp/backend/internal/application/transaction"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// command is one erpctl subcommand. Commands with session set run after
// the stored token is resumed.
type command struct {
	session bool
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {run: runLogin},
	"logout":   {session: true, run: runLogout},
	"modules":  {session: true, run: runModules},
	"ledger":   {session: true, run: runLedger},
	"restock":  {session: true, run: runRestock},
	"request":  {session: true, run: runRequest},
	"checkout": {session: true, run: runCheckout},
	"report":   {session: true, run: runReport},
	"export":   {session: true, run: runExport},
}

// errUsage reports a malformed command line
var errUsage = errors.New("invalid arguments, run erpctl -h for usage")

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// subcommand splits "<verb> [flags]" arguments
func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", os.Getenv("ERP_PASSWORD"), "password (default $ERP_PASSWORD)")
	if err := fs.Parse(args); err != nil || *username == "" || *password == "" {
		return errUsage
	}

	session, err := a.console.Login(ctx, identityapp.LoginInput{Username: *username, Password: *password})
	if err != nil {
		return err
	}
	if err := a.saveToken(session.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return a.print(map[string]any{
		"user":      session.User,
		"expiresAt": session.ExpiresAt,
	})
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	err := a.console.Logout(ctx)
	if removeErr := os.Remove(a.tokenFile); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		a.log.Warn("Failed to remove token file", zap.String("path", a.tokenFile), zap.Error(removeErr))
	}
	return err
}

func runModules(_ context.Context, a *app, _ []string) error {
	session := a.console.State().Session
	if session == nil {
		return errors.New("no session")
	}
	return a.print(session.Modules)
}

func runLedger(ctx context.Context, a *app, args []string) error {
	which, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	fs := newFlagSet("ledger")
	dept := fs.Int64("dept", 0, "department id (default: your department)")
	search := fs.String("search", "", "item name filter")
	if err := fs.Parse(rest); err != nil {
		return errUsage
	}

	var scope inventory.Scope
	switch which {
	case "main":
		scope = inventory.MainScope()
	case "department":
		id := *dept
		if id == 0 {
			if s := a.console.State().Session; s != nil && s.User.DepartmentID != nil {
				id = *s.User.DepartmentID
			}
		}
		if id == 0 {
			return errors.New("no department: pass -dept")
		}
		scope = inventory.DepartmentScope(id)
	default:
		return errUsage
	}

	if *search != "" {
		items, err := a.console.SearchLedger(ctx, scope, *search)
		if err != nil {
			return err
		}
		return a.print(items)
	}
	view, err := a.console.FetchLedger(ctx, scope)
	if err != nil {
		return err
	}
	return a.print(view.Items)
}

func runRestock(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("restock")
	item := fs.Int64("item", 0, "warehouse item id")
	qty := fs.Int("qty", 0, "batch quantity")
	expiry := fs.String("expiry", "", "batch expiry date (YYYY-MM-DD)")
	supplier := fs.String("supplier", "", "supplier name")
	if err := fs.Parse(args); err != nil || *item <= 0 || *qty <= 0 {
		return errUsage
	}
	expiryDate, err := parseDate(*expiry)
	if err != nil {
		return err
	}

	resp, err := a.console.Restock(ctx, *item, inventoryapp.RestockRequest{
		Batches: []inventoryapp.BatchInput{{Quantity: *qty, ExpiryDate: expiryDate, Supplier: *supplier}},
	})
	if err != nil {
		return err
	}
	return a.print(resp)
}

func runRequest(ctx context.Context, a *app, args []string) error {
	verb, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	fs := newFlagSet("request")

	switch verb {
	case "list":
		status := fs.String("status", "", "status filter")
		search := fs.String("search", "", "item name filter")
		page := fs.Int("page", 1, "page")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		resp, err := a.console.ListRequests(ctx, requestapp.ListRequestsFilter{Status: *status, Search: *search, Page: *page})
		if err != nil {
			return err
		}
		return a.print(resp)

	case "create":
		item := fs.String("item", "", "item name")
		qty := fs.Int("qty", 0, "quantity")
		dept := fs.Int64("dept", 0, "department id (default: your department)")
		if err := fs.Parse(rest); err != nil || *item == "" || *qty <= 0 {
			return errUsage
		}
		resp, err := a.console.CreateRequest(ctx, requestapp.CreateRequestInput{ItemName: *item, Quantity: *qty, DepartmentID: *dept})
		if err != nil {
			return err
		}
		return a.print(resp)

	case "status":
		id := fs.Int64("id", 0, "request id")
		to := fs.String("to", "", "Approved, Rejected, Restocking or Procurement")
		notes := fs.String("notes", "", "notes")
		if err := fs.Parse(rest); err != nil || *id <= 0 || *to == "" {
			return errUsage
		}
		if err := a.loadRequest(ctx, *id); err != nil {
			return err
		}
		resp, err := a.console.UpdateRequestStatus(ctx, *id, requestapp.UpdateStatusInput{Status: *to, Notes: *notes})
		if err != nil {
			return err
		}
		return a.print(resp)
	}
	return errUsage
}

func runCheckout(ctx context.Context, a *app, args []string) error {
	verb, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	fs := newFlagSet("checkout")
	id := fs.Int64("id", 0, "request id")

	switch verb {
	case "token":
		if err := fs.Parse(rest); err != nil || *id <= 0 {
			return errUsage
		}
		resp, err := a.console.IssueCheckoutToken(ctx, *id)
		if err != nil {
			return err
		}
		return a.print(resp)

	case "complete":
		token := fs.String("token", "", "checkout token")
		user := fs.String("user", "", "name of the person taking the stock")
		if err := fs.Parse(rest); err != nil || *id <= 0 || (*token == "") == (*user == "") {
			return errUsage
		}
		if err := a.loadRequest(ctx, *id); err != nil {
			return err
		}
		resp, err := a.console.CompleteCheckout(ctx, *id, checkoutapp.CompleteInput{Token: *token, CheckoutUser: *user})
		if err != nil {
			return err
		}
		return a.print(resp)
	}
	return errUsage
}

// loadRequest caches the open requests so a workflow step can check the
// current status of id before it is sent
func (a *app) loadRequest(ctx context.Context, id int64) error {
	for page := 1; ; page++ {
		resp, err := a.console.ListRequests(ctx, requestapp.ListRequestsFilter{Page: page, Limit: 200})
		if err != nil {
			return err
		}
		if _, ok := a.console.State().Request(id); ok {
			return nil
		}
		if page >= resp.TotalPages {
			return fmt.Errorf("request %d not found", id)
		}
	}
}

func runReport(ctx context.Context, a *app, args []string) error {
	verb, rest, err := subcommand(args)
	if err != nil || verb != "monthly" {
		return errUsage
	}
	query, err := parseMonth("report", rest)
	if err != nil {
		return err
	}
	resp, err := a.console.MonthlyReport(ctx, query)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func runExport(ctx context.Context, a *app, args []string) error {
	verb, rest, err := subcommand(args)
	if err != nil {
		return err
	}

	var (
		result *transactionapp.ExportResult
		output string
	)
	switch verb {
	case "csv":
		fs := newFlagSet("export csv")
		kind := fs.String("kind", "", "checkin or checkout")
		txType := fs.String("type", "", "transaction type")
		from := fs.String("from", "", "first day (YYYY-MM-DD)")
		to := fs.String("to", "", "last day (YYYY-MM-DD)")
		fs.StringVar(&output, "o", "", "output file (default: server file name)")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		filter := transactionapp.ExportFilter{Kind: *kind, Type: *txType}
		if filter.From, err = parseDate(*from); err != nil {
			return err
		}
		if filter.To, err = parseDate(*to); err != nil {
			return err
		}
		result, err = a.console.ExportCSV(ctx, filter)
	case "xlsx":
		var query transactionapp.MonthlyReportQuery
		query, output, err = parseMonthWithOutput(rest)
		if err != nil {
			return err
		}
		result, err = a.console.ExportXLSX(ctx, query)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}

	if result.URL != "" {
		return a.print(result)
	}
	if output == "" {
		output = result.FileName
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return a.print(map[string]any{"file": output, "bytes": len(result.Data)})
}

func parseMonth(name string, args []string) (transactionapp.MonthlyReportQuery, error) {
	fs := newFlagSet(name)
	month := fs.Int("month", 0, "month (default: current)")
	year := fs.Int("year", 0, "year (default: current)")
	if err := fs.Parse(args); err != nil {
		return transactionapp.MonthlyReportQuery{}, errUsage
	}
	return transactionapp.MonthlyReportQuery{Month: *month, Year: *year}, nil
}

func parseMonthWithOutput(args []string) (transactionapp.MonthlyReportQuery, string, error) {
	fs := newFlagSet("export xlsx")
	month := fs.Int("month", 0, "month (default: current)")
	year := fs.Int("year", 0, "year (default: current)")
	output := fs.String("o", "", "output file (default: server file name)")
	if err := fs.Parse(args); err != nil {
		return transactionapp.MonthlyReportQuery{}, "", errUsage
	}
	return transactionapp.MonthlyReportQuery{Month: *month, Year: *year}, *output, nil
}

// parseDate parses an optional YYYY-MM-DD flag value
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}
