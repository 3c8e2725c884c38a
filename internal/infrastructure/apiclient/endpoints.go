package apiclient

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Resource is one REST resource of the backend
type Resource string

const (
	ResourceAuth                Resource = "auth"
	ResourceInventory           Resource = "inventory"
	ResourceRequests            Resource = "inventory-requests"
	ResourcePurchaseRequests    Resource = "procurement-requests"
	ResourceTransactions        Resource = "inventory-transactions"
	ResourceUsers               Resource = "users"
	ResourceDepartments         Resource = "departments"
	ResourceHealth              Resource = "health"
	ResourceCheckout            Resource = "checkout"
	ResourceDepartmentInventory Resource = "department-inventory"
)

// Verb is an operation on a resource
type Verb string

const (
	VerbList          Verb = "list"
	VerbListDeleted   Verb = "list-deleted"
	VerbGet           Verb = "get"
	VerbCreate        Verb = "create"
	VerbUpdate        Verb = "update"
	VerbDelete        Verb = "delete"
	VerbRestore       Verb = "restore"
	VerbUpdateStatus  Verb = "update-status"
	VerbSubmit        Verb = "submit"
	VerbRestock       Verb = "restock"
	VerbTransfer      Verb = "transfer"
	VerbCheckout      Verb = "checkout"
	VerbCheckoutMain  Verb = "checkout-main"
	VerbIssueToken    Verb = "issue-token"
	VerbComplete      Verb = "complete"
	VerbMonthlyReport Verb = "monthly-report"
	VerbExportCSV     Verb = "export-csv"
	VerbExportXLSX    Verb = "export-xlsx"
	VerbAssignHead    Verb = "assign-head"
	VerbLogin         Verb = "login"
	VerbLogout        Verb = "logout"
	VerbMe            Verb = "me"
)

// Endpoint is the HTTP shape of one resource verb. Path segments written as
// {name} are filled from the call's params; params left over go to the
// query string.
type Endpoint struct {
	Method string
	Path   string
}

type endpointKey struct {
	resource Resource
	verb     Verb
}

var endpoints = map[endpointKey]Endpoint{
	{ResourceAuth, VerbLogin}:  {http.MethodPost, "/auth/login"},
	{ResourceAuth, VerbLogout}: {http.MethodPost, "/auth/logout"},
	{ResourceAuth, VerbMe}:     {http.MethodGet, "/auth/me"},

	{ResourceInventory, VerbList}:                {http.MethodGet, "/inventory/main"},
	{ResourceDepartmentInventory, VerbList}:      {http.MethodGet, "/inventory/department"},
	{ResourceInventory, VerbCreate}:              {http.MethodPost, "/inventory/add"},
	{ResourceInventory, VerbRestock}:             {http.MethodPost, "/inventory/restock/{id}"},
	{ResourceInventory, VerbTransfer}:            {http.MethodPost, "/inventory/transfer"},
	{ResourceDepartmentInventory, VerbCheckout}:  {http.MethodPost, "/inventory/{id}/checkout"},
	{ResourceInventory, VerbCheckoutMain}:        {http.MethodPost, "/inventory/main/{id}/checkout"},
	{ResourceRequests, VerbList}:                 {http.MethodGet, "/inventory-requests"},
	{ResourceRequests, VerbCreate}:               {http.MethodPost, "/inventory-requests"},
	{ResourceRequests, VerbUpdateStatus}:         {http.MethodPatch, "/inventory-requests/{id}/status"},
	{ResourceRequests, VerbDelete}:               {http.MethodDelete, "/inventory-requests/{id}"},
	{ResourceCheckout, VerbIssueToken}:           {http.MethodGet, "/inventory-requests/{id}/checkout"},
	{ResourceCheckout, VerbComplete}:             {http.MethodPost, "/inventory-requests/{id}/checkout"},
	{ResourcePurchaseRequests, VerbList}:         {http.MethodGet, "/procurement-requests"},
	{ResourcePurchaseRequests, VerbCreate}:       {http.MethodPost, "/procurement-requests"},
	{ResourcePurchaseRequests, VerbSubmit}:       {http.MethodPost, "/procurement-requests/{id}/submit"},
	{ResourcePurchaseRequests, VerbUpdateStatus}: {http.MethodPatch, "/procurement-requests/{id}/status"},
	{ResourcePurchaseRequests, VerbDelete}:       {http.MethodDelete, "/procurement-requests/{id}"},
	{ResourceTransactions, VerbList}:             {http.MethodGet, "/inventory-transactions"},
	{ResourceTransactions, VerbMonthlyReport}:    {http.MethodGet, "/inventory-transactions/monthly-report"},
	{ResourceTransactions, VerbExportCSV}:        {http.MethodGet, "/inventory-transactions/export/csv"},
	{ResourceTransactions, VerbExportXLSX}:       {http.MethodGet, "/inventory-transactions/export/xlsx"},
	{ResourceUsers, VerbList}:                    {http.MethodGet, "/users"},
	{ResourceUsers, VerbListDeleted}:             {http.MethodGet, "/users/deleted"},
	{ResourceUsers, VerbCreate}:                  {http.MethodPost, "/users/create"},
	{ResourceUsers, VerbUpdate}:                  {http.MethodPatch, "/users/{id}"},
	{ResourceUsers, VerbDelete}:                  {http.MethodDelete, "/users/{id}"},
	{ResourceUsers, VerbRestore}:                 {http.MethodPatch, "/users/{id}/restore"},
	{ResourceDepartments, VerbList}:              {http.MethodGet, "/departments"},
	{ResourceDepartments, VerbCreate}:            {http.MethodPost, "/departments/create"},
	{ResourceDepartments, VerbAssignHead}:        {http.MethodPatch, "/departments/assign-head"},
	{ResourceDepartments, VerbUpdate}:            {http.MethodPatch, "/departments/{id}"},
	{ResourceDepartments, VerbDelete}:            {http.MethodDelete, "/departments/{id}"},
	{ResourceHealth, VerbGet}:                    {http.MethodGet, "/health"},
}

// Lookup returns the endpoint of a resource verb
func Lookup(resource Resource, verb Verb) (Endpoint, bool) {
	ep, ok := endpoints[endpointKey{resource, verb}]
	return ep, ok
}

// Endpoints returns every known endpoint ordered by path and method
func Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Params are the path and query values of one call
type Params map[string]string

// ID returns params naming a single entity
func ID(id int64) Params {
	return Params{"id": strconv.FormatInt(id, 10)}
}

// With returns a copy of p with key set. Empty values are skipped.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	if value != "" {
		out[key] = value
	}
	return out
}

// expand fills the path template and returns the path and the params that
// were not used by it
func (e Endpoint) expand(params Params) (string, url.Values, error) {
	used := make(map[string]bool)
	var b strings.Builder
	path := e.Path
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			b.WriteString(path)
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return "", nil, fmt.Errorf("apiclient: malformed path %q", e.Path)
		}
		name := path[open+1 : open+end]
		value, ok := params[name]
		if !ok || value == "" {
			return "", nil, fmt.Errorf("apiclient: missing path parameter %q for %s", name, e.Path)
		}
		b.WriteString(path[:open])
		b.WriteString(url.PathEscape(value))
		used[name] = true
		path = path[open+end+1:]
	}

	query := url.Values{}
	for k, v := range params {
		if !used[k] && v != "" {
			query.Set(k, v)
		}
	}
	return b.String(), query, nil
}
