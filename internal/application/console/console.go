// Package console sequences every client operation: the authoritative call
// to the backend first, then one atomic store update with what the server
// returned, then a re-fetch of every cached ledger the operation touched.
// Each operation is started as a generation of its store target; a response
// that arrives after the operation was cancelled or superseded is dropped.
package console

import (
	"context"
	"strconv"
	"time"

	identityapp "github.com/hospital-erp/backend/internal/application/identity"
	"github.com/hospital-erp/backend/internal/application/store"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/inventory"
	"github.com/hospital-erp/backend/internal/infrastructure/apiclient"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Console is the client facade over the API and the state store
type Console struct {
	client *apiclient.Client
	store  *store.Store
	logger *zap.Logger
}

// New creates a console. A 401 seen by the client clears the stored session.
func New(client *apiclient.Client, st *store.Store, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{client: client, store: st, logger: logger}
	client.OnSessionExpired(func() {
		if err := st.Dispatch(store.SessionCleared{}); err != nil {
			logger.Error("Failed to clear session", zap.Error(err))
		}
	})
	return c
}

// State returns the current state snapshot
func (c *Console) State() store.State {
	return c.store.Snapshot()
}

// Login authenticates and installs the session
func (c *Console) Login(ctx context.Context, input identityapp.LoginInput) (*store.Session, error) {
	result, err := apiclient.Call[identityapp.LoginResult](ctx, c.client, apiclient.ResourceAuth, apiclient.VerbLogin, nil, input)
	if err != nil {
		return nil, err
	}
	c.client.SetToken(result.Token)
	session := store.Session{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
		Modules:   result.Modules,
	}
	if err := c.store.Dispatch(store.SessionStarted{Session: session}); err != nil {
		return nil, err
	}
	c.logger.Info("Logged in", zap.String("username", result.User.Username), zap.Int("modules", len(result.Modules)))
	return &session, nil
}

// Resume installs a previously issued token and reloads the session for it
func (c *Console) Resume(ctx context.Context, token string) (*store.Session, error) {
	c.client.SetToken(token)
	gen := c.store.Begin(store.TargetSession)
	me, err := apiclient.Call[identityapp.CurrentUserResult](ctx, c.client, apiclient.ResourceAuth, apiclient.VerbMe, nil, nil)
	if err != nil {
		return nil, err
	}
	session := store.Session{Token: token, User: me.User, Modules: me.Modules}
	if _, err := c.store.DispatchIfCurrent(ctx, gen, store.SessionStarted{Session: session}); err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout revokes the token on the server and clears all local state. Local
// state is cleared even when the server call fails.
func (c *Console) Logout(ctx context.Context) error {
	_, err := c.client.Do(ctx, apiclient.ResourceAuth, apiclient.VerbLogout, nil, nil)
	c.client.ClearToken()
	if dispatchErr := c.store.Dispatch(store.SessionCleared{}); dispatchErr != nil {
		return dispatchErr
	}
	return err
}

// requireWrite refuses a mutating operation on a module the session only
// reads, before anything is sent
func (c *Console) requireWrite(key identity.ModuleKey) error {
	session := c.store.Snapshot().Session
	if session == nil {
		return &apiclient.Error{Kind: apiclient.KindAuthorization, Code: "ERR_UNAUTHORIZED", Message: "Not logged in"}
	}
	if !session.CanWrite(key.String()) {
		return &apiclient.Error{
			Kind:    apiclient.KindAuthorization,
			Code:    "ERR_FORBIDDEN",
			Message: "Module " + key.String() + " is read-only for this user",
		}
	}
	return nil
}

// resync re-fetches the cached ledgers among scopes after an operation that
// changed them. Ledgers never loaded stay unloaded.
func (c *Console) resync(ctx context.Context, scopes ...inventory.Scope) {
	for _, scope := range scopes {
		if _, cached := c.store.Snapshot().Ledger(scope); !cached {
			continue
		}
		if _, err := c.FetchLedger(ctx, scope); err != nil {
			c.logger.Warn("Ledger re-fetch failed, cached ledger stays provisional",
				zap.String("scope", scope.String()), zap.Error(err))
		}
	}
}

// ensureConfirmed re-fetches a provisional ledger before a new local
// depletion is stacked on it
func (c *Console) ensureConfirmed(ctx context.Context, scope inventory.Scope) error {
	if !c.store.Snapshot().IsProvisional(scope) {
		return nil
	}
	_, err := c.FetchLedger(ctx, scope)
	return err
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return formatID(*id)
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
