// internal/domain/cart/engine.go
package cart

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/identity"
)

// Engine owns the basket of one storefront session. It presents the
// same API in both modes: while anonymous every mutation applies to
// an in-memory collection mirrored to the durable local store, once
// an identity appears every mutation is written through to the
// remote store and local state becomes the result of the last
// successful remote read.
//
// The anonymous cart is migrated to the remote cart exactly once per
// sign-in; see signIn for the merge contract.
type Engine struct {
	cfg      *config.Config
	provider identity.Provider
	local    LocalStore
	remote   RemoteStore
	catalog  Catalog
	log      *logrus.Logger

	mu      sync.Mutex
	mode    Mode
	lines   []Line
	loading bool
	syncing bool

	unsubscribe func()
	closeOnce   sync.Once
}

// NewEngine wires an engine to its collaborators and subscribes it to
// identity changes. The caller should Refresh once to perform the
// initial load, and must Close the engine when the session ends.
func NewEngine(cfg *config.Config, provider identity.Provider, local LocalStore, remote RemoteStore, catalog Catalog, log *logrus.Logger) *Engine {
	e := &Engine{
		cfg:      cfg,
		provider: provider,
		local:    local,
		remote:   remote,
		catalog:  catalog,
		log:      log,
		mode:     ModeAnonymous,
	}
	if provider.Current() != nil {
		e.mode = ModeAuthenticated
	}
	e.unsubscribe = provider.Subscribe(e.onIdentityChange)
	return e
}

// Close detaches the engine from the identity provider.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
	})
}

// Mode returns the current cart mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Lines returns a copy of the current cart lines in display order.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// Count returns the total quantity across all lines.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, line := range e.lines {
		total += line.Quantity
	}
	return total
}

// IsLoading reports whether a refresh is in flight.
func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// IsSyncing reports whether the one-shot sign-in merge is running.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// AddItem puts quantity units of (productID, variant) into the cart.
// An existing line for the pair is incremented, never duplicated.
// The snapshot is optional; when absent in anonymous mode the catalog
// fills it so the line can render offline. Remote failures are logged
// and surface as a no-op.
func (e *Engine) AddItem(ctx context.Context, productID uint, variant string, quantity int, snapshot *Snapshot) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	e.mu.Lock()
	mode := e.mode
	e.mu.Unlock()

	if mode == ModeAuthenticated {
		ident := e.provider.Current()
		if ident == nil {
			return nil
		}
		if err := e.remote.AddOrIncrement(ctx, ident.UserID, productID, variant, quantity); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"user_id":    ident.UserID,
				"product_id": productID,
			}).Warn("remote add to cart failed, state unchanged")
			return nil
		}
		e.Refresh(ctx)
		return nil
	}

	e.mu.Lock()
	found := false
	for i := range e.lines {
		if e.lines[i].SameItem(productID, variant) {
			e.lines[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		snap := snapshot
		if snap == nil && e.catalog != nil {
			if s, err := e.catalog.DisplayData(ctx, productID); err == nil {
				snap = s
			} else {
				e.log.WithError(err).WithField("product_id", productID).
					Debug("no display data for anonymous cart line")
			}
		}
		e.lines = append(e.lines, Line{
			ID:        e.cfg.Cart.LocalIDPrefix + uuid.New().String(),
			ProductID: productID,
			Variant:   variant,
			Quantity:  quantity,
			Snapshot:  snap,
			AddedAt:   nowUTC(),
		})
	}
	lines := make([]Line, len(e.lines))
	copy(lines, e.lines)
	e.mu.Unlock()

	e.persistLocal(ctx, lines)
	return nil
}

// UpdateQuantity sets a line's quantity, clamped to a minimum of 1.
// Dropping to zero is not a removal path; use RemoveItem. In
// authenticated mode line ids that are not remote row ids are stale
// leftovers from an anonymous session and are skipped.
func (e *Engine) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	mode := e.mode
	e.mu.Unlock()

	if mode == ModeAuthenticated {
		if !e.isRemoteID(lineID) {
			e.log.WithField("line_id", lineID).Debug("skipping update for non-remote line id")
			return nil
		}
		ident := e.provider.Current()
		if ident == nil {
			return nil
		}
		if err := e.remote.SetQuantity(ctx, ident.UserID, lineID, quantity); err != nil {
			e.log.WithError(err).WithField("line_id", lineID).
				Warn("remote quantity update failed, state unchanged")
			return nil
		}
		e.Refresh(ctx)
		return nil
	}

	e.mu.Lock()
	changed := false
	for i := range e.lines {
		if e.lines[i].ID == lineID {
			e.lines[i].Quantity = quantity
			changed = true
			break
		}
	}
	lines := make([]Line, len(e.lines))
	copy(lines, e.lines)
	e.mu.Unlock()

	if changed {
		e.persistLocal(ctx, lines)
	}
	return nil
}

// RemoveItem removes a line unconditionally.
func (e *Engine) RemoveItem(ctx context.Context, lineID string) error {
	e.mu.Lock()
	mode := e.mode
	e.mu.Unlock()

	if mode == ModeAuthenticated {
		if !e.isRemoteID(lineID) {
			e.log.WithField("line_id", lineID).Debug("skipping removal for non-remote line id")
			return nil
		}
		ident := e.provider.Current()
		if ident == nil {
			return nil
		}
		if err := e.remote.DeleteLine(ctx, ident.UserID, lineID); err != nil {
			e.log.WithError(err).WithField("line_id", lineID).
				Warn("remote line removal failed, state unchanged")
			return nil
		}
		e.Refresh(ctx)
		return nil
	}

	e.mu.Lock()
	filtered := e.lines[:0]
	for _, line := range e.lines {
		if line.ID != lineID {
			filtered = append(filtered, line)
		}
	}
	e.lines = filtered
	lines := make([]Line, len(e.lines))
	copy(lines, e.lines)
	e.mu.Unlock()

	e.persistLocal(ctx, lines)
	return nil
}

// Clear empties the cart in the current mode.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	mode := e.mode
	lines := make([]Line, len(e.lines))
	copy(lines, e.lines)
	e.mu.Unlock()

	if mode == ModeAuthenticated {
		ident := e.provider.Current()
		if ident == nil {
			return nil
		}
		for _, line := range lines {
			if !e.isRemoteID(line.ID) {
				continue
			}
			if err := e.remote.DeleteLine(ctx, ident.UserID, line.ID); err != nil {
				e.log.WithError(err).WithField("line_id", line.ID).
					Warn("remote line removal failed during clear")
			}
		}
		e.Refresh(ctx)
		return nil
	}

	e.mu.Lock()
	e.lines = nil
	e.mu.Unlock()
	if err := e.local.Clear(ctx); err != nil {
		e.log.WithError(err).Warn("failed to clear anonymous cart store")
	}
	return nil
}

// Refresh re-derives the lines from the authoritative source for the
// current mode. A full overwrite is idempotent, so concurrent
// refreshes resolve last-write-wins; a failed read keeps the previous
// lines.
func (e *Engine) Refresh(ctx context.Context) {
	e.mu.Lock()
	e.loading = true
	mode := e.mode
	e.mu.Unlock()

	var lines []Line
	var err error

	if mode == ModeAuthenticated {
		if ident := e.provider.Current(); ident != nil {
			lines, err = e.remote.ListLines(ctx, ident.UserID)
		}
	} else {
		lines, err = e.local.Read(ctx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.log.WithError(err).WithField("mode", mode).Warn("cart refresh failed, keeping previous lines")
		return
	}
	if mode != e.mode {
		// Mode flipped while the read was in flight; the transition
		// handler already refreshed against the new authority.
		return
	}
	e.lines = lines
}

// onIdentityChange is the subscription callback driving mode
// transitions. Mode is a pure function of identity presence.
func (e *Engine) onIdentityChange(ident *identity.Identity) {
	ctx := context.Background()
	if ident != nil {
		e.signIn(ctx, ident)
	} else {
		e.signOut(ctx)
	}
}

// signIn switches to authenticated mode and migrates the anonymous
// cart. The merge applies each anonymous line in insertion order with
// an idempotent add-or-increment; the durable store is cleared only
// after every line succeeded. On any failure the store is kept in
// full so the merge is retryable on the next load without partial
// loss. Once started the merge runs to completion.
func (e *Engine) signIn(ctx context.Context, ident *identity.Identity) {
	e.mu.Lock()
	if e.mode == ModeAuthenticated {
		e.mu.Unlock()
		return
	}
	e.mode = ModeAuthenticated
	e.syncing = true
	e.mu.Unlock()

	e.mergeAnonymous(ctx, ident.UserID)
	e.Refresh(ctx)

	e.mu.Lock()
	e.syncing = false
	e.mu.Unlock()
}

func (e *Engine) mergeAnonymous(ctx context.Context, userID uint) {
	lines, err := e.local.Read(ctx)
	if err != nil {
		e.log.WithError(err).Warn("could not read anonymous cart for merge")
		return
	}
	if len(lines) == 0 {
		return
	}

	for _, line := range lines {
		if err := e.remote.AddOrIncrement(ctx, userID, line.ProductID, line.Variant, line.Quantity); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"user_id":    userID,
				"product_id": line.ProductID,
			}).Warn("cart merge aborted, anonymous cart retained for retry")
			return
		}
	}

	if err := e.local.Clear(ctx); err != nil {
		e.log.WithError(err).Warn("failed to clear anonymous cart after merge")
	}
}

// signOut returns to anonymous mode. The remote cart is not merged
// back; the engine picks up whatever an earlier anonymous session
// left in the durable store.
func (e *Engine) signOut(ctx context.Context) {
	e.mu.Lock()
	if e.mode == ModeAnonymous {
		e.mu.Unlock()
		return
	}
	e.mode = ModeAnonymous
	e.lines = nil
	e.mu.Unlock()

	e.Refresh(ctx)
}

func (e *Engine) persistLocal(ctx context.Context, lines []Line) {
	if err := e.local.Write(ctx, lines); err != nil {
		e.log.WithError(err).Warn("failed to persist anonymous cart")
	}
}

// isRemoteID reports whether the id has the shape of a database row
// id. Locally generated ids carry the configured prefix and never
// parse as a row id.
func (e *Engine) isRemoteID(lineID string) bool {
	if strings.HasPrefix(lineID, e.cfg.Cart.LocalIDPrefix) {
		return false
	}
	id, err := strconv.ParseUint(lineID, 10, 32)
	return err == nil && id > 0
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
