// internal/domain/cart/engine_test.go
package cart

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/identity"
)

type fakeLocalStore struct {
	lines    []Line
	readErr  error
	writeErr error
	clears   int
	writes   int
}

func (f *fakeLocalStore) Read(ctx context.Context) ([]Line, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]Line, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeLocalStore) Write(ctx context.Context, lines []Line) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.lines = make([]Line, len(lines))
	copy(f.lines, lines)
	return nil
}

func (f *fakeLocalStore) Clear(ctx context.Context) error {
	f.clears++
	f.lines = nil
	return nil
}

type remoteRow struct {
	id        uint
	productID uint
	variant   string
	quantity  int
}

type fakeRemoteStore struct {
	rows   []remoteRow
	nextID uint

	addCalls  int
	failAddAt int // fail the nth AddOrIncrement call, 0 = never

	setCalls    int
	deleteCalls int
}

func (f *fakeRemoteStore) ListLines(ctx context.Context, userID uint) ([]Line, error) {
	lines := make([]Line, len(f.rows))
	for i, row := range f.rows {
		lines[i] = Line{
			ID:        strconv.FormatUint(uint64(row.id), 10),
			ProductID: row.productID,
			Variant:   row.variant,
			Quantity:  row.quantity,
		}
	}
	return lines, nil
}

func (f *fakeRemoteStore) AddOrIncrement(ctx context.Context, userID uint, productID uint, variant string, quantity int) error {
	f.addCalls++
	if f.failAddAt != 0 && f.addCalls == f.failAddAt {
		return fmt.Errorf("simulated remote failure")
	}
	for i := range f.rows {
		if f.rows[i].productID == productID && f.rows[i].variant == variant {
			f.rows[i].quantity += quantity
			return nil
		}
	}
	f.nextID++
	f.rows = append(f.rows, remoteRow{
		id:        f.nextID,
		productID: productID,
		variant:   variant,
		quantity:  quantity,
	})
	return nil
}

func (f *fakeRemoteStore) SetQuantity(ctx context.Context, userID uint, lineID string, quantity int) error {
	f.setCalls++
	id, err := parseRowID(lineID)
	if err != nil {
		return err
	}
	for i := range f.rows {
		if f.rows[i].id == id {
			f.rows[i].quantity = quantity
			return nil
		}
	}
	return nil
}

func (f *fakeRemoteStore) DeleteLine(ctx context.Context, userID uint, lineID string) error {
	f.deleteCalls++
	id, err := parseRowID(lineID)
	if err != nil {
		return err
	}
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.id != id {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeCatalog struct {
	snapshots map[uint]*Snapshot
}

func (f *fakeCatalog) DisplayData(ctx context.Context, productID uint) (*Snapshot, error) {
	if snap, ok := f.snapshots[productID]; ok {
		return snap, nil
	}
	return nil, fmt.Errorf("product %d not found", productID)
}

func testConfig() *config.Config {
	return &config.Config{
		Cart: config.CartConfig{
			SessionTTL:    time.Hour,
			LocalIDPrefix: "local-",
		},
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine(t *testing.T) (*Engine, *identity.SessionProvider, *fakeLocalStore, *fakeRemoteStore) {
	t.Helper()
	provider := identity.NewSessionProvider()
	local := &fakeLocalStore{}
	remote := &fakeRemoteStore{}
	catalog := &fakeCatalog{snapshots: map[uint]*Snapshot{
		1: {Name: "Gold Solitaire Ring", Price: 129900, Image: "/images/ring.jpg"},
		2: {Name: "Silver Pendant Necklace", Price: 45900, Image: "/images/necklace.jpg"},
	}}
	engine := NewEngine(testConfig(), provider, local, remote, catalog, testLogger())
	t.Cleanup(engine.Close)
	return engine, provider, local, remote
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "7", 1, nil))
	require.NoError(t, engine.AddItem(ctx, 1, "7", 2, nil))

	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestAddItemKeepsDistinctVariantsApart(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "6", 1, nil))
	require.NoError(t, engine.AddItem(ctx, 1, "7", 1, nil))
	require.NoError(t, engine.AddItem(ctx, 2, "", 1, nil))

	lines := engine.Lines()
	require.Len(t, lines, 3)

	// No two lines may share a (product, variant) pair.
	seen := map[string]bool{}
	for _, line := range lines {
		key := fmt.Sprintf("%d|%s", line.ProductID, line.Variant)
		assert.False(t, seen[key], "duplicate line for %s", key)
		seen[key] = true
	}
}

func TestAddItemRejectsQuantityBelowOne(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	assert.Error(t, engine.AddItem(context.Background(), 1, "", 0, nil))
	assert.Error(t, engine.AddItem(context.Background(), 1, "", -3, nil))
	assert.Empty(t, engine.Lines())
}

func TestAddItemFillsSnapshotFromCatalog(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	require.NoError(t, engine.AddItem(context.Background(), 1, "7", 1, nil))

	lines := engine.Lines()
	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].Snapshot)
	assert.Equal(t, "Gold Solitaire Ring", lines[0].Snapshot.Name)
	assert.Equal(t, int64(129900), lines[0].Snapshot.Price)
}

func TestAnonymousMutationsPersistSynchronously(t *testing.T) {
	engine, _, local, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "7", 2, nil))
	require.Len(t, local.lines, 1)

	require.NoError(t, engine.UpdateQuantity(ctx, local.lines[0].ID, 5))
	assert.Equal(t, 5, local.lines[0].Quantity)

	require.NoError(t, engine.RemoveItem(ctx, local.lines[0].ID))
	assert.Empty(t, local.lines)
}

func TestUpdateQuantityClampsToFloor(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "", 4, nil))
	lineID := engine.Lines()[0].ID

	for _, q := range []int{0, -1, -100} {
		require.NoError(t, engine.UpdateQuantity(ctx, lineID, q))
		assert.Equal(t, 1, engine.Lines()[0].Quantity, "quantity %d must clamp to 1", q)
	}
}

func TestModeFollowsIdentityPresence(t *testing.T) {
	engine, provider, _, _ := newTestEngine(t)

	assert.Equal(t, ModeAnonymous, engine.Mode())

	provider.Set(&identity.Identity{UserID: 42, Email: "a@example.com"})
	assert.Equal(t, ModeAuthenticated, engine.Mode())

	provider.Clear()
	assert.Equal(t, ModeAnonymous, engine.Mode())

	provider.Set(&identity.Identity{UserID: 43, Email: "b@example.com"})
	assert.Equal(t, ModeAuthenticated, engine.Mode())
}

func TestSignInMergesAnonymousCartInOrder(t *testing.T) {
	engine, provider, local, remote := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "7", 2, nil))
	require.NoError(t, engine.AddItem(ctx, 2, "", 1, nil))

	provider.Set(&identity.Identity{UserID: 42})

	require.Len(t, remote.rows, 2)
	assert.Equal(t, uint(1), remote.rows[0].productID)
	assert.Equal(t, 2, remote.rows[0].quantity)
	assert.Equal(t, uint(2), remote.rows[1].productID)

	// Durable store cleared only after a fully successful merge.
	assert.Equal(t, 1, local.clears)
	assert.Empty(t, local.lines)

	// The engine now mirrors the remote cart.
	lines := engine.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ID)
}

func TestMergeIsIdempotentAcrossRepeats(t *testing.T) {
	engine, provider, _, remote := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "7", 2, nil))

	provider.Set(&identity.Identity{UserID: 42})
	require.Len(t, remote.rows, 1)
	require.Equal(t, 2, remote.rows[0].quantity)

	// A repeat sign-in cycle finds an empty durable store and merges
	// nothing.
	provider.Clear()
	provider.Set(&identity.Identity{UserID: 42})

	require.Len(t, remote.rows, 1)
	assert.Equal(t, 2, remote.rows[0].quantity)
}

func TestPartialMergeFailureKeepsAnonymousStoreIntact(t *testing.T) {
	engine, provider, local, remote := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "7", 1, nil))
	require.NoError(t, engine.AddItem(ctx, 2, "", 1, nil))
	require.NoError(t, engine.AddItem(ctx, 1, "8", 1, nil))

	remote.failAddAt = 2
	provider.Set(&identity.Identity{UserID: 42})

	// Line 2 failed: no partial clearing, all three lines stay for
	// the retry.
	assert.Equal(t, 0, local.clears)
	require.Len(t, local.lines, 3)
	require.Len(t, remote.rows, 1)

	// Retry applies everything without duplicating line 1's row.
	provider.Clear()
	provider.Set(&identity.Identity{UserID: 42})

	require.Len(t, remote.rows, 3)
	assert.Equal(t, 1, local.clears)
	assert.Empty(t, local.lines)
}

func TestAuthenticatedAddGoesThroughRemote(t *testing.T) {
	engine, provider, _, remote := newTestEngine(t)
	ctx := context.Background()

	provider.Set(&identity.Identity{UserID: 42})
	require.NoError(t, engine.AddItem(ctx, 1, "7", 2, nil))

	require.Len(t, remote.rows, 1)
	assert.Equal(t, 2, remote.rows[0].quantity)

	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0].ID)
	assert.Nil(t, lines[0].Snapshot)
}

func TestAuthenticatedRemoteFailureIsANoOp(t *testing.T) {
	engine, provider, _, remote := newTestEngine(t)
	ctx := context.Background()

	provider.Set(&identity.Identity{UserID: 42})
	require.NoError(t, engine.AddItem(ctx, 1, "7", 1, nil))

	remote.failAddAt = remote.addCalls + 1
	require.NoError(t, engine.AddItem(ctx, 2, "", 1, nil))

	// The failed mutation surfaces as a no-op; state is whatever the
	// last successful read produced.
	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint(1), lines[0].ProductID)
}

func TestStaleLocalIDsAreSkippedInAuthenticatedMode(t *testing.T) {
	engine, provider, _, remote := newTestEngine(t)
	ctx := context.Background()

	provider.Set(&identity.Identity{UserID: 42})
	require.NoError(t, engine.AddItem(ctx, 1, "7", 1, nil))

	require.NoError(t, engine.UpdateQuantity(ctx, "local-0b5c9a88", 5))
	require.NoError(t, engine.RemoveItem(ctx, "local-0b5c9a88"))
	require.NoError(t, engine.UpdateQuantity(ctx, "not-a-row-id", 5))

	assert.Equal(t, 0, remote.setCalls)
	assert.Equal(t, 0, remote.deleteCalls)
	require.Len(t, remote.rows, 1)
	assert.Equal(t, 1, remote.rows[0].quantity)
}

func TestRefreshRederivesFromCurrentAuthority(t *testing.T) {
	engine, provider, local, remote := newTestEngine(t)
	ctx := context.Background()

	local.lines = []Line{{ID: "local-x", ProductID: 2, Quantity: 1}}
	engine.Refresh(ctx)
	require.Len(t, engine.Lines(), 1)
	assert.Equal(t, uint(2), engine.Lines()[0].ProductID)

	provider.Set(&identity.Identity{UserID: 42})
	remote.rows = append(remote.rows, remoteRow{id: 9, productID: 1, quantity: 3})
	engine.Refresh(ctx)

	found := false
	for _, line := range engine.Lines() {
		if line.ID == "9" {
			found = true
		}
	}
	assert.True(t, found, "refresh must pick up remote rows")
}

func TestSignOutRestoresPriorAnonymousCart(t *testing.T) {
	engine, provider, local, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "7", 1, nil))
	provider.Set(&identity.Identity{UserID: 42})
	require.Empty(t, local.lines)

	// A later anonymous session left something behind.
	local.lines = []Line{{ID: "local-y", ProductID: 2, Quantity: 2}}

	provider.Clear()
	assert.Equal(t, ModeAnonymous, engine.Mode())
	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint(2), lines[0].ProductID)
}

func TestCountSumsQuantities(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.AddItem(ctx, 1, "6", 2, nil))
	require.NoError(t, engine.AddItem(ctx, 2, "", 3, nil))

	assert.Equal(t, 5, engine.Count())
}
