// internal/domain/cart/localstore_test.go
package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripPreservesLines(t *testing.T) {
	added := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	in := []Line{
		{ID: "local-a", ProductID: 1, Variant: "7", Quantity: 2, AddedAt: added,
			Snapshot: &Snapshot{Name: "Gold Solitaire Ring", Price: 129900, Image: "/images/ring.jpg"}},
		{ID: "local-b", ProductID: 2, Variant: "", Quantity: 1, AddedAt: added},
		{ID: "local-c", ProductID: 1, Variant: "8", Quantity: 5, AddedAt: added},
	}

	data, err := encodeLines(in)
	require.NoError(t, err)

	out := decodeLines(data)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].ProductID, out[i].ProductID)
		assert.Equal(t, in[i].Variant, out[i].Variant)
		assert.Equal(t, in[i].Quantity, out[i].Quantity)
	}
	require.NotNil(t, out[0].Snapshot)
	assert.Equal(t, int64(129900), out[0].Snapshot.Price)
}

func TestEncodeLinesNilBecomesEmptyArray(t *testing.T) {
	data, err := encodeLines(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDecodeLinesToleratesCorruptPayload(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"id":"x"}`, `[{"id":`} {
		assert.Empty(t, decodeLines([]byte(payload)), "payload %q", payload)
	}
}

func TestDecodeLinesDropsInvalidEntries(t *testing.T) {
	data, err := encodeLines([]Line{
		{ID: "local-a", ProductID: 1, Quantity: 2},
		{ID: "", ProductID: 2, Quantity: 1},
		{ID: "local-b", ProductID: 3, Quantity: 0},
		{ID: "local-c", ProductID: 4, Quantity: -2},
		{ID: "local-d", ProductID: 5, Quantity: 1},
	})
	require.NoError(t, err)

	out := decodeLines(data)
	require.Len(t, out, 2)
	assert.Equal(t, "local-a", out[0].ID)
	assert.Equal(t, "local-d", out[1].ID)
}
