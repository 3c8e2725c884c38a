package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func twoBatches() []Batch {
	return []Batch{
		{ID: 1, Quantity: 5, ExpiryDate: date("2024-01-01")},
		{ID: 2, Quantity: 3, ExpiryDate: date("2024-06-01")},
	}
}

func TestConsume(t *testing.T) {
	t.Run("consumes first listed batch first", func(t *testing.T) {
		out, result, err := Consume(twoBatches(), 6)

		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, 0, out[0].Quantity)
		assert.Equal(t, 2, out[1].Quantity)
		assert.Equal(t, 2, EffectiveQuantity(out))
		assert.Equal(t, 6, result.Consumed)
		assert.False(t, result.HasDeficit())
		require.Len(t, result.Deductions, 2)
		assert.Equal(t, 5, result.Deductions[0].Deducted)
		assert.Equal(t, 1, result.Deductions[1].Deducted)
	})

	t.Run("reports deficit instead of going negative", func(t *testing.T) {
		out, result, err := Consume(twoBatches(), 10)

		require.NoError(t, err)
		assert.Equal(t, 0, out[0].Quantity)
		assert.Equal(t, 0, out[1].Quantity)
		assert.Equal(t, 8, result.Consumed)
		assert.Equal(t, 2, result.Deficit)
		assert.True(t, result.HasDeficit())
	})

	t.Run("does not sort by expiry", func(t *testing.T) {
		batches := []Batch{
			{ID: 1, Quantity: 4, ExpiryDate: date("2025-12-01")},
			{ID: 2, Quantity: 4, ExpiryDate: date("2024-01-01")},
		}
		out, _, err := Consume(batches, 3)

		require.NoError(t, err)
		assert.Equal(t, 1, out[0].Quantity)
		assert.Equal(t, 4, out[1].Quantity)
	})

	t.Run("skips exhausted batches", func(t *testing.T) {
		batches := []Batch{{ID: 1, Quantity: 0}, {ID: 2, Quantity: 2}}
		out, result, err := Consume(batches, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, out[1].Quantity)
		require.Len(t, result.Deductions, 1)
		assert.Equal(t, int64(2), result.Deductions[0].BatchID)
	})

	t.Run("leaves input untouched", func(t *testing.T) {
		in := twoBatches()
		_, _, err := Consume(in, 6)

		require.NoError(t, err)
		assert.Equal(t, 5, in[0].Quantity)
		assert.Equal(t, 3, in[1].Quantity)
	})

	t.Run("empty ledger is a full deficit", func(t *testing.T) {
		out, result, err := Consume(nil, 4)

		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, 4, result.Deficit)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		for _, q := range []int{0, -3} {
			_, _, err := Consume(twoBatches(), q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQuantity))
		}
	})
}

func TestConsume_Properties(t *testing.T) {
	requests := [][]int{
		{1, 1, 1},
		{3, 5},
		{8},
		{2, 9, 4},
		{7, 7, 7, 7},
	}

	for _, seq := range requests {
		batches := []Batch{{Quantity: 5}, {Quantity: 0}, {Quantity: 3}, {Quantity: 6}}
		for _, q := range seq {
			before := EffectiveQuantity(batches)
			out, result, err := Consume(batches, q)
			require.NoError(t, err)

			for _, b := range out {
				assert.GreaterOrEqual(t, b.Quantity, 0)
			}
			if q <= before {
				assert.Equal(t, before-q, EffectiveQuantity(out))
				assert.Zero(t, result.Deficit)
			} else {
				assert.Equal(t, 0, EffectiveQuantity(out))
				assert.Equal(t, q-before, result.Deficit)
			}
			batches = out
		}
	}
}

func TestRestock(t *testing.T) {
	t.Run("appends without merging", func(t *testing.T) {
		existing := []Batch{{ID: 1, Quantity: 2, Supplier: "Acme", ExpiryDate: date("2025-01-01")}}
		added := []Batch{{Quantity: 4, Supplier: "Acme", ExpiryDate: date("2025-01-01")}}

		out, err := Restock(existing, added)

		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, 2, out[0].Quantity)
		assert.Equal(t, 4, out[1].Quantity)
		assert.Equal(t, 6, EffectiveQuantity(out))
	})

	t.Run("rejects empty batch list", func(t *testing.T) {
		_, err := Restock(nil, nil)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects non-positive batch", func(t *testing.T) {
		_, err := Restock(nil, []Batch{{Quantity: 0}})

		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestBatch_Deduct(t *testing.T) {
	b := Batch{Quantity: 3}

	assert.Equal(t, 0, b.Deduct(0))
	assert.Equal(t, 2, b.Deduct(2))
	assert.Equal(t, 1, b.Deduct(5))
	assert.Equal(t, 0, b.Quantity)
	assert.False(t, b.HasStock())
}
