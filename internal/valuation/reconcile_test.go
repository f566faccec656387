package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

func TestReconcile(t *testing.T) {
	catalog := testCatalog(5)

	t.Run("keeps only assets held with a positive amount", func(t *testing.T) {
		balances := []models.Balance{
			{Address: "0xGA1", Amount: 2},
			{Address: "0xgc3", Amount: 1.5},
			{Address: "0xgd4", Amount: 0},
			{Address: "0xStablecoin", Amount: 500},
		}

		owned := Reconcile(catalog, balances, types.SourceGnosis)
		require.Len(t, owned, 2)

		c3, ok := findRow(owned, "c3")
		require.True(t, ok)
		assert.Equal(t, 1.5, c3.Amount)
		assert.Equal(t, 45.0, c3.Value)
		assert.Equal(t, "c3", c3.UUID)
	})

	t.Run("sorted by descending value", func(t *testing.T) {
		balances := []models.Balance{
			{Address: "0xea1", Amount: 10}, // 100
			{Address: "0xeb2", Amount: 1},  // 20
			{Address: "0xee5", Amount: 3},  // 150
		}
		owned := Reconcile(catalog, balances, types.SourceEthereum)
		require.Len(t, owned, 3)
		assert.Equal(t, []string{"e5", "a1", "b2"}, []string{owned[0].ID, owned[1].ID, owned[2].ID})
	})

	t.Run("negative amounts are dropped", func(t *testing.T) {
		owned := Reconcile(catalog, []models.Balance{{Address: "0xea1", Amount: -3}}, types.SourceEthereum)
		assert.Empty(t, owned)
	})

	t.Run("first balance wins for duplicate addresses", func(t *testing.T) {
		balances := []models.Balance{
			{Address: "0xEA1", Amount: 1},
			{Address: "0xea1", Amount: 7},
		}
		owned := Reconcile(catalog, balances, types.SourceEthereum)
		require.Len(t, owned, 1)
		assert.Equal(t, 1.0, owned[0].Amount)
	})

	t.Run("rmm balances use the gnosis contract", func(t *testing.T) {
		owned := Reconcile(catalog, []models.Balance{{Address: "0xgb2", Amount: 4}}, types.SourceRmm)
		require.Len(t, owned, 1)
		assert.Equal(t, "b2", owned[0].ID)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Empty(t, Reconcile(nil, []models.Balance{{Address: "0xea1", Amount: 1}}, types.SourceEthereum))
		assert.Empty(t, Reconcile(catalog, nil, types.SourceEthereum))
	})
}
