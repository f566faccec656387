package types

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizeChainIDIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalizing twice equals normalizing once", prop.ForAll(
		func(s string) bool {
			once := NormalizeChainID(s)
			return NormalizeChainID(string(once)) == once
		},
		gen.AlphaString(),
	))

	properties.Property("aliases never escape the known chains", prop.ForAll(
		func(alias string) bool {
			id := NormalizeChainID(alias)
			return id == ChainGnosis || id == ChainEthereum
		},
		gen.OneConstOf("gnosis", "xdai", "XDAI", "100", "ethereum", "eth", "mainnet", "1"),
	))

	properties.TestingRun(t)
}
