// Package valuation turns already-fetched balances, catalog records and trade
// statistics into portfolio metrics. Every function is pure: inputs are passed
// explicitly, never mutated, and nothing here performs I/O or blocks.
//
// Data flows one way:
//
//	balances + catalog -> Reconcile -> Aggregate -> ProjectIncome / AggregateRmmExposure
//	trade statistics + catalog -> ComputeDivergence
//
// Missing catalog matches and empty trade windows are not errors. They degrade
// to omitted rows, zero values or a NaN market price (see MarketDivergence.Displayable).
package valuation
