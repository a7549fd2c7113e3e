// Package quota implements the cost model and the daily budget ledger
// that every upstream call must pass through.
package quota

import "tubepulse/domain/model"

// CostModel is an immutable per-operation price table. Unknown operation
// kinds are charged at the highest known price so a miscosted call can
// never sneak past the budget check.
type CostModel struct {
	table map[model.OperationKind]int64
	max   int64
}

// NewCostModel builds the table from configuration. An empty table prices
// everything at 1.
func NewCostModel(costs map[string]int64) *CostModel {
	m := &CostModel{table: make(map[model.OperationKind]int64, len(costs)), max: 1}
	for op, units := range costs {
		if units < 1 {
			units = 1
		}
		m.table[model.OperationKind(op)] = units
		if units > m.max {
			m.max = units
		}
	}
	return m
}

// Cost returns the unit price for an operation.
func (m *CostModel) Cost(op model.OperationKind) int64 {
	if units, ok := m.table[op]; ok {
		return units
	}
	return m.max
}
