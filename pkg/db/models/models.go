package models

// All lists every model managed by the SQL backends, in dependency order.
func All() []any {
	return []any{
		&SaleRecord{},
		&SalePhoto{},
		&EmailEvent{},
		&AuthCode{},
	}
}
