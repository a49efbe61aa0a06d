package checkout

import (
	"time"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
)

func orderFromRecord(rec docstore.Record) domain.Order {
	order := domain.Order{ID: rec.ID}
	if v, ok := rec.Data["userId"].(string); ok {
		order.UserID = v
	}
	if v, ok := rec.Data["status"].(string); ok {
		order.Status = v
	}
	if cents, ok := intField(rec.Data["totalCents"]); ok {
		order.TotalCents = cents
	}
	if raw, ok := rec.Data["placedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			order.PlacedAt = t
		}
	}
	if rawLines, ok := rec.Data["lines"].([]interface{}); ok {
		for _, rawLine := range rawLines {
			entry, ok := rawLine.(map[string]interface{})
			if !ok {
				continue
			}
			var line domain.OrderLine
			if v, ok := entry["productId"].(string); ok {
				line.ProductID = v
			}
			if v, ok := entry["productName"].(string); ok {
				line.ProductName = v
			}
			if cents, ok := intField(entry["unitPriceCents"]); ok {
				line.UnitPriceCents = cents
			}
			if qty, ok := intField(entry["quantity"]); ok {
				line.Quantity = int(qty)
			}
			order.Lines = append(order.Lines, line)
		}
	}
	return order
}

func intField(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
