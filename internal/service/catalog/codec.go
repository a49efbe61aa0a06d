package catalog

import (
	"encoding/json"
	"strconv"
	"time"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
)

func recordFromProduct(p domain.Product) map[string]interface{} {
	return map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"priceCents":  p.PriceCents,
		"imageUrl":    p.ImageURL,
		"inStock":     p.InStock,
		"createdAt":   p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func productFromRecord(rec docstore.Record) (domain.Product, bool) {
	name, _ := rec.Data["name"].(string)
	if name == "" {
		return domain.Product{}, false
	}
	p := domain.Product{ID: rec.ID, Name: name, InStock: true}
	if v, ok := rec.Data["description"].(string); ok {
		p.Description = v
	}
	if v, ok := rec.Data["category"].(string); ok {
		p.Category = v
	}
	if v, ok := rec.Data["imageUrl"].(string); ok {
		p.ImageURL = v
	}
	if v, ok := rec.Data["inStock"].(bool); ok {
		p.InStock = v
	}
	if cents, ok := centsOf(rec.Data["priceCents"]); ok {
		p.PriceCents = cents
	}
	if raw, ok := rec.Data["createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			p.CreatedAt = t
		}
	}
	return p, true
}

func centsOf(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		parsed, err := n.Int64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
