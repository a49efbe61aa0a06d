package cartstore

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
)

// linesCollection is the remote collection holding one document per cart
// line, keyed to its owner (user id or guest device id) by ownerId.
const linesCollection = "cart_lines"

func recordFromLine(owner string, l domain.CartLine) map[string]interface{} {
	return map[string]interface{}{
		"ownerId":        owner,
		"productId":      l.ProductID,
		"productName":    l.ProductName,
		"unitPriceCents": l.UnitPriceCents,
		"imageUrl":       l.ImageURL,
		"quantity":       l.Quantity,
		"addedAt":        l.AddedAt.UTC().Format(time.RFC3339Nano),
	}
}

// lineFromRecord maps a stored document onto the canonical line type.
// Records without a product id are skipped; quantities read back below 1
// are clamped.
func lineFromRecord(rec docstore.Record) (domain.CartLine, bool) {
	productID, _ := rec.Data["productId"].(string)
	if productID == "" {
		return domain.CartLine{}, false
	}
	line := domain.CartLine{
		LineID:    rec.ID,
		ProductID: productID,
		Quantity:  1,
	}
	if v, ok := rec.Data["productName"].(string); ok {
		line.ProductName = v
	}
	if v, ok := rec.Data["imageUrl"].(string); ok {
		line.ImageURL = v
	}
	if cents, ok := asInt64(rec.Data["unitPriceCents"]); ok {
		line.UnitPriceCents = cents
	}
	if qty, ok := asInt64(rec.Data["quantity"]); ok && qty >= 1 {
		line.Quantity = int(qty)
	}
	if raw, ok := rec.Data["addedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			line.AddedAt = t
		}
	}
	return line, true
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
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

type snapshot struct {
	Items []domain.CartLine `json:"items"`
}

func encodeSnapshot(lines []domain.CartLine) (string, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(snapshot{Items: lines})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeSnapshot parses a device snapshot, dropping lines without a
// product id and clamping quantities. Unparseable input yields an empty
// cart rather than an error.
func decodeSnapshot(raw string) []domain.CartLine {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil
	}
	var out []domain.CartLine
	for _, l := range snap.Items {
		if l.ProductID == "" {
			continue
		}
		if l.LineID == "" {
			l.LineID = uuid.NewString()
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		out = append(out, l)
	}
	return out
}
