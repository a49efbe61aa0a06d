package seed

import (
	"context"
	"fmt"
	"time"

	"honeyhive/internal/docstore"
)

type productSeed struct {
	Name        string
	Description string
	Category    string
	PriceCents  int64
	ImageURL    string
}

// Apply inserts basic catalog data for manual testing. It is idempotent:
// products are matched by name and updated in place.
func Apply(ctx context.Context, docs docstore.Store) error {
	products := []productSeed{
		{
			Name:        "Wildflower Honey",
			Description: "Raw wildflower honey from summer meadows, 500g jar",
			Category:    "honey",
			PriceCents:  1299,
			ImageURL:    "/images/wildflower-honey.jpg",
		},
		{
			Name:        "Clover Honey",
			Description: "Mild clover honey, 500g jar",
			Category:    "honey",
			PriceCents:  1099,
			ImageURL:    "/images/clover-honey.jpg",
		},
		{
			Name:        "Honeycomb Square",
			Description: "Cut comb straight from the frame, 200g",
			Category:    "comb",
			PriceCents:  1599,
			ImageURL:    "/images/honeycomb.jpg",
		},
		{
			Name:        "Beeswax Candle",
			Description: "Hand-rolled beeswax pillar candle",
			Category:    "wax",
			PriceCents:  899,
			ImageURL:    "/images/beeswax-candle.jpg",
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, docs, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, docs docstore.Store, p productSeed) error {
	data := map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"priceCents":  p.PriceCents,
		"imageUrl":    p.ImageURL,
		"inStock":     true,
	}

	existing, err := docs.QueryByField(ctx, "products", "name", docstore.OpEqual, p.Name)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return docs.Update(ctx, "products", existing[0].ID, data)
	}

	data["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	_, err = docs.Create(ctx, "products", data)
	return err
}
