package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

type menuFile struct {
	Items []seedMenuItem `json:"items"`
}

type seedMenuItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type modifiersFile struct {
	Sizes struct {
		Default []seedSize `json:"default"`
	} `json:"sizes"`
	Modifiers []seedModifier `json:"modifiers"`
}

type seedSize struct {
	Size      string `json:"size"`
	SizeName  string `json:"size_name"`
	PriceDiff int64  `json:"price_diff"`
}

type seedModifier struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
}

func parseMenuFile(data []byte) ([]seedMenuItem, error) {
	var f menuFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse menu file: %w", err)
	}
	return f.Items, nil
}

func parseModifiersFile(data []byte) (sizes []seedSize, modifiers []seedModifier, err error) {
	var f modifiersFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse modifiers file: %w", err)
	}
	return f.Sizes.Default, f.Modifiers, nil
}

// Seed loads menu items, default sizes and modifiers from JSON files.
// Every step is idempotent, so re-running the seed command is safe.
func (r *Repo) Seed(ctx context.Context, menuPath, modifiersPath string) error {
	log := r.log.Action("seed")

	menuData, err := os.ReadFile(menuPath)
	if err != nil {
		return fmt.Errorf("read menu file: %w", err)
	}
	items, err := parseMenuFile(menuData)
	if err != nil {
		return err
	}
	if err := r.seedMenu(ctx, items); err != nil {
		return err
	}

	modData, err := os.ReadFile(modifiersPath)
	if err != nil {
		log.Warn("modifiers file missing, skipping sizes and modifiers", "path", modifiersPath)
		return nil
	}
	sizes, modifiers, err := parseModifiersFile(modData)
	if err != nil {
		return err
	}
	if err := r.seedDefaultSizes(ctx, sizes); err != nil {
		return err
	}
	return r.seedModifiers(ctx, modifiers)
}

// seedMenu inserts the menu only into an empty table; prices of an already
// seeded menu are managed by staff, not by the seed file.
func (r *Repo) seedMenu(ctx context.Context, items []seedMenuItem) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		r.log.Action("seed").Info("menu already seeded, skipping", "existing", count)
		return nil
	}

	for _, item := range items {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO menu_items (name, price) VALUES ($1, $2)`,
			item.Name, item.Price); err != nil {
			return fmt.Errorf("insert menu item %q: %w", item.Name, err)
		}
	}
	r.log.Action("seed").Info("menu seeded", "items", len(items))
	return nil
}

// seedDefaultSizes applies the default size set to every menu item.
func (r *Repo) seedDefaultSizes(ctx context.Context, sizes []seedSize) error {
	if len(sizes) == 0 {
		return nil
	}

	ids, err := r.allMenuIDs(ctx)
	if err != nil {
		return err
	}

	inserted := 0
	for _, menuID := range ids {
		for _, s := range sizes {
			tag, err := r.pool.Exec(ctx, `
				INSERT INTO menu_item_sizes (menu_item_id, size, size_name, price_diff)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (menu_item_id, size) DO NOTHING`,
				menuID, s.Size, s.SizeName, s.PriceDiff)
			if err != nil {
				return fmt.Errorf("insert size %q: %w", s.Size, err)
			}
			inserted += int(tag.RowsAffected())
		}
	}
	r.log.Action("seed").Info("default sizes initialized",
		"menu_items", len(ids), "sizes_inserted", inserted)
	return nil
}

// seedModifiers inserts modifiers and links every modifier to every item.
func (r *Repo) seedModifiers(ctx context.Context, modifiers []seedModifier) error {
	if len(modifiers) == 0 {
		return nil
	}

	for _, m := range modifiers {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO modifiers (name, category, price)
			VALUES ($1, $2, $3)
			ON CONFLICT (name, category) DO NOTHING`,
			m.Name, m.Category, m.Price); err != nil {
			return fmt.Errorf("insert modifier %q: %w", m.Name, err)
		}
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO menu_item_modifiers (menu_item_id, modifier_id)
		SELECT mi.id, mo.id FROM menu_items mi CROSS JOIN modifiers mo
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("link modifiers: %w", err)
	}

	r.log.Action("seed").Info("modifiers initialized",
		"modifiers", len(modifiers), "links_created", tag.RowsAffected())
	return nil
}

func (r *Repo) allMenuIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM menu_items`)
	if err != nil {
		return nil, fmt.Errorf("query menu ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan menu id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
