package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// Repo serves the read-mostly menu reference data.
type Repo struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

func NewRepo(pool *pgxpool.Pool, log logger.Logger) *Repo {
	return &Repo{pool: pool, log: log}
}

func (r *Repo) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	return r.listItems(ctx, `
		SELECT id, name, price, available FROM menu_items
		WHERE available ORDER BY id`)
}

// ListAll includes unavailable items, for the barista availability panel.
func (r *Repo) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	return r.listItems(ctx, `
		SELECT id, name, price, available FROM menu_items ORDER BY id`)
}

func (r *Repo) GetItem(ctx context.Context, itemID int64) (models.MenuItem, error) {
	var item models.MenuItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, available FROM menu_items WHERE id = $1`,
		itemID).Scan(&item.ID, &item.Name, &item.Price, &item.Available)
	if err == pgx.ErrNoRows {
		return models.MenuItem{}, xerrors.ErrMenuItemNotFound
	}
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to query menu item: %w", err)
	}
	return item, nil
}

// ToggleAvailability flips the flag and returns the updated item.
func (r *Repo) ToggleAvailability(ctx context.Context, itemID int64) (models.MenuItem, error) {
	var item models.MenuItem
	err := r.pool.QueryRow(ctx, `
		UPDATE menu_items SET available = NOT available
		WHERE id = $1
		RETURNING id, name, price, available`,
		itemID).Scan(&item.ID, &item.Name, &item.Price, &item.Available)
	if err == pgx.ErrNoRows {
		return models.MenuItem{}, xerrors.ErrMenuItemNotFound
	}
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to toggle availability: %w", err)
	}

	r.log.Action("menu_availability_toggled").Info("availability changed",
		"item_id", item.ID, "available", item.Available)
	return item, nil
}

// SizesFor returns available sizes for an item, cheapest delta first.
func (r *Repo) SizesFor(ctx context.Context, itemID int64) ([]models.SizeOption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, menu_item_id, size, size_name, price_diff, available
		FROM menu_item_sizes
		WHERE menu_item_id = $1 AND available
		ORDER BY price_diff ASC`,
		itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sizes: %w", err)
	}
	defer rows.Close()

	var sizes []models.SizeOption
	for rows.Next() {
		var s models.SizeOption
		if err := rows.Scan(&s.ID, &s.MenuItemID, &s.Size, &s.SizeName, &s.PriceDiff, &s.Available); err != nil {
			return nil, fmt.Errorf("failed to scan size: %w", err)
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

// ModifiersFor returns modifiers offerable on the item: linked and available.
func (r *Repo) ModifiersFor(ctx context.Context, itemID int64) ([]models.Modifier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.name, m.category, m.price, m.is_available, m.sort_order
		FROM modifiers m
		JOIN menu_item_modifiers mim ON m.id = mim.modifier_id
		WHERE mim.menu_item_id = $1 AND m.is_available
		ORDER BY m.category, m.sort_order, m.name`,
		itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item modifiers: %w", err)
	}
	defer rows.Close()
	return collectModifiers(rows)
}

func (r *Repo) ModifiersByIDs(ctx context.Context, ids []int64) ([]models.Modifier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, price, is_available, sort_order
		FROM modifiers
		WHERE id = ANY($1)
		ORDER BY category, name`,
		ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query modifiers by ids: %w", err)
	}
	defer rows.Close()
	return collectModifiers(rows)
}

func (r *Repo) listItems(ctx context.Context, query string) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Available); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func collectModifiers(rows pgx.Rows) ([]models.Modifier, error) {
	var mods []models.Modifier
	for rows.Next() {
		var m models.Modifier
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Available, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan modifier: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}
