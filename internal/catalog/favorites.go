package catalog

import (
	"context"
	"fmt"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
)

// AddFavorite returns false when the item was already a favorite.
func (r *Repo) AddFavorite(ctx context.Context, userID, menuItemID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO favorites (user_id, menu_item_id) VALUES ($1, $2)
		ON CONFLICT (user_id, menu_item_id) DO NOTHING`,
		userID, menuItemID)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	added := tag.RowsAffected() > 0
	if added {
		r.log.Action("favorite_added").Debug("favorite added",
			"user_id", userID, "menu_item_id", menuItemID)
	}
	return added, nil
}

func (r *Repo) RemoveFavorite(ctx context.Context, userID, menuItemID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND menu_item_id = $2`,
		userID, menuItemID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListFavorites returns the user's favorites that are currently available,
// most recently added first.
func (r *Repo) ListFavorites(ctx context.Context, userID int64) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.name, m.price, m.available
		FROM favorites f
		JOIN menu_items m ON f.menu_item_id = m.id
		WHERE f.user_id = $1 AND m.available
		ORDER BY f.created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Available); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FavoriteIDs returns the set of favorite item ids for quick lookups when
// rendering the menu.
func (r *Repo) FavoriteIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT menu_item_id FROM favorites WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
