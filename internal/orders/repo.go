package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

type Repo struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

func NewRepo(pool *pgxpool.Pool, log logger.Logger) *Repo {
	return &Repo{pool: pool, log: log}
}

// Create persists the order and its frozen line items in one transaction.
// The order is born CONFIRMED; total is computed here and never edited.
func (r *Repo) Create(ctx context.Context, userID int64, userName string, items []models.OrderItem, pickupTime string) (models.Order, error) {
	var total int64
	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order := models.Order{
		UserID:     userID,
		UserName:   userName,
		Items:      items,
		Total:      total,
		PickupTime: pickupTime,
		Status:     models.StatusConfirmed,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, user_name, total, pickup_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		userID, userName, total, pickupTime, models.StatusConfirmed,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items
				(order_id, menu_item_id, name, price, quantity,
				 size, size_name, modifier_ids, modifier_names, modifiers_price, comment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			order.ID, item.MenuItemID, item.Name, item.Price, item.Quantity,
			item.Size, item.SizeName, item.ModifierIDs, item.ModifierNames,
			item.ModifiersPrice, item.Comment)
		if err != nil {
			return models.Order{}, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Action("db_insert_order").Debug("order created",
		"order_id", order.ID, "user_id", userID, "items_count", len(items))
	return order, nil
}

func (r *Repo) Get(ctx context.Context, orderID int64) (models.Order, error) {
	var o models.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, user_name, total, pickup_time, status, created_at
		FROM orders WHERE id = $1`,
		orderID).Scan(&o.ID, &o.UserID, &o.UserName, &o.Total, &o.PickupTime, &o.Status, &o.CreatedAt)
	if err == pgx.ErrNoRows {
		return models.Order{}, xerrors.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return models.Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListActive returns orders still in flight, oldest first, for the barista panel.
func (r *Repo) ListActive(ctx context.Context) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_name, total, pickup_time, status, created_at
		FROM orders
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at ASC`,
		models.StatusCompleted, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query active orders: %w", err)
	}
	defer rows.Close()
	return r.collect(ctx, rows)
}

// ListUserOrders pages through a user's order history, newest first, and
// returns the total count for pagination.
func (r *Repo) ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]models.Order, int64, error) {
	var totalCount int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count user orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_name, total, pickup_time, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query user orders: %w", err)
	}
	defer rows.Close()

	orders, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}

	r.log.Action("get_user_orders").Debug("user orders fetched",
		"user_id", userID, "total", totalCount, "returned", len(orders), "offset", offset)
	return orders, totalCount, nil
}

// UpdateStatus overwrites the status. Legality is the service's concern;
// this is the raw write.
func (r *Repo) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) (models.Order, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Order{}, xerrors.ErrOrderNotFound
	}
	return r.Get(ctx, orderID)
}

// CancelByClient is an atomic check-then-act: the row is locked before the
// guard runs, so a status change cannot race the cancellation.
func (r *Repo) CancelByClient(ctx context.Context, orderID, userID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID int64
	var status models.OrderStatus
	err = tx.QueryRow(ctx,
		`SELECT user_id, status FROM orders WHERE id = $1 FOR UPDATE`,
		orderID).Scan(&ownerID, &status)
	if err == pgx.ErrNoRows {
		r.log.Action("cancel_order_not_found").Warn("order not found",
			"order_id", orderID, "user_id", userID)
		return xerrors.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}

	if err := cancelGuard(ownerID, userID, status); err != nil {
		r.log.Action("cancel_order_rejected").Info("cancellation rejected",
			"order_id", orderID, "user_id", userID, "status", status)
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		orderID, models.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Action("order_cancelled_by_client").Info("order cancelled",
		"order_id", orderID, "user_id", userID, "old_status", status)
	return nil
}

// ItemsForRepeat joins the order's frozen lines with current menu
// availability so the repeat flow can skip gone drinks.
func (r *Repo) ItemsForRepeat(ctx context.Context, orderID int64) ([]models.RepeatItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.menu_item_id, oi.name, oi.price, oi.quantity,
		       oi.size, oi.size_name, oi.modifier_ids, oi.modifier_names,
		       oi.modifiers_price, oi.comment,
		       COALESCE(m.available, FALSE)
		FROM order_items oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items for repeat: %w", err)
	}
	defer rows.Close()

	var items []models.RepeatItem
	for rows.Next() {
		var it models.RepeatItem
		if err := rows.Scan(&it.MenuItemID, &it.Name, &it.Price, &it.Quantity,
			&it.Size, &it.SizeName, &it.ModifierIDs, &it.ModifierNames,
			&it.ModifiersPrice, &it.Comment, &it.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan repeat item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repo) itemsFor(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT menu_item_id, name, price, quantity,
		       size, size_name, modifier_ids, modifier_names, modifiers_price, comment
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.MenuItemID, &it.Name, &it.Price, &it.Quantity,
			&it.Size, &it.SizeName, &it.ModifierIDs, &it.ModifierNames,
			&it.ModifiersPrice, &it.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repo) collect(ctx context.Context, rows pgx.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.Total,
			&o.PickupTime, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}
