package stats

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// TopItem is one entry of the best-sellers list.
type TopItem struct {
	Name     string
	Quantity int64
}

// Report aggregates one time window of order activity.
type Report struct {
	From time.Time
	To   time.Time

	TotalOrders     int64
	CompletedOrders int64
	CancelledOrders int64
	Revenue         int64
	AverageCheck    int64

	TopItems []TopItem
	// ByHour / ByWeekday are sparse: absent buckets had no orders.
	ByHour    map[int]int64
	ByWeekday map[int]int64
}

// Repo computes reports straight in Postgres; nothing is cached.
type Repo struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

func NewRepo(pool *pgxpool.Pool, log logger.Logger) *Repo {
	return &Repo{pool: pool, log: log}
}

// Daily reports on orders created since local midnight.
func (r *Repo) Daily(ctx context.Context, now time.Time) (Report, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return r.window(ctx, from, now)
}

// Weekly reports on the last seven days.
func (r *Repo) Weekly(ctx context.Context, now time.Time) (Report, error) {
	return r.window(ctx, now.AddDate(0, 0, -7), now)
}

func (r *Repo) window(ctx context.Context, from, to time.Time) (Report, error) {
	report := Report{
		From:      from,
		To:        to,
		ByHour:    map[int]int64{},
		ByWeekday: map[int]int64{},
	}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total) FILTER (WHERE status = 'completed'), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&report.TotalOrders, &report.CompletedOrders, &report.CancelledOrders, &report.Revenue)
	if err != nil {
		return Report{}, err
	}
	if report.CompletedOrders > 0 {
		report.AverageCheck = report.Revenue / report.CompletedOrders
	}

	if err := r.topItems(ctx, &report); err != nil {
		return Report{}, err
	}
	if err := r.distributions(ctx, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (r *Repo) topItems(ctx context.Context, report *Report) error {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.name, SUM(oi.quantity) AS qty
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		  AND o.status <> 'cancelled'
		GROUP BY oi.name
		ORDER BY qty DESC
		LIMIT 3`,
		report.From, report.To,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item TopItem
		if err := rows.Scan(&item.Name, &item.Quantity); err != nil {
			return err
		}
		report.TopItems = append(report.TopItems, item)
	}
	return rows.Err()
}

func (r *Repo) distributions(ctx context.Context, report *Report) error {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(HOUR FROM created_at)::int,
		       EXTRACT(DOW FROM created_at)::int,
		       COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY 1, 2`,
		report.From, report.To,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var hour, weekday int
		var count int64
		if err := rows.Scan(&hour, &weekday, &count); err != nil {
			return err
		}
		report.ByHour[hour] += count
		report.ByWeekday[weekday] += count
	}
	return rows.Err()
}
