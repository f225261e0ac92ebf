package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// statusLogRepository reads the append-only status trail. Entries are only
// written inside ComplaintRepository transactions.
type statusLogRepository struct {
	pool *pgxpool.Pool
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertStatusLog(ctx context.Context, q rowQuerier, entry *domain.StatusLogEntry) error {
	const query = `
        INSERT INTO status_logs (complaint_id, sequence, from_status, to_status, comment, actor_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return q.QueryRow(ctx, query,
		entry.ComplaintID,
		entry.Sequence,
		entry.FromStatus,
		entry.ToStatus,
		entry.Comment,
		entry.ActorID,
		entry.Timestamp,
	).Scan(&entry.ID)
}

func (r *statusLogRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusLogEntry, error) {
	const query = `
        SELECT id, complaint_id, sequence, from_status, to_status, comment, actor_id, created_at
        FROM status_logs WHERE complaint_id=$1 ORDER BY sequence ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusLogEntry
	for rows.Next() {
		var entry domain.StatusLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.Sequence,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.Comment,
			&entry.ActorID,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
