package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/automation"
	"shop-automation/internal/infra"
	"shop-automation/internal/usecase/readmodel"
)

type AdminTaskRepository struct {
	pool *pgxpool.Pool
}

func NewAdminTaskRepository(pool *pgxpool.Pool) *AdminTaskRepository {
	return &AdminTaskRepository{pool: pool}
}

// Insert dedups on the source event so a retried handler files one task.
func (r *AdminTaskRepository) Insert(ctx context.Context, task automation.AdminTask) error {
	const query = `
		INSERT INTO admin_tasks (id, source_event_id, title, description, kind, priority, assigned_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_event_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		uuid.New(), task.SourceEventID, task.Title, task.Description, task.Kind, task.Priority, task.AssignedRole, task.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to insert admin task", err)
	}
	return nil
}

func (r *AdminTaskRepository) List(ctx context.Context, limit int32) ([]*readmodel.AdminTaskRM, error) {
	const query = `
		SELECT id, title, description, kind, priority, assigned_role, created_at
		FROM admin_tasks
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list admin tasks", err)
	}
	defer rows.Close()

	var tasks []*readmodel.AdminTaskRM
	for rows.Next() {
		rm := &readmodel.AdminTaskRM{}
		if err := rows.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Kind, &rm.Priority, &rm.AssignedRole, &rm.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan admin task row", err)
		}
		tasks = append(tasks, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read admin tasks", err)
	}
	return tasks, nil
}
