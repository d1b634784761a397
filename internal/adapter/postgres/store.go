package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateOrchestration(ctx context.Context, o *orchestration.Orchestration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orchestrations (id, session_id, name, project, original_task, status, total_cost_usd, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.SessionID, o.Name, o.Project, o.OriginalTask, o.Status, o.TotalCostUSD, o.CreatedAt, o.CompletedAt)
	if err != nil {
		return fmt.Errorf("create orchestration %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) UpdateOrchestration(ctx context.Context, o *orchestration.Orchestration) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orchestrations
		 SET session_id = $2, status = $3, total_cost_usd = $4, completed_at = $5
		 WHERE id = $1`,
		o.ID, o.SessionID, o.Status, o.TotalCostUSD, o.CompletedAt)
	if err != nil {
		return fmt.Errorf("update orchestration %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update orchestration %s: %w", o.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListOrchestrations(ctx context.Context, project string) ([]orchestration.Orchestration, error) {
	query := `SELECT id, session_id, name, project, original_task, status, total_cost_usd, created_at, completed_at
		 FROM orchestrations`
	args := []any{}
	if project != "" {
		query += ` WHERE project = $1`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orchestrations: %w", err)
	}
	defer rows.Close()

	var result []orchestration.Orchestration
	for rows.Next() {
		var o orchestration.Orchestration
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Name, &o.Project, &o.OriginalTask, &o.Status, &o.TotalCostUSD, &o.CreatedAt, &o.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan orchestration: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) AppendMessage(ctx context.Context, m *orchestration.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orchestration_messages (orchestration_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		m.OrchestrationID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message for %s: %w", m.OrchestrationID, err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, orchestrationID string) ([]orchestration.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, orchestration_id, role, content, created_at
		 FROM orchestration_messages WHERE orchestration_id = $1 ORDER BY id`,
		orchestrationID)
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", orchestrationID, err)
	}
	defer rows.Close()

	var result []orchestration.Message
	for rows.Next() {
		var m orchestration.Message
		if err := rows.Scan(&m.ID, &m.OrchestrationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *Store) UpsertSubtask(ctx context.Context, st *orchestration.Subtask) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orchestration_subtasks (id, orchestration_id, name, type, status, cost_usd, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (orchestration_id, id) DO UPDATE
		 SET status = EXCLUDED.status, cost_usd = EXCLUDED.cost_usd, completed_at = EXCLUDED.completed_at`,
		st.ID, st.OrchestrationID, st.Name, st.Type, st.Status, st.CostUSD, st.StartedAt, st.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert subtask %s for %s: %w", st.ID, st.OrchestrationID, err)
	}
	return nil
}

func (s *Store) ListSubtasks(ctx context.Context, orchestrationID string) ([]orchestration.Subtask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, orchestration_id, name, type, status, cost_usd, started_at, completed_at
		 FROM orchestration_subtasks WHERE orchestration_id = $1 ORDER BY started_at, id`,
		orchestrationID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks for %s: %w", orchestrationID, err)
	}
	defer rows.Close()

	var result []orchestration.Subtask
	for rows.Next() {
		var st orchestration.Subtask
		if err := rows.Scan(&st.ID, &st.OrchestrationID, &st.Name, &st.Type, &st.Status, &st.CostUSD, &st.StartedAt, &st.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}
