package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/sqlitedb"
	"github.com/questdesk/questdesk/internal/task"
	"github.com/questdesk/questdesk/pkg/cerr"
)

type SQLiteRepository struct {
	db       *sql.DB
	assigner task.Assigner
}

func NewSQLiteRepository(db *sql.DB, assigner task.Assigner) *SQLiteRepository {
	return &SQLiteRepository{db: db, assigner: assigner}
}

const taskColumns = "task_id, epic_id, title, description, deliverables, guidelines, success_criteria, implementation_notes, estimated_hours, priority, status, assigned_agent, pr_url, created_at, updated_at"

// queueOrder puts high priority first, oldest first within a priority.
const queueOrder = " ORDER BY " + lifecycle.PriorityRankSQL + ", created_at, task_id"

func scanTask(row interface{ Scan(...any) error }) (*task.Task, error) {
	var t task.Task
	var description, deliverables, guidelines, successCriteria, implementationNotes, assignedAgent, prURL sql.NullString
	if err := row.Scan(&t.ID, &t.EpicID, &t.Title, &description, &deliverables, &guidelines,
		&successCriteria, &implementationNotes, &t.EstimatedHours, &t.Priority, &t.Status,
		&assignedAgent, &prURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Deliverables = deliverables.String
	t.Guidelines = guidelines.String
	t.SuccessCriteria = successCriteria.String
	t.ImplementationNotes = implementationNotes.String
	t.AssignedAgent = assignedAgent.String
	t.PRURL = prURL.String
	return &t, nil
}

func (r *SQLiteRepository) List(ctx context.Context, filter task.ListFilter) ([]*task.Summary, error) {
	query := "SELECT task_id, epic_id, title, status, priority, assigned_agent FROM project_tasks"
	var conds []string
	var params []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		params = append(params, string(filter.Status))
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		params = append(params, string(filter.Priority))
	}
	if filter.Agent != "" {
		conds = append(conds, "assigned_agent = ?")
		params = append(params, filter.Agent)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY task_id"

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, cerr.WrapStorageReadError("project_tasks", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Summary
	for rows.Next() {
		var s task.Summary
		var assignedAgent sql.NullString
		if err := rows.Scan(&s.ID, &s.EpicID, &s.Title, &s.Status, &s.Priority, &assignedAgent); err != nil {
			return nil, cerr.WrapStorageReadError("project_tasks", err)
		}
		s.AssignedAgent = assignedAgent.String
		tasks = append(tasks, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("project_tasks", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM project_tasks WHERE task_id = ?", id)
	t, err := scanTask(row)
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ClaimNext(ctx context.Context) (*task.Task, error) {
	var claimed *task.Task
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT "+taskColumns+" FROM project_tasks WHERE status = 'not_started'"+queueOrder+" LIMIT 1")
		t, err := scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			return cerr.NewError(cerr.NotFound, "no available tasks to claim", nil)
		}
		if err != nil {
			return cerr.WrapStorageReadError("project_tasks", err)
		}

		agentID := r.assigner.Assign(t.Title, t.Description, t.EpicID)
		now, err := startTask(ctx, tx, t.ID, agentID)
		if err != nil {
			return err
		}
		t.Status = lifecycle.StatusInProgress
		t.AssignedAgent = agentID
		t.UpdatedAt = now
		claimed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *SQLiteRepository) Checkout(ctx context.Context, agentID string) (*task.Task, error) {
	var claimed *task.Task
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT "+taskColumns+" FROM project_tasks WHERE status = 'not_started'"+queueOrder)
		if err != nil {
			return cerr.WrapStorageReadError("project_tasks", err)
		}
		defer func() { _ = rows.Close() }()

		var available []*task.Task
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return cerr.WrapStorageReadError("project_tasks", err)
			}
			available = append(available, t)
		}
		if err := rows.Err(); err != nil {
			return cerr.WrapStorageReadError("project_tasks", err)
		}
		if len(available) == 0 {
			return cerr.NewError(cerr.NotFound, "no available tasks for this agent", nil)
		}

		// Prefer the first task the scorer would hand to this agent; when it
		// would route everything elsewhere, take the head of the queue.
		chosen := available[0]
		for _, t := range available {
			if r.assigner.Assign(t.Title, t.Description, t.EpicID) == agentID {
				chosen = t
				break
			}
		}

		now, err := startTask(ctx, tx, chosen.ID, agentID)
		if err != nil {
			return err
		}
		chosen.Status = lifecycle.StatusInProgress
		chosen.AssignedAgent = agentID
		chosen.UpdatedAt = now
		claimed = chosen
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// startTask moves a task to in_progress for agentID and opens an assignment
// record, inside the caller's transaction.
func startTask(ctx context.Context, tx *sql.Tx, taskID, agentID string) (string, error) {
	now := sqlitedb.Now()
	if _, err := tx.ExecContext(ctx,
		"UPDATE project_tasks SET status = ?, assigned_agent = ?, updated_at = ? WHERE task_id = ?",
		string(lifecycle.StatusInProgress), agentID, now, taskID); err != nil {
		return "", cerr.WrapStorageWriteError("task", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO task_assignments (assignment_id, task_id, agent_id, assigned_at, started_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), taskID, agentID, now, now); err != nil {
		return "", cerr.WrapStorageWriteError("task_assignments", err)
	}
	if err := sqlitedb.Touch(ctx, tx); err != nil {
		return "", cerr.WrapStorageWriteError("metadata", err)
	}
	return now, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status lifecycle.Status, agentID string) (*task.StatusChange, error) {
	var change *task.StatusChange
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		now := sqlitedb.Now()
		res, err := tx.ExecContext(ctx,
			"UPDATE project_tasks SET status = ?, updated_at = ? WHERE task_id = ?",
			string(status), now, id)
		if err != nil {
			return cerr.WrapStorageWriteError("task", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return cerr.WrapStorageWriteError("task", err)
		}
		if affected == 0 {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}

		if status == lifecycle.StatusCompleted && agentID != "" {
			if err := closeAssignment(ctx, tx, id, agentID, now); err != nil {
				return err
			}
		}
		if err := sqlitedb.Touch(ctx, tx); err != nil {
			return cerr.WrapStorageWriteError("metadata", err)
		}
		change = &task.StatusChange{TaskID: id, Status: status, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (r *SQLiteRepository) Complete(ctx context.Context, id, agentID, prURL string) (*task.CompletionResult, error) {
	var result *task.CompletionResult
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM project_tasks WHERE task_id = ? AND status = ?",
			id, string(lifecycle.StatusInProgress)).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return cerr.NewError(cerr.NotFound, "task not found or not in progress", nil)
		}
		if err != nil {
			return cerr.WrapStorageReadError("task", err)
		}

		now := sqlitedb.Now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE project_tasks SET status = ?, pr_url = ?, updated_at = ? WHERE task_id = ?",
			string(lifecycle.StatusCompleted), prURL, now, id); err != nil {
			return cerr.WrapStorageWriteError("task", err)
		}
		if err := closeAssignment(ctx, tx, id, agentID, now); err != nil {
			return err
		}
		if err := sqlitedb.Touch(ctx, tx); err != nil {
			return cerr.WrapStorageWriteError("metadata", err)
		}
		result = &task.CompletionResult{TaskID: id, Status: lifecycle.StatusCompleted, PRURL: prURL}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// closeAssignment stamps completed_at on the agent's open assignment only,
// leaving earlier closed episodes untouched.
func closeAssignment(ctx context.Context, tx *sql.Tx, taskID, agentID, now string) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE task_assignments SET completed_at = ? WHERE task_id = ? AND agent_id = ? AND completed_at IS NULL",
		now, taskID, agentID); err != nil {
		return cerr.WrapStorageWriteError("task_assignments", err)
	}
	return nil
}

func (r *SQLiteRepository) FindActive(ctx context.Context, agentID string) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM project_tasks WHERE assigned_agent = ? AND status = ? LIMIT 1",
		agentID, string(lifecycle.StatusInProgress))
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerr.NewError(cerr.NotFound, "no active task found for this agent", nil)
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	return t, nil
}

func (r *SQLiteRepository) AssignedTo(ctx context.Context, agentID string) ([]*task.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM project_tasks WHERE assigned_agent = ? ORDER BY task_id", agentID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("project_tasks", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, cerr.WrapStorageReadError("project_tasks", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("project_tasks", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) ActiveByAgent(ctx context.Context) (map[string][]task.ActiveWork, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.assigned_agent, t.task_id, t.title, a.started_at
		FROM project_tasks t
		JOIN task_assignments a ON t.task_id = a.task_id
		WHERE t.status = ? AND a.completed_at IS NULL
		ORDER BY t.task_id`, string(lifecycle.StatusInProgress))
	if err != nil {
		return nil, cerr.WrapStorageReadError("task_assignments", err)
	}
	defer func() { _ = rows.Close() }()

	active := map[string][]task.ActiveWork{}
	for rows.Next() {
		var agentID string
		var w task.ActiveWork
		var startedAt sql.NullString
		if err := rows.Scan(&agentID, &w.TaskID, &w.Title, &startedAt); err != nil {
			return nil, cerr.WrapStorageReadError("task_assignments", err)
		}
		w.StartedAt = startedAt.String
		active[agentID] = append(active[agentID], w)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("task_assignments", err)
	}
	return active, nil
}
