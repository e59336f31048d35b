package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/questdesk/questdesk/internal/epic"
	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/seed"
	"github.com/questdesk/questdesk/internal/sqlitedb"
	"github.com/questdesk/questdesk/pkg/cerr"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*epic.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT epic_id, title, category, priority, status FROM epics ORDER BY created_at, epic_id")
	if err != nil {
		return nil, cerr.WrapStorageReadError("epics", err)
	}
	defer func() { _ = rows.Close() }()

	var epics []*epic.Summary
	for rows.Next() {
		var e epic.Summary
		if err := rows.Scan(&e.ID, &e.Title, &e.Category, &e.Priority, &e.Status); err != nil {
			return nil, cerr.WrapStorageReadError("epics", err)
		}
		epics = append(epics, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("epics", err)
	}
	return epics, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*epic.Epic, error) {
	var e epic.Epic
	var description, category sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT epic_id, title, description, category, priority, status, estimated_story_points, created_at, updated_at
		 FROM epics WHERE epic_id = ?`, id).
		Scan(&e.ID, &e.Title, &description, &category, &e.Priority, &e.Status, &e.EstimatedStoryPoints, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerr.NewError(cerr.NotFound, "epic not found", nil)
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError("epic", err)
	}
	e.Description = description.String
	e.Category = category.String
	return &e, nil
}

func (r *SQLiteRepository) Tasks(ctx context.Context, epicID string) ([]epic.TaskRef, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT task_id, title, status, priority, assigned_agent
		 FROM project_tasks WHERE epic_id = ? ORDER BY created_at, task_id`, epicID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []epic.TaskRef{}
	for rows.Next() {
		var t epic.TaskRef
		var agent sql.NullString
		if err := rows.Scan(&t.TaskID, &t.Title, &t.Status, &t.Priority, &agent); err != nil {
			return nil, cerr.WrapStorageReadError("tasks", err)
		}
		t.AssignedAgent = agent.String
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status lifecycle.Status) (string, error) {
	var now string
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		now = sqlitedb.Now()
		res, err := tx.ExecContext(ctx,
			"UPDATE epics SET status = ?, updated_at = ? WHERE epic_id = ?",
			string(status), now, id)
		if err != nil {
			return cerr.WrapStorageWriteError("epic", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return cerr.NewError(cerr.NotFound, "epic not found", nil)
		}
		return sqlitedb.Touch(ctx, tx)
	})
	if err != nil {
		return "", err
	}
	return now, nil
}

func (r *SQLiteRepository) PopulateCatalog(ctx context.Context, catalog *seed.Catalog, reset bool) (int, int, error) {
	var epicCount, taskCount int
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		now := sqlitedb.Now()

		for _, e := range catalog.Epics {
			var err error
			if reset {
				// Restore the seed baseline, status included. An upsert
				// rather than replace so rows referenced by project_tasks
				// are updated in place.
				_, err = tx.ExecContext(ctx,
					`INSERT INTO epics
					 (epic_id, title, description, category, priority, status, estimated_story_points, created_at, updated_at)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT (epic_id) DO UPDATE SET
					   title = excluded.title,
					   description = excluded.description,
					   category = excluded.category,
					   priority = excluded.priority,
					   status = excluded.status,
					   estimated_story_points = excluded.estimated_story_points,
					   updated_at = excluded.updated_at`,
					e.ID, e.Title, e.Description, e.Category, string(e.Priority),
					string(lifecycle.StatusNotStarted), e.EstimatedStoryPoints, now, now)
			} else {
				// Refresh catalog fields, keep any in-flight status.
				_, err = tx.ExecContext(ctx,
					`INSERT INTO epics
					 (epic_id, title, description, category, priority, status, estimated_story_points, created_at, updated_at)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT (epic_id) DO UPDATE SET
					   title = excluded.title,
					   description = excluded.description,
					   category = excluded.category,
					   priority = excluded.priority,
					   estimated_story_points = excluded.estimated_story_points,
					   updated_at = excluded.updated_at`,
					e.ID, e.Title, e.Description, e.Category, string(e.Priority),
					string(lifecycle.StatusNotStarted), e.EstimatedStoryPoints, now, now)
			}
			if err != nil {
				return cerr.WrapStorageWriteError("epic", err)
			}
			epicCount++
		}

		for _, t := range catalog.Tasks {
			status := catalog.TaskStatus(t.ID)
			var err error
			if reset {
				// Baseline restore also clears assignment and PR state.
				_, err = tx.ExecContext(ctx,
					`INSERT INTO project_tasks
					 (task_id, epic_id, title, description, deliverables, guidelines, success_criteria,
					  implementation_notes, estimated_hours, priority, status, created_at, updated_at)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT (task_id) DO UPDATE SET
					   epic_id = excluded.epic_id,
					   title = excluded.title,
					   description = excluded.description,
					   deliverables = excluded.deliverables,
					   guidelines = excluded.guidelines,
					   success_criteria = excluded.success_criteria,
					   implementation_notes = excluded.implementation_notes,
					   estimated_hours = excluded.estimated_hours,
					   priority = excluded.priority,
					   status = excluded.status,
					   assigned_agent = NULL,
					   pr_url = NULL,
					   updated_at = excluded.updated_at`,
					t.ID, t.EpicID, t.Title, t.Description, t.Deliverables, t.Guidelines, t.SuccessCriteria,
					t.ImplementationNotes, t.EstimatedHours, string(t.Priority), string(status), now, now)
			} else {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO project_tasks
					 (task_id, epic_id, title, description, deliverables, guidelines, success_criteria,
					  implementation_notes, estimated_hours, priority, status, created_at, updated_at)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT (task_id) DO UPDATE SET
					   epic_id = excluded.epic_id,
					   title = excluded.title,
					   description = excluded.description,
					   deliverables = excluded.deliverables,
					   guidelines = excluded.guidelines,
					   success_criteria = excluded.success_criteria,
					   implementation_notes = excluded.implementation_notes,
					   estimated_hours = excluded.estimated_hours,
					   priority = excluded.priority,
					   updated_at = excluded.updated_at`,
					t.ID, t.EpicID, t.Title, t.Description, t.Deliverables, t.Guidelines, t.SuccessCriteria,
					t.ImplementationNotes, t.EstimatedHours, string(t.Priority), string(status), now, now)
			}
			if err != nil {
				return cerr.WrapStorageWriteError("task", err)
			}
			taskCount++
		}

		return sqlitedb.Touch(ctx, tx)
	})
	if err != nil {
		return 0, 0, err
	}
	return epicCount, taskCount, nil
}
