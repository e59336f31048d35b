package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/questdesk/questdesk/internal/lifecycle"
	"github.com/questdesk/questdesk/internal/question"
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

const questionColumns = "question_id, category, status, question_text, response_filepath, created_at, updated_at"

func scanQuestion(row interface{ Scan(...any) error }) (*question.Question, error) {
	var q question.Question
	var text, filepath sql.NullString
	if err := row.Scan(&q.ID, &q.Category, &q.Status, &text, &filepath, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Text = text.String
	q.ResponseFilepath = filepath.String
	return &q, nil
}

func (r *SQLiteRepository) List(ctx context.Context, filter question.ListFilter) ([]*question.Question, error) {
	const selectList = `SELECT q.question_id, q.category, q.status, q.question_text, q.response_filepath, q.created_at, q.updated_at`
	query := selectList + " FROM questions q"
	var conds []string
	var params []any

	if filter.Agent != "" {
		query = selectList + " FROM questions q JOIN agents_working aw ON q.question_id = aw.question_id"
		conds = append(conds, "aw.agent_id = ?")
		params = append(params, filter.Agent)
	}
	if filter.Category != "" {
		conds = append(conds, "q.category = ?")
		params = append(params, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "q.status = ?")
		params = append(params, string(filter.Status))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY q.question_id"

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, cerr.WrapStorageReadError("questions", err)
	}
	defer func() { _ = rows.Close() }()

	var questions []*question.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, cerr.WrapStorageReadError("questions", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("questions", err)
	}
	return questions, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*question.Question, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE question_id = ?", id)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, cerr.WrapStorageReadError("question", err)
	}
	return q, nil
}

func (r *SQLiteRepository) Claim(ctx context.Context, questionID, agentID string) (*question.Claim, error) {
	var claim *question.Claim
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var status lifecycle.Status
		err := tx.QueryRowContext(ctx, "SELECT status FROM questions WHERE question_id = ?", questionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return cerr.NewError(cerr.NotFound, "question not found", nil)
		}
		if err != nil {
			return cerr.WrapStorageReadError("question", err)
		}
		if status != lifecycle.StatusNotStarted {
			return cerr.NewError(cerr.FailedPrecondition,
				fmt.Sprintf("question is already %s and cannot be claimed", status), nil)
		}

		var workingOn string
		err = tx.QueryRowContext(ctx, "SELECT question_id FROM agents_working WHERE agent_id = ?", agentID).Scan(&workingOn)
		if err == nil {
			return cerr.NewError(cerr.AlreadyExists,
				fmt.Sprintf("agent %s is already working on %s", agentID, workingOn), nil)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return cerr.WrapStorageReadError("agents_working", err)
		}

		now := sqlitedb.Now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE questions SET status = ?, updated_at = ? WHERE question_id = ?",
			string(lifecycle.StatusPending), now, questionID); err != nil {
			return cerr.WrapStorageWriteError("question", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO agents_working (agent_id, question_id, started_at) VALUES (?, ?, ?)",
			agentID, questionID, now); err != nil {
			return cerr.WrapStorageWriteError("agents_working", err)
		}
		if err := sqlitedb.Touch(ctx, tx); err != nil {
			return cerr.WrapStorageWriteError("metadata", err)
		}

		claim = &question.Claim{
			QuestionID: questionID,
			AgentID:    agentID,
			Status:     lifecycle.StatusPending,
			StartedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, questionID string, status lifecycle.Status, agentID, notes string) (*question.StatusChange, error) {
	var change *question.StatusChange
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var oldStatus lifecycle.Status
		var category string
		err := tx.QueryRowContext(ctx, "SELECT status, category FROM questions WHERE question_id = ?", questionID).Scan(&oldStatus, &category)
		if errors.Is(err, sql.ErrNoRows) {
			return cerr.NewError(cerr.NotFound, "question not found", nil)
		}
		if err != nil {
			return cerr.WrapStorageReadError("question", err)
		}

		now := sqlitedb.Now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE questions SET status = ?, updated_at = ? WHERE question_id = ?",
			string(status), now, questionID); err != nil {
			return cerr.WrapStorageWriteError("question", err)
		}

		// Completing releases the agent's claim, but only the claim on this
		// question; an agent's unrelated claim stays untouched.
		if status == lifecycle.StatusCompleted && agentID != "" {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM agents_working WHERE agent_id = ? AND question_id = ?",
				agentID, questionID); err != nil {
				return cerr.WrapStorageWriteError("agents_working", err)
			}
		}
		if err := sqlitedb.Touch(ctx, tx); err != nil {
			return cerr.WrapStorageWriteError("metadata", err)
		}

		change = &question.StatusChange{
			QuestionID: questionID,
			Category:   category,
			OldStatus:  oldStatus,
			NewStatus:  status,
			UpdatedBy:  agentID,
			Notes:      notes,
			UpdatedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (r *SQLiteRepository) Populate(ctx context.Context, seeds []seed.Question) (int, error) {
	inserted := 0
	err := sqlitedb.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&count); err != nil {
			return cerr.WrapStorageReadError("questions", err)
		}
		if count > 0 {
			return nil // already populated
		}

		now := sqlitedb.Now()
		for _, s := range seeds {
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO questions
				 (question_id, category, status, question_text, response_filepath, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.ID, seed.Category(s.ID), string(lifecycle.StatusNotStarted), s.Text, s.ResponseFilepath, now, now)
			if err != nil {
				return cerr.WrapStorageWriteError("question", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		if inserted > 0 {
			if err := sqlitedb.Touch(ctx, tx); err != nil {
				return cerr.WrapStorageWriteError("metadata", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *SQLiteRepository) Report(ctx context.Context) (*question.Report, error) {
	report := &question.Report{
		StatusBreakdown: make(map[lifecycle.Status]int, len(lifecycle.Statuses)),
		Categories:      make(map[string]map[lifecycle.Status]int),
		AgentsWorking:   []string{},
		Metadata:        make(map[string]string),
	}
	for _, st := range lifecycle.Statuses {
		report.StatusBreakdown[st] = 0
	}

	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM questions GROUP BY status")
	if err != nil {
		return nil, cerr.WrapStorageReadError("questions", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var st lifecycle.Status
		var count int
		if err := rows.Scan(&st, &count); err != nil {
			return nil, cerr.WrapStorageReadError("questions", err)
		}
		report.StatusBreakdown[st] = count
		report.TotalQuestions += count
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("questions", err)
	}

	catRows, err := r.db.QueryContext(ctx,
		"SELECT category, status, COUNT(*) FROM questions GROUP BY category, status ORDER BY category")
	if err != nil {
		return nil, cerr.WrapStorageReadError("questions", err)
	}
	defer func() { _ = catRows.Close() }()
	for catRows.Next() {
		var cat string
		var st lifecycle.Status
		var count int
		if err := catRows.Scan(&cat, &st, &count); err != nil {
			return nil, cerr.WrapStorageReadError("questions", err)
		}
		if _, ok := report.Categories[cat]; !ok {
			breakdown := make(map[lifecycle.Status]int, len(lifecycle.Statuses))
			for _, s := range lifecycle.Statuses {
				breakdown[s] = 0
			}
			report.Categories[cat] = breakdown
		}
		report.Categories[cat][st] = count
	}
	if err := catRows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("questions", err)
	}

	metaRows, err := r.db.QueryContext(ctx,
		"SELECT key, value FROM metadata WHERE key IN ('created_at', 'last_updated')")
	if err != nil {
		return nil, cerr.WrapStorageReadError("metadata", err)
	}
	defer func() { _ = metaRows.Close() }()
	for metaRows.Next() {
		var key, value string
		if err := metaRows.Scan(&key, &value); err != nil {
			return nil, cerr.WrapStorageReadError("metadata", err)
		}
		report.Metadata[key] = value
	}
	if err := metaRows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("metadata", err)
	}

	agentRows, err := r.db.QueryContext(ctx, "SELECT agent_id FROM agents_working ORDER BY agent_id")
	if err != nil {
		return nil, cerr.WrapStorageReadError("agents_working", err)
	}
	defer func() { _ = agentRows.Close() }()
	for agentRows.Next() {
		var agentID string
		if err := agentRows.Scan(&agentID); err != nil {
			return nil, cerr.WrapStorageReadError("agents_working", err)
		}
		report.AgentsWorking = append(report.AgentsWorking, agentID)
	}
	if err := agentRows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("agents_working", err)
	}

	return report, nil
}
