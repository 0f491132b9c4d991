package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	errs "github.com/scribe-ai/scribe/internal/errors"
)

// Task is one entry in the task index.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Source      string `json:"source,omitempty"` // vault path of the note that owns the task
	Completed   bool   `json:"completed"`
	Due         string `json:"due,omitempty"`
	Created     string `json:"created,omitempty"`
	Start       string `json:"start,omitempty"`
	Scheduled   string `json:"scheduled,omitempty"`
	CompletedOn string `json:"completed_on,omitempty"`
}

// TaskFilter narrows a FetchTasks query. Empty fields mean no constraint.
// Status is "completed", "incomplete", or "" / "all" for unfiltered.
type TaskFilter struct {
	Source      string
	Status      string
	CompletedOn string
	Due         string
	Created     string
	Start       string
	Scheduled   string
}

// AddTask inserts or replaces a task. An empty ID gets a generated one.
func (s *Store) AddTask(ctx context.Context, t Task) (Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tasks (id, title, source, completed, due, created, start, scheduled, completed_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Source, t.Completed, t.Due, t.Created, t.Start, t.Scheduled, t.CompletedOn)
	if err != nil {
		return Task{}, errs.Wrap(err, errs.CodeMemoryStoreFailed, "failed to store task", errs.CategorySystem)
	}
	return t, nil
}

// FetchTasks queries the task index with the given filter, ordered by due
// date then title.
func (s *Store) FetchTasks(ctx context.Context, f TaskFilter) ([]Task, error) {
	var conds []string
	var args []any

	add := func(cond string, val string) {
		if val != "" {
			conds = append(conds, cond)
			args = append(args, val)
		}
	}
	add("source = ?", f.Source)
	add("completed_on = ?", f.CompletedOn)
	add("due = ?", f.Due)
	add("created = ?", f.Created)
	add("start = ?", f.Start)
	add("scheduled = ?", f.Scheduled)

	switch strings.ToLower(f.Status) {
	case "completed":
		conds = append(conds, "completed = 1")
	case "incomplete":
		conds = append(conds, "completed = 0")
	}

	query := `SELECT id, title, source, completed, due, created, start, scheduled, completed_on FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY due, title"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeMemoryRetrieveFailed, "failed to fetch tasks", errs.CategorySystem)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Source, &t.Completed, &t.Due, &t.Created, &t.Start, &t.Scheduled, &t.CompletedOn); err != nil {
			return nil, errs.Wrap(err, errs.CodeMemoryRetrieveFailed, "failed to scan task", errs.CategorySystem)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
