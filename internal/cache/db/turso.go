// Package db provides the embedded SQLite query cache for beads' jj-native
// storage model.
//
// Issues and dependency edges live as JSON files in the jj working copy
// (tasks/*.json, deps/*.json); this package mirrors them into a local
// SQLite database so the CLI can query "what's ready to
// work on" without walking the filesystem or re-parsing every file on
// every call.
//
// The database runs in EMBEDDED/SELF-HOSTED mode (NOT cloud Turso) using
// the ncruces/go-sqlite3 driver and WAL for concurrency support.
//
// Architecture:
//   - Database file: .beads/turso.db
//   - WAL mode: concurrent readers during writes
//   - Schema: issues, deps, blocked_cache tables
//   - Indexes: optimized for ready-work queries (status, priority, defer_until)
//
// Workflow:
//  1. Agents modify task files in tasks/*.json (jj working copy)
//  2. Sync daemon watches tasks/ and deps/ for file changes
//  3. Changes are synced into this cache
//  4. CLI queries the cache for ready work, not the filesystem
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/beads/internal/types"
)

// DB wraps the SQLite database connection backing the query cache.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection at the specified path using the
// embedded SQLite driver.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the database doesn't exist, it will be created; InitSchema must
// still be called to create the tables.
//
// The caller MUST call Close() when done to ensure proper cleanup.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{
		conn: conn,
		path: path,
	}

	if _, err := database.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := database.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := database.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return database, nil
}

// RawDB returns the underlying sql.DB connection, for callers that need
// to integrate with other libraries expecting *sql.DB directly.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection after checkpointing the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't already exist.
// Idempotent: safe to call on every process start.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS issues (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		priority INTEGER NOT NULL DEFAULT 2,
		assignee TEXT,
		orchestrator TEXT,
		description TEXT,
		labels TEXT,  -- JSON array
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		due_at TEXT,
		defer_until TEXT,

		-- computed by RefreshBlockedCache for fast ready-work queries
		is_blocked INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS deps (
		depends_on_id TEXT NOT NULL,
		issue_id TEXT NOT NULL,
		type TEXT NOT NULL,  -- blocks, relates_to, parent_of, discovered_from
		created_at TEXT NOT NULL,
		PRIMARY KEY (depends_on_id, issue_id, type),
		FOREIGN KEY (depends_on_id) REFERENCES issues(id) ON DELETE CASCADE,
		FOREIGN KEY (issue_id) REFERENCES issues(id) ON DELETE CASCADE
	);

	-- materialized view for ready-work queries
	CREATE TABLE IF NOT EXISTS blocked_cache (
		issue_id TEXT PRIMARY KEY,
		blocked_by TEXT,  -- JSON array of blocking issue IDs
		computed_at TEXT NOT NULL,
		FOREIGN KEY (issue_id) REFERENCES issues(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
	CREATE INDEX IF NOT EXISTS idx_issues_priority ON issues(priority);
	CREATE INDEX IF NOT EXISTS idx_issues_assignee ON issues(assignee);
	CREATE INDEX IF NOT EXISTS idx_issues_defer ON issues(defer_until);
	CREATE INDEX IF NOT EXISTS idx_issues_blocked ON issues(is_blocked);
	CREATE INDEX IF NOT EXISTS idx_issues_type ON issues(issue_type);

	CREATE INDEX IF NOT EXISTS idx_issues_ready_work
	    ON issues(status, is_blocked, defer_until, priority);

	CREATE INDEX IF NOT EXISTS idx_deps_issue ON deps(issue_id);
	CREATE INDEX IF NOT EXISTS idx_deps_depends_on ON deps(depends_on_id);
	CREATE INDEX IF NOT EXISTS idx_deps_type ON deps(type);
	CREATE INDEX IF NOT EXISTS idx_deps_blocks
	    ON deps(type, depends_on_id) WHERE type = 'blocks';
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	return nil
}

// UpsertTask inserts or updates an issue's cached row.
func (db *DB) UpsertTask(issue *types.Issue) error {
	return db.UpsertTaskContext(context.Background(), issue)
}

// UpsertTaskContext inserts or updates an issue's cached row with context support.
func (db *DB) UpsertTaskContext(ctx context.Context, issue *types.Issue) error {
	if err := schemaValidate(issue); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	labelsJSON, err := json.Marshal(issue.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	query := `
	INSERT INTO issues (
		id, title, description, issue_type, status, priority,
		assignee, orchestrator, labels, created_at, updated_at,
		due_at, defer_until, is_blocked
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		issue_type = excluded.issue_type,
		status = excluded.status,
		priority = excluded.priority,
		assignee = excluded.assignee,
		orchestrator = excluded.orchestrator,
		labels = excluded.labels,
		updated_at = excluded.updated_at,
		due_at = excluded.due_at,
		defer_until = excluded.defer_until
	`

	_, err = db.conn.ExecContext(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		string(issue.IssueType),
		string(issue.Status),
		issue.Priority,
		issue.Assignee,
		issue.Orchestrator,
		string(labelsJSON),
		issue.CreatedAt.Format(time.RFC3339),
		issue.UpdatedAt.Format(time.RFC3339),
		timeToNullString(issue.DueAt),
		timeToNullString(issue.DeferUntil),
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}

	return nil
}

// schemaValidate re-exercises the sync-file validation rules for a row
// about to be cached, so a malformed issue never reaches SQL.
func schemaValidate(issue *types.Issue) error {
	if issue.ID == "" {
		return fmt.Errorf("id is required")
	}
	if issue.Title == "" {
		return fmt.Errorf("title is required")
	}
	if issue.Priority < 0 || issue.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", issue.Priority)
	}
	return nil
}

// DeleteTask removes an issue's cached row. This cascades to remove its
// dependency edges and blocked-cache entry. Returns nil if the row
// doesn't exist (idempotent).
func (db *DB) DeleteTask(issueID string) error {
	return db.DeleteTaskContext(context.Background(), issueID)
}

// DeleteTaskContext removes an issue's cached row with context support.
func (db *DB) DeleteTaskContext(ctx context.Context, issueID string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, issueID)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", issueID, err)
	}
	return nil
}

// UpsertDep inserts or updates a dependency edge's cached row.
func (db *DB) UpsertDep(dep *types.Dependency) error {
	return db.UpsertDepContext(context.Background(), dep)
}

// UpsertDepContext inserts or updates a dependency edge with context support.
func (db *DB) UpsertDepContext(ctx context.Context, dep *types.Dependency) error {
	if dep.DependsOnID == "" || dep.IssueID == "" || dep.Type == "" {
		return fmt.Errorf("invalid dependency: depends_on_id, issue_id and type are required")
	}

	query := `
	INSERT INTO deps (depends_on_id, issue_id, type, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(depends_on_id, issue_id, type) DO UPDATE SET
		created_at = excluded.created_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		dep.DependsOnID,
		dep.IssueID,
		string(dep.Type),
		dep.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert dependency %s--%s--%s: %w", dep.DependsOnID, dep.Type, dep.IssueID, err)
	}

	return nil
}

// DeleteDep removes a dependency edge's cached row. Returns nil if the
// row doesn't exist (idempotent).
func (db *DB) DeleteDep(dependsOnID, issueID, depType string) error {
	return db.DeleteDepContext(context.Background(), dependsOnID, issueID, depType)
}

// DeleteDepContext removes a dependency edge with context support.
func (db *DB) DeleteDepContext(ctx context.Context, dependsOnID, issueID, depType string) error {
	query := `DELETE FROM deps WHERE depends_on_id = ? AND issue_id = ? AND type = ?`
	_, err := db.conn.ExecContext(ctx, query, dependsOnID, issueID, depType)
	if err != nil {
		return fmt.Errorf("delete dependency %s--%s--%s: %w", dependsOnID, depType, issueID, err)
	}
	return nil
}

// RefreshBlockedCache recomputes the blocked status for every issue: a
// transitive closure over "blocks" dependencies from still-open blockers.
func (db *DB) RefreshBlockedCache() error {
	return db.RefreshBlockedCacheContext(context.Background())
}

// RefreshBlockedCacheContext recomputes the blocked status with context support.
func (db *DB) RefreshBlockedCacheContext(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM blocked_cache"); err != nil {
		return fmt.Errorf("clear blocked cache: %w", err)
	}

	query := `
	WITH RECURSIVE blocked AS (
		SELECT issue_id, depends_on_id as blocker
		FROM deps
		WHERE type = 'blocks'
		  AND depends_on_id IN (SELECT id FROM issues WHERE status NOT IN ('done', 'abandoned'))

		UNION

		SELECT b.issue_id, d.depends_on_id
		FROM blocked b
		JOIN deps d ON d.issue_id = b.blocker
		WHERE d.type = 'blocks'
		  AND d.depends_on_id IN (SELECT id FROM issues WHERE status NOT IN ('done', 'abandoned'))
	)
	INSERT INTO blocked_cache (issue_id, blocked_by, computed_at)
	SELECT
		issue_id,
		json_group_array(blocker) as blocked_by,
		datetime('now') as computed_at
	FROM blocked
	GROUP BY issue_id
	`

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("compute blocked cache: %w", err)
	}

	updateQuery := `
	UPDATE issues SET is_blocked =
		CASE
			WHEN id IN (SELECT issue_id FROM blocked_cache) THEN 1
			ELSE 0
		END
	`

	if _, err := tx.ExecContext(ctx, updateQuery); err != nil {
		return fmt.Errorf("update is_blocked flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetTaskCount returns the total number of cached issues.
func (db *DB) GetTaskCount() (int, error) {
	return db.GetTaskCountContext(context.Background())
}

// GetTaskCountContext returns the total number of cached issues with context support.
func (db *DB) GetTaskCountContext(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM issues").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get task count: %w", err)
	}
	return count, nil
}

// GetDepCount returns the total number of cached dependency edges.
func (db *DB) GetDepCount() (int, error) {
	return db.GetDepCountContext(context.Background())
}

// GetDepCountContext returns the total number of cached dependency edges with context support.
func (db *DB) GetDepCountContext(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM deps").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get dep count: %w", err)
	}
	return count, nil
}

// ReadyTasksOptions configures the GetReadyTasks query.
type ReadyTasksOptions struct {
	// IncludeDeferred includes issues that are deferred but otherwise ready.
	IncludeDeferred bool
	// Limit restricts the number of results (0 = no limit).
	Limit int
	// AssignedAgent filters to issues assigned to a specific agent (empty = all).
	AssignedAgent string
}

// GetReadyTasks finds issues that are ready to work on. An issue is
// ready when:
//   - status = 'open'
//   - is_blocked = 0 (no open blocking dependency)
//   - defer_until IS NULL OR defer_until <= now (unless IncludeDeferred)
//
// Results are ordered by priority ascending (P0 first), then created_at ascending.
func (db *DB) GetReadyTasks(ctx context.Context, opts ReadyTasksOptions) ([]*types.Issue, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "status = ?")
	args = append(args, string(types.StatusOpen))

	conditions = append(conditions, "is_blocked = 0")

	if !opts.IncludeDeferred {
		conditions = append(conditions, "(defer_until IS NULL OR defer_until <= ?)")
		args = append(args, time.Now().Format(time.RFC3339))
	}

	if opts.AssignedAgent != "" {
		conditions = append(conditions, "assignee = ?")
		args = append(args, opts.AssignedAgent)
	}

	query := `
		SELECT id, title, description, issue_type, status, priority,
		       assignee, orchestrator, labels, created_at, updated_at,
		       due_at, defer_until
		FROM issues
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY priority ASC, created_at ASC
	`

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ready tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// scanTasks scans every row of an issues query into types.Issue.
func scanTasks(rows *sql.Rows) ([]*types.Issue, error) {
	var issues []*types.Issue

	for rows.Next() {
		issue, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return issues, nil
}

// rowScanner is satisfied by both *sql.Rows and *sql.Row, letting
// scanTaskRow read from either.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskRow(r rowScanner) (*types.Issue, error) {
	var issue types.Issue
	var issueType, status string
	var labelsJSON string
	var createdAt, updatedAt string
	var dueAt, deferUntil sql.NullString

	err := r.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issueType,
		&status,
		&issue.Priority,
		&issue.Assignee,
		&issue.Orchestrator,
		&labelsJSON,
		&createdAt,
		&updatedAt,
		&dueAt,
		&deferUntil,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	issue.IssueType = types.IssueType(issueType)
	issue.Status = types.Status(status)

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		issue.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		issue.UpdatedAt = t
	}

	if labelsJSON != "" && labelsJSON != "null" {
		if err := json.Unmarshal([]byte(labelsJSON), &issue.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}
	} else {
		issue.Labels = []string{}
	}

	issue.DueAt = nullStringToTime(dueAt)
	issue.DeferUntil = nullStringToTime(deferUntil)

	return &issue, nil
}

// timeToNullString converts a time pointer to a nullable string for SQL.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// nullStringToTime converts a nullable SQL string to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// GetBlockingTasks returns every issue blocking the given issue,
// transitively: not just its direct "blocks" dependencies, but the
// blockers of those blockers too.
func (db *DB) GetBlockingTasks(issueID string) ([]*types.Issue, error) {
	return db.GetBlockingTasksContext(context.Background(), issueID)
}

// GetBlockingTasksContext returns blocking issues with context support.
func (db *DB) GetBlockingTasksContext(ctx context.Context, issueID string) ([]*types.Issue, error) {
	query := `
	WITH RECURSIVE blocking AS (
		SELECT depends_on_id as blocker_id
		FROM deps
		WHERE issue_id = ? AND type = 'blocks'

		UNION

		SELECT d.depends_on_id
		FROM deps d
		JOIN blocking b ON d.issue_id = b.blocker_id
		WHERE d.type = 'blocks'
	)
	SELECT DISTINCT t.id, t.title, t.description, t.issue_type, t.status, t.priority,
	       t.assignee, t.orchestrator, t.labels, t.created_at, t.updated_at,
	       t.due_at, t.defer_until
	FROM issues t
	JOIN blocking b ON t.id = b.blocker_id
	WHERE t.status NOT IN ('done', 'abandoned')
	ORDER BY t.priority ASC, t.created_at ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("query blocking tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTaskByID retrieves a single cached issue. Returns sql.ErrNoRows if
// the issue is not found.
func (db *DB) GetTaskByID(id string) (*types.Issue, error) {
	return db.GetTaskByIDContext(context.Background(), id)
}

// GetTaskByIDContext retrieves a single cached issue with context support.
func (db *DB) GetTaskByIDContext(ctx context.Context, id string) (*types.Issue, error) {
	query := `
	SELECT id, title, description, issue_type, status, priority,
	       assignee, orchestrator, labels, created_at, updated_at,
	       due_at, defer_until
	FROM issues
	WHERE id = ?
	`

	row := db.conn.QueryRowContext(ctx, query, id)
	return scanTaskRow(row)
}

// ListTasksFilter configures the ListTasks query.
type ListTasksFilter struct {
	// Status filters by issue status (empty = all statuses).
	Status string
	// Type filters by issue type (empty = all types).
	Type string
	// Priority filters by exact priority (-1 = all priorities).
	Priority int
	// AssignedAgent filters by assignee (empty = all agents).
	AssignedAgent string
	// Tag filters by label (empty = all labels).
	Tag string
	// Limit restricts the number of results (0 = no limit).
	Limit int
	// Offset skips the first N results (for pagination).
	Offset int
}

// ListTasks retrieves issues matching the given filters, ordered by
// priority ascending then created_at ascending.
func (db *DB) ListTasks(filter ListTasksFilter) ([]*types.Issue, error) {
	return db.ListTasksContext(context.Background(), filter)
}

// ListTasksContext retrieves issues matching the given filters with context support.
func (db *DB) ListTasksContext(ctx context.Context, filter ListTasksFilter) ([]*types.Issue, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, filter.Status)
	}

	if filter.Type != "" {
		conditions = append(conditions, "t.issue_type = ?")
		args = append(args, filter.Type)
	}

	if filter.Priority >= 0 {
		conditions = append(conditions, "t.priority = ?")
		args = append(args, filter.Priority)
	}

	if filter.AssignedAgent != "" {
		conditions = append(conditions, "t.assignee = ?")
		args = append(args, filter.AssignedAgent)
	}

	selectClause := "SELECT"
	if filter.Tag != "" {
		selectClause += " DISTINCT"
	}

	query := selectClause + ` t.id, t.title, t.description, t.issue_type, t.status, t.priority,
	       t.assignee, t.orchestrator, t.labels, t.created_at, t.updated_at,
	       t.due_at, t.defer_until
	FROM issues t
	`

	if filter.Tag != "" {
		query += `, json_each(t.labels)`
		conditions = append(conditions, "json_each.value = ?")
		args = append(args, filter.Tag)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY t.priority ASC, t.created_at ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetDepsForTask returns every dependency edge touching issueID, in
// either direction: edges where it depends on something, and edges
// where something depends on it.
func (db *DB) GetDepsForTask(issueID string) ([]*types.Dependency, error) {
	return db.GetDepsForTaskContext(context.Background(), issueID)
}

// GetDepsForTaskContext returns dependency edges with context support.
func (db *DB) GetDepsForTaskContext(ctx context.Context, issueID string) ([]*types.Dependency, error) {
	query := `
	SELECT depends_on_id, issue_id, type, created_at
	FROM deps
	WHERE depends_on_id = ? OR issue_id = ?
	ORDER BY created_at ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, issueID, issueID)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var deps []*types.Dependency
	for rows.Next() {
		var dep types.Dependency
		var depType string
		var createdAtStr string

		if err := rows.Scan(&dep.DependsOnID, &dep.IssueID, &depType, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		dep.Type = types.DependencyType(depType)

		createdAt, err := time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		dep.CreatedAt = createdAt

		deps = append(deps, &dep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}

	return deps, nil
}
