package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/beads/internal/types"
)

func TestValidateIssue(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		issue   types.Issue
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid issue",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Implement feature X",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusInProgress,
				Priority:  1,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: false,
		},
		{
			name: "missing id",
			issue: types.Issue{
				Title:     "Test",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  2,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "id is required",
		},
		{
			name: "missing title",
			issue: types.Issue{
				ID:        "bd-xyz",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  2,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name: "title too long",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     string(make([]byte, 501)),
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  2,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "title must be 500 characters or less",
		},
		{
			name: "invalid priority - negative",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Test",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  -1,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "priority must be between 0 and 4",
		},
		{
			name: "invalid priority - too high",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Test",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  5,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "priority must be between 0 and 4",
		},
		{
			name: "missing type",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Test",
				Status:    types.StatusOpen,
				Priority:  2,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "issue_type is required",
		},
		{
			name: "missing status",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Test",
				IssueType: types.IssueTypeTask,
				Priority:  2,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "status is required",
		},
		{
			name: "missing created_at",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Test",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  2,
				UpdatedAt: now,
			},
			wantErr: true,
			errMsg:  "created_at is required",
		},
		{
			name: "missing updated_at",
			issue: types.Issue{
				ID:        "bd-xyz",
				Title:     "Test",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  2,
				CreatedAt: now,
			},
			wantErr: true,
			errMsg:  "updated_at is required",
		},
		{
			name: "valid with optional fields",
			issue: types.Issue{
				ID:          "bd-abc",
				Title:       "Complete task",
				Description: "Detailed description",
				IssueType:   types.IssueTypeBug,
				Status:      types.StatusDone,
				Priority:    0,
				Assignee:    "agent-47",
				Labels:      []string{"backend", "api"},
				CreatedAt:   now,
				UpdatedAt:   now,
				DueAt:       &now,
				DeferUntil:  &now,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIssue(&tt.issue)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ValidateIssue() expected error containing %q, got nil", tt.errMsg)
					return
				}
				if tt.errMsg != "" && len(err.Error()) >= len(tt.errMsg) && err.Error()[:len(tt.errMsg)] != tt.errMsg {
					t.Errorf("ValidateIssue() error = %v, want error containing %v", err, tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("ValidateIssue() unexpected error: %v", err)
			}
		})
	}
}

func TestTaskFilename(t *testing.T) {
	if got, want := TaskFilename("bd-xyz"), "bd-xyz.json"; got != want {
		t.Errorf("TaskFilename() = %v, want %v", got, want)
	}
}

func TestPrepareIssue(t *testing.T) {
	issue := &types.Issue{
		ID:    "bd-test",
		Title: "Test task",
	}

	PrepareIssue(issue)

	if issue.Status != types.StatusOpen {
		t.Errorf("PrepareIssue() status = %v, want %v", issue.Status, types.StatusOpen)
	}
	if issue.IssueType != types.IssueTypeTask {
		t.Errorf("PrepareIssue() type = %v, want %v", issue.IssueType, types.IssueTypeTask)
	}
	if issue.Labels == nil {
		t.Errorf("PrepareIssue() labels is nil, want empty slice")
	}
	if issue.CreatedAt.IsZero() {
		t.Errorf("PrepareIssue() created_at is zero, want current time")
	}
	if issue.UpdatedAt.IsZero() {
		t.Errorf("PrepareIssue() updated_at is zero, want current time")
	}
}

func TestPrepareIssue_RefreshesUpdatedAt(t *testing.T) {
	issue := &types.Issue{
		ID:        "bd-test",
		Title:     "Test",
		UpdatedAt: time.Now().Add(-1 * time.Hour),
	}

	before := issue.UpdatedAt
	time.Sleep(10 * time.Millisecond)
	PrepareIssue(issue)

	if !issue.UpdatedAt.After(before) {
		t.Errorf("PrepareIssue() did not refresh updated_at: before=%v, after=%v", before, issue.UpdatedAt)
	}
}

func TestWriteTaskFile(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")

	now := time.Now()
	issue := &types.Issue{
		ID:          "bd-test",
		Title:       "Test task",
		Description: "Test description",
		IssueType:   types.IssueTypeTask,
		Status:      types.StatusOpen,
		Priority:    2,
		Assignee:    "agent-1",
		Labels:      []string{"test"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := WriteTaskFile(tasksDir, issue); err != nil {
		t.Fatalf("WriteTaskFile() error = %v", err)
	}

	expectedPath := filepath.Join(tasksDir, "bd-test.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("WriteTaskFile() did not create file at %s", expectedPath)
	}

	data, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read created file: %v", err)
	}

	var parsed types.Issue
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Errorf("WriteTaskFile() created invalid JSON: %v", err)
	}

	if parsed.ID != issue.ID {
		t.Errorf("Written file ID = %v, want %v", parsed.ID, issue.ID)
	}
	if parsed.Title != issue.Title {
		t.Errorf("Written file Title = %v, want %v", parsed.Title, issue.Title)
	}
}

func TestWriteTaskFile_InvalidIssue(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")

	issue := &types.Issue{
		ID: "bd-test",
		// Missing Title
	}

	if err := WriteTaskFile(tasksDir, issue); err == nil {
		t.Error("WriteTaskFile() expected error for invalid issue, got nil")
	}
}

func TestReadTaskFile(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	now := time.Now()
	expected := &types.Issue{
		ID:          "bd-read",
		Title:       "Read test",
		Description: "Testing read",
		IssueType:   types.IssueTypeTask,
		Status:      types.StatusOpen,
		Priority:    2,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := WriteTaskFile(tasksDir, expected); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	path := filepath.Join(tasksDir, TaskFilename(expected.ID))
	issue, err := ReadTaskFile(path)
	if err != nil {
		t.Fatalf("ReadTaskFile() error = %v", err)
	}

	if issue.ID != expected.ID {
		t.Errorf("ReadTaskFile() ID = %v, want %v", issue.ID, expected.ID)
	}
	if issue.Title != expected.Title {
		t.Errorf("ReadTaskFile() Title = %v, want %v", issue.Title, expected.Title)
	}
}

func TestReadTaskFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	invalidPath := filepath.Join(tasksDir, "invalid.json")
	if err := os.WriteFile(invalidPath, []byte("{invalid json"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if _, err := ReadTaskFile(invalidPath); err == nil {
		t.Errorf("ReadTaskFile() expected error for invalid JSON, got nil")
	}
}

func TestReadAllTaskFiles(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	now := time.Now()
	issues := []*types.Issue{
		{ID: "bd-1", Title: "Task 1", IssueType: types.IssueTypeTask, Status: types.StatusOpen, Priority: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "bd-2", Title: "Task 2", IssueType: types.IssueTypeBug, Status: types.StatusInProgress, Priority: 0, CreatedAt: now, UpdatedAt: now},
		{ID: "bd-3", Title: "Task 3", IssueType: types.IssueTypeFeature, Status: types.StatusDone, Priority: 2, CreatedAt: now, UpdatedAt: now},
	}

	for _, issue := range issues {
		if err := WriteTaskFile(tasksDir, issue); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	readIssues, err := ReadAllTaskFiles(tasksDir)
	if err != nil {
		t.Fatalf("ReadAllTaskFiles() error = %v", err)
	}

	if len(readIssues) != len(issues) {
		t.Errorf("ReadAllTaskFiles() returned %d issues, want %d", len(readIssues), len(issues))
	}

	idMap := make(map[string]bool)
	for _, issue := range readIssues {
		idMap[issue.ID] = true
	}
	for _, expected := range issues {
		if !idMap[expected.ID] {
			t.Errorf("ReadAllTaskFiles() missing issue %s", expected.ID)
		}
	}
}

func TestReadAllTaskFiles_SkipsInvalidFiles(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	now := time.Now()
	valid := &types.Issue{ID: "bd-ok", Title: "OK", IssueType: types.IssueTypeTask, Status: types.StatusOpen, Priority: 1, CreatedAt: now, UpdatedAt: now}
	if err := WriteTaskFile(tasksDir, valid); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tasksDir, "broken.json"), []byte("not json"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	issues, err := ReadAllTaskFiles(tasksDir)
	if err != nil {
		t.Fatalf("ReadAllTaskFiles() error = %v", err)
	}
	if len(issues) != 1 {
		t.Errorf("ReadAllTaskFiles() returned %d issues, want 1 (invalid file skipped)", len(issues))
	}
}

func TestReadAllTaskFiles_EmptyDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	issues, err := ReadAllTaskFiles(tasksDir)
	if err != nil {
		t.Errorf("ReadAllTaskFiles() error = %v, want nil for empty directory", err)
	}
	if len(issues) != 0 {
		t.Errorf("ReadAllTaskFiles() returned %d issues, want 0 for empty directory", len(issues))
	}
}

func TestReadAllTaskFiles_NonexistentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	tasksDir := filepath.Join(tmpDir, "nonexistent")

	issues, err := ReadAllTaskFiles(tasksDir)
	if err != nil {
		t.Errorf("ReadAllTaskFiles() error = %v, want nil for nonexistent directory", err)
	}
	if len(issues) != 0 {
		t.Errorf("ReadAllTaskFiles() returned %d issues, want 0 for nonexistent directory", len(issues))
	}
}

func TestTaskFileJSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	dueAt := now.Add(24 * time.Hour)

	original := &types.Issue{
		ID:          "bd-roundtrip",
		Title:       "Roundtrip test",
		Description: "Testing JSON round-trip",
		IssueType:   types.IssueTypeTask,
		Status:      types.StatusInProgress,
		Priority:    1,
		Assignee:    "agent-99",
		Labels:      []string{"test", "roundtrip"},
		CreatedAt:   now,
		UpdatedAt:   now,
		DueAt:       &dueAt,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var parsed types.Issue
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if parsed.ID != original.ID {
		t.Errorf("Round-trip ID = %v, want %v", parsed.ID, original.ID)
	}
	if parsed.Title != original.Title {
		t.Errorf("Round-trip Title = %v, want %v", parsed.Title, original.Title)
	}
	if parsed.Description != original.Description {
		t.Errorf("Round-trip Description = %v, want %v", parsed.Description, original.Description)
	}
	if parsed.IssueType != original.IssueType {
		t.Errorf("Round-trip IssueType = %v, want %v", parsed.IssueType, original.IssueType)
	}
	if parsed.Status != original.Status {
		t.Errorf("Round-trip Status = %v, want %v", parsed.Status, original.Status)
	}
	if parsed.Priority != original.Priority {
		t.Errorf("Round-trip Priority = %v, want %v", parsed.Priority, original.Priority)
	}
	if parsed.Assignee != original.Assignee {
		t.Errorf("Round-trip Assignee = %v, want %v", parsed.Assignee, original.Assignee)
	}
	if len(parsed.Labels) != len(original.Labels) {
		t.Errorf("Round-trip Labels length = %v, want %v", len(parsed.Labels), len(original.Labels))
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("Round-trip CreatedAt = %v, want %v", parsed.CreatedAt, original.CreatedAt)
	}
	if !parsed.UpdatedAt.Equal(original.UpdatedAt) {
		t.Errorf("Round-trip UpdatedAt = %v, want %v", parsed.UpdatedAt, original.UpdatedAt)
	}
	if parsed.DueAt == nil || !parsed.DueAt.Equal(*original.DueAt) {
		t.Errorf("Round-trip DueAt = %v, want %v", parsed.DueAt, original.DueAt)
	}
}
