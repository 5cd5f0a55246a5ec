package fileops

import (
	"context"

	"github.com/steveyegge/beads/internal/orchestrator/loopengine"
)

// Executor adapts Parse+Execute to loopengine.FileOpsExecutor.
type Executor struct{}

// Execute parses agentOutput for file-operation blocks and applies
// them under workspace, satisfying loopengine.FileOpsExecutor.
func (Executor) Execute(_ context.Context, workspace, agentOutput string) (loopengine.FileOpsResult, error) {
	ops := Parse(agentOutput)
	result := executeReport(Execute(workspace, ops))
	return result, nil
}

func executeReport(r ExecutionResult) loopengine.FileOpsResult {
	return loopengine.FileOpsResult{
		FilesCreated:  r.FilesCreated,
		FilesModified: r.FilesModified,
	}
}
