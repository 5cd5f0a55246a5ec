// Package fileops parses and executes the <write_to_file> and
// <capture_screenshot> blocks an agent emits (C15, §6.3).
package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// Operation is one parsed file-operation block.
type Operation struct {
	Kind     OperationKind
	Path     string // write_to_file
	Content  string // write_to_file
	URL      string // capture_screenshot
	Name     string // capture_screenshot
	Selector string // capture_screenshot, optional
}

// OperationKind distinguishes the two block types §6.3 defines.
type OperationKind int

const (
	OperationWriteFile OperationKind = iota
	OperationCaptureScreenshot
)

var (
	writeFileRe = regexp.MustCompile(`(?s)<write_to_file>\s*<path>(.*?)</path>\s*<content>(.*?)</content>\s*</write_to_file>`)
	screenshotRe = regexp.MustCompile(`(?s)<capture_screenshot>(.*?)</capture_screenshot>`)
	ssURLRe      = regexp.MustCompile(`(?s)<url>(.*?)</url>`)
	ssNameRe     = regexp.MustCompile(`(?s)<name>(.*?)</name>`)
	ssSelectorRe = regexp.MustCompile(`(?s)<selector>(.*?)</selector>`)
)

// blockStartRe finds the next block opener of either kind, left to
// right, so Parse processes blocks in the order they appear and
// tolerates unknown blocks interleaved between them (§6.3, "Unknown
// blocks are ignored").
var blockStartRe = regexp.MustCompile(`<write_to_file>|<capture_screenshot>`)

// Parse extracts every well-formed write_to_file/capture_screenshot
// block from output, left to right. A block whose tags are mismatched
// (missing closing tag) aborts parsing of that block only; parsing
// resumes after searching past the opening tag (§6.3).
func Parse(output string) []Operation {
	var ops []Operation
	remaining := output
	for {
		loc := blockStartRe.FindStringIndex(remaining)
		if loc == nil {
			break
		}
		switch remaining[loc[0]:loc[1]] {
		case "<write_to_file>":
			m := writeFileRe.FindStringSubmatchIndex(remaining[loc[0]:])
			if m == nil || blockStartRe.MatchString(remaining[loc[1]:loc[0]+m[1]]) {
				remaining = remaining[loc[1]:]
				continue
			}
			full := writeFileRe.FindStringSubmatch(remaining[loc[0]:])
			ops = append(ops, Operation{
				Kind:    OperationWriteFile,
				Path:    strings.TrimSpace(full[1]),
				Content: full[2],
			})
			remaining = remaining[loc[0]+m[1]:]
		case "<capture_screenshot>":
			full := screenshotRe.FindStringSubmatch(remaining[loc[0]:])
			if full == nil {
				remaining = remaining[loc[1]:]
				continue
			}
			body := full[1]
			op := Operation{Kind: OperationCaptureScreenshot}
			if u := ssURLRe.FindStringSubmatch(body); u != nil {
				op.URL = strings.TrimSpace(u[1])
			}
			if n := ssNameRe.FindStringSubmatch(body); n != nil {
				op.Name = strings.TrimSpace(n[1])
			}
			if s := ssSelectorRe.FindStringSubmatch(body); s != nil {
				op.Selector = strings.TrimSpace(s[1])
			}
			end := strings.Index(remaining[loc[0]:], "</capture_screenshot>")
			if end < 0 || blockStartRe.MatchString(remaining[loc[1]:loc[0]+end]) {
				remaining = remaining[loc[1]:]
				continue
			}
			ops = append(ops, op)
			remaining = remaining[loc[0]+end+len("</capture_screenshot>"):]
		}
	}
	return ops
}

// protectedNames may never be written to, nor appear as the first
// path component (§4.15).
var protectedNames = map[string]bool{
	".git":           true,
	".env":           true,
	"Cargo.lock":     true,
	".secrets":       true,
	".gitignore":     true,
}

// ValidatePath rejects absolute paths, any ".." component, and paths
// naming or rooted at a protected file.
func ValidatePath(relPath string) error {
	if filepath.IsAbs(relPath) {
		return fmt.Errorf("%w: path %q is absolute", coreerrors.ErrValidation, relPath)
	}
	clean := filepath.ToSlash(filepath.Clean(relPath))
	parts := strings.Split(clean, "/")
	for _, part := range parts {
		if part == ".." {
			return fmt.Errorf("%w: path %q contains a '..' component", coreerrors.ErrValidation, relPath)
		}
	}
	if len(parts) > 0 && protectedNames[parts[0]] {
		return fmt.Errorf("%w: path %q is rooted at a protected name", coreerrors.ErrValidation, relPath)
	}
	if len(parts) > 0 && protectedNames[parts[len(parts)-1]] {
		return fmt.Errorf("%w: path %q names a protected file", coreerrors.ErrValidation, relPath)
	}
	return nil
}

// ExecutionResult reports what Execute did, per §4.15.
type ExecutionResult struct {
	FilesCreated        []string
	FilesModified       []string
	ScreenshotsRequested []string
	Errors               []string
}

// Execute runs every operation in ops sequentially against workspace.
// Writes are byte-exact (no content normalization); existence is
// checked before writing so created and modified files are
// distinguished. Screenshot operations are recorded as requested only
// — capturing them is out of scope for the core (§4.15).
func Execute(workspace string, ops []Operation) ExecutionResult {
	var result ExecutionResult
	for _, op := range ops {
		switch op.Kind {
		case OperationWriteFile:
			if err := ValidatePath(op.Path); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			fullPath := filepath.Join(workspace, op.Path)
			_, statErr := os.Stat(fullPath)
			existed := statErr == nil

			if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("mkdir for %s: %v", op.Path, err))
				continue
			}
			if err := os.WriteFile(fullPath, []byte(op.Content), 0o644); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("write %s: %v", op.Path, err))
				continue
			}
			if existed {
				result.FilesModified = append(result.FilesModified, op.Path)
			} else {
				result.FilesCreated = append(result.FilesCreated, op.Path)
			}

		case OperationCaptureScreenshot:
			result.ScreenshotsRequested = append(result.ScreenshotsRequested, op.Name)
		}
	}
	return result
}
