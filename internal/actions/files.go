package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arjunsk/max/internal/dispatch"
)

// Files implements file_create, file_delete and file_move. Safety
// classification has already run by the time these execute; handlers
// only deal with mechanics.
type Files struct{}

func (Files) Create(ctx context.Context, params map[string]any) dispatch.Result {
	path, _ := params["path"].(string)
	if path == "" {
		return dispatch.Result{Message: "path parameter is required"}
	}
	content, _ := params["content"].(string)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("failed to create directory: %v", err)}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("failed to create file: %v", err)}
	}
	return dispatch.Result{Success: true, Message: fmt.Sprintf("Created %s", path)}
}

func (Files) Delete(ctx context.Context, params map[string]any) dispatch.Result {
	path, _ := params["path"].(string)
	if path == "" {
		// Sanitization strips root/drive paths down to empty
		// parameters; an empty delete is a neutralized no-op failure.
		return dispatch.Result{Message: "path parameter is required"}
	}

	if err := os.Remove(path); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("failed to delete: %v", err)}
	}
	return dispatch.Result{Success: true, Message: fmt.Sprintf("Deleted %s", path)}
}

func (Files) Move(ctx context.Context, params map[string]any) dispatch.Result {
	source, _ := params["source"].(string)
	destination, _ := params["destination"].(string)
	if source == "" || destination == "" {
		return dispatch.Result{Message: "source and destination parameters are required"}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("failed to create destination directory: %v", err)}
	}
	if err := os.Rename(source, destination); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("failed to move: %v", err)}
	}
	return dispatch.Result{Success: true, Message: fmt.Sprintf("Moved %s to %s", source, destination)}
}
