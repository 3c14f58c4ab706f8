// Package generator writes generated file sets to disk.
//
// Files are described as operations, validated up front, then executed in
// order. The same operations can be executed for real, printed as a dry run,
// or compared against what is already on disk:
//
//	ops := []generator.Operation{
//	    &generator.WriteFileOp{Path: "out/obf2mcp.srg", Content: data, Mode: 0644},
//	}
//	err := generator.Execute(ctx, ops, generator.ExecuteOptions{Force: true})
//
// Execution stops at the first failure. Files already written stay on disk;
// there is no rollback.
package generator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Operation is a file system change that can be validated and executed.
//
// Validate must not change the file system. force=true skips the check for
// an existing file. Description is a one-line summary for output.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Description() string
}

// OpError records which path an operation failed on.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WriteFileOp writes Content to Path, creating parent directories as needed.
// Empty content is allowed; nil content is rejected.
type WriteFileOp struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

func (op *WriteFileOp) Validate(ctx context.Context, force bool) error {
	if op.Content == nil {
		return &OpError{Op: "validate", Path: op.Path, Err: fmt.Errorf("content is nil")}
	}

	if !force {
		if _, err := os.Stat(op.Path); err == nil {
			return &OpError{Op: "validate", Path: op.Path, Err: fs.ErrExist}
		}
	}

	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(op.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &OpError{Op: "mkdir", Path: dir, Err: err}
	}

	mode := op.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := os.WriteFile(op.Path, op.Content, mode); err != nil {
		return &OpError{Op: "write", Path: op.Path, Err: err}
	}
	return nil
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Write %s (%d bytes)", op.Path, len(op.Content))
}
