package generator

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
)

// ChangeKind classifies how a planned file differs from the one on disk.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Added
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is the result of comparing one planned write with the disk.
type Change struct {
	Path string
	Kind ChangeKind
	Diff string // unified diff for Modified files, empty otherwise
}

// Compare reports, for every write operation, whether executing it would
// change the file system. Nothing is written.
func Compare(ctx context.Context, ops []*WriteFileOp) ([]Change, error) {
	gen := NewDiffGenerator()
	changes := make([]Change, 0, len(ops))

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		existing, err := os.ReadFile(op.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			changes = append(changes, Change{Path: op.Path, Kind: Added})
			continue
		case err != nil:
			return nil, &OpError{Op: "read", Path: op.Path, Err: err}
		}

		if bytes.Equal(existing, op.Content) {
			changes = append(changes, Change{Path: op.Path, Kind: Unchanged})
			continue
		}

		changes = append(changes, Change{
			Path: op.Path,
			Kind: Modified,
			Diff: gen.Generate(op.Path+" (on disk)", op.Path+" (generated)", existing, op.Content, nil),
		})
	}

	return changes, nil
}

// HasDrift reports whether any change would modify the file system.
func HasDrift(changes []Change) bool {
	for _, c := range changes {
		if c.Kind != Unchanged {
			return true
		}
	}
	return false
}
