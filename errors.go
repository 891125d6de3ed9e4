package fatfs

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/layout"
	"github.com/hupe1980/fatfs/internal/namespace"
)

var (
	// ErrInsufficientSize is returned when a region cannot host the minimum layout.
	ErrInsufficientSize = errors.New("insufficient region size")
	// ErrInvalidName is returned for empty, overlong, reserved or ill-formed names.
	ErrInvalidName = errors.New("invalid name")
	// ErrAlreadyExists is returned when a sibling of the same kind has the name.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned when a name does not resolve under the current directory.
	ErrNotFound = errors.New("not found")
	// ErrNoSpace is returned when the entry table or the block pool is exhausted.
	ErrNoSpace = errors.New("no space left")
	// ErrNotEmpty is returned when erasing a directory that has live children.
	ErrNotEmpty = errors.New("directory not empty")
	// ErrNotAFile is returned when a handle's entry is no longer a live file.
	ErrNotAFile = errors.New("not a file")
	// ErrIsDirectory is returned when a file operation names a directory.
	ErrIsDirectory = errors.New("is a directory")
	// ErrInvalidArgument is returned for a bad seek origin or an out of range position.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed is returned when a closed handle is used.
	ErrClosed = errors.New("file already closed")
	// ErrCorrupt is returned when a region holds an inconsistent image.
	ErrCorrupt = errors.New("corrupt arena")
)

// OpError records a failed operation and the name it acted on.
type OpError struct {
	Op   string
	Name string
	Err  error
}

func (e *OpError) Error() string {
	if e.Name == "" {
		return "fatfs: " + e.Op + ": " + e.Err.Error()
	}
	return "fatfs: " + e.Op + " " + e.Name + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// CorruptionError describes the first inconsistency found by Check.
// Block or Entry is -1 when it does not apply.
type CorruptionError struct {
	Block  int32
	Entry  int32
	Reason string
}

func (e *CorruptionError) Error() string {
	switch {
	case e.Entry >= 0 && e.Block >= 0:
		return fmt.Sprintf("corrupt arena: entry %d, block %d: %s", e.Entry, e.Block, e.Reason)
	case e.Entry >= 0:
		return fmt.Sprintf("corrupt arena: entry %d: %s", e.Entry, e.Reason)
	case e.Block >= 0:
		return fmt.Sprintf("corrupt arena: block %d: %s", e.Block, e.Reason)
	default:
		return "corrupt arena: " + e.Reason
	}
}

func (e *CorruptionError) Unwrap() error { return ErrCorrupt }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, layout.ErrInsufficientSize):
		return fmt.Errorf("%w: %w", ErrInsufficientSize, err)
	case errors.Is(err, layout.ErrBadMagic),
		errors.Is(err, layout.ErrUnsupportedVersion),
		errors.Is(err, layout.ErrCorrupt),
		errors.Is(err, namespace.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, namespace.ErrInvalidName):
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	case errors.Is(err, namespace.ErrNoSpace), errors.Is(err, fat.ErrNoSpace):
		return fmt.Errorf("%w: %w", ErrNoSpace, err)
	case errors.Is(err, namespace.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, namespace.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, namespace.ErrNotEmpty):
		return fmt.Errorf("%w: %w", ErrNotEmpty, err)
	}

	return err
}

func isDirectory(err error) error {
	return fmt.Errorf("%w: %w", ErrIsDirectory, err)
}

func opError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Name: name, Err: translateError(err)}
}
