package debug

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dshills/nodedebug/internal/debug/dap"
	"github.com/dshills/nodedebug/internal/logging"
)

// SkipFileTarget identifies a source either by path or by the adapter's
// sourceReference. The zero value identifies nothing.
type SkipFileTarget struct {
	Path            string
	SourceReference int
}

// PathTarget returns a target identified by path.
func PathTarget(path string) SkipFileTarget {
	return SkipFileTarget{Path: path}
}

// SourceReferenceTarget returns a target identified by source reference.
func SourceReferenceTarget(ref int) SkipFileTarget {
	return SkipFileTarget{SourceReference: ref}
}

// IsZero reports whether the target identifies nothing.
func (t SkipFileTarget) IsZero() bool {
	return t.Path == "" && t.SourceReference == 0
}

// String returns the path or the source reference.
func (t SkipFileTarget) String() string {
	if t.Path != "" {
		return t.Path
	}
	if t.SourceReference != 0 {
		return fmt.Sprintf("sourceReference:%d", t.SourceReference)
	}
	return "<none>"
}

// Arguments returns the toggleSkipFileStatus payload for the target.
func (t SkipFileTarget) Arguments() dap.ToggleSkipFileStatusArguments {
	if t.Path != "" {
		return dap.ToggleSkipFileStatusArguments{Path: t.Path}
	}
	return dap.ToggleSkipFileStatusArguments{SourceReference: t.SourceReference}
}

// ErrInvalidTarget is returned for a supplied argument that cannot identify
// a source: an unsupported type, a fractional number or a number outside the
// int32 range of DAP source references.
var ErrInvalidTarget = errors.New("invalid skip-file target")

// ParseSkipFileTarget converts a command argument into a target. Strings are
// paths and numbers are source references. nil, "", zero and NaN mean no
// argument was supplied and yield the zero target, which Toggle replaces
// with the active file. Anything else that is unusable fails with
// ErrInvalidTarget.
func ParseSkipFileTarget(arg any) (SkipFileTarget, error) {
	switch v := arg.(type) {
	case nil:
		return SkipFileTarget{}, nil
	case SkipFileTarget:
		return v, nil
	case string:
		return PathTarget(v), nil
	case int:
		return referenceTarget(int64(v))
	case int8:
		return referenceTarget(int64(v))
	case int16:
		return referenceTarget(int64(v))
	case int32:
		return referenceTarget(int64(v))
	case int64:
		return referenceTarget(v)
	case uint:
		return unsignedReferenceTarget(uint64(v))
	case uint8:
		return unsignedReferenceTarget(uint64(v))
	case uint16:
		return unsignedReferenceTarget(uint64(v))
	case uint32:
		return unsignedReferenceTarget(uint64(v))
	case uint64:
		return unsignedReferenceTarget(v)
	case float32:
		return floatReferenceTarget(float64(v))
	case float64:
		return floatReferenceTarget(v)
	}
	return SkipFileTarget{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTarget, arg)
}

func referenceTarget(v int64) (SkipFileTarget, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return SkipFileTarget{}, fmt.Errorf("%w: sourceReference %d out of range", ErrInvalidTarget, v)
	}
	return SourceReferenceTarget(int(v)), nil
}

func unsignedReferenceTarget(v uint64) (SkipFileTarget, error) {
	if v > math.MaxInt32 {
		return SkipFileTarget{}, fmt.Errorf("%w: sourceReference %d out of range", ErrInvalidTarget, v)
	}
	return SourceReferenceTarget(int(v)), nil
}

func floatReferenceTarget(v float64) (SkipFileTarget, error) {
	if math.IsNaN(v) {
		return SkipFileTarget{}, nil
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return SkipFileTarget{}, fmt.Errorf("%w: sourceReference %v is not an integer", ErrInvalidTarget, v)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return SkipFileTarget{}, fmt.Errorf("%w: sourceReference %v out of range", ErrInvalidTarget, v)
	}
	return SourceReferenceTarget(int(v)), nil
}

// SkipFileToggler forwards skip-file toggles to the active debug session.
type SkipFileToggler struct {
	logger *logging.Logger
}

// NewSkipFileToggler creates a toggler.
func NewSkipFileToggler(logger *logging.Logger) *SkipFileToggler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SkipFileToggler{logger: logger.WithComponent("skipfile")}
}

// Toggle sends one toggleSkipFileStatus request for target, or for
// activeFile when target is zero. Nothing is sent without a session or
// without an identifier. The response is not awaited and send failures are
// only logged. Toggle reports whether a request was sent.
func (s *SkipFileToggler) Toggle(ctx context.Context, session Session, target SkipFileTarget, activeFile string) bool {
	if target.IsZero() {
		target = PathTarget(activeFile)
	}
	if target.IsZero() {
		s.logger.Debug("no file to toggle")
		return false
	}
	if session == nil {
		s.logger.Debug("no active debug session, not toggling %s", target)
		return false
	}

	if err := session.CustomRequest(ctx, dap.CommandToggleSkipFileStatus, target.Arguments()); err != nil {
		s.logger.Debug("toggle %s: %v", target, err)
	}
	return true
}

// ForwardSkipFileToggle is Toggle on a toggler that logs to the default
// logger.
func ForwardSkipFileToggle(ctx context.Context, session Session, target SkipFileTarget, activeFile string) bool {
	return NewSkipFileToggler(logging.Default()).Toggle(ctx, session, target, activeFile)
}
