package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrJobNotFound          = fmt.Errorf("job %w", ErrNotFound)
	ErrApplicationNotFound  = fmt.Errorf("application %w", ErrNotFound)
	ErrResumeNotFound       = fmt.Errorf("resume %w", ErrNotFound)
	ErrDuplicateApplication = errors.New("an application with this email already exists for this job")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("application was changed by another request, try again")
)

// InputError lists rejected fields by name.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
