package clips

import (
	"errors"
	"fmt"
)

// ErrInvalidClipDescriptor is matched by every descriptor validation failure
var ErrInvalidClipDescriptor = errors.New("invalid clip descriptor")

// InvalidDescriptorError reports which descriptor in a batch was rejected
type InvalidDescriptorError struct {
	Index  int
	Type   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s #%d: %s", ErrInvalidClipDescriptor, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s #%d (%s): %s", ErrInvalidClipDescriptor, e.Index, e.Type, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidClipDescriptor) match
func (e *InvalidDescriptorError) Is(target error) bool {
	return target == ErrInvalidClipDescriptor
}

func invalid(index int, typ, format string, args ...any) *InvalidDescriptorError {
	return &InvalidDescriptorError{
		Index:  index,
		Type:   typ,
		Reason: fmt.Sprintf(format, args...),
	}
}
