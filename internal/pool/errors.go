package pool

import "fmt"

// SerializationError reports an unreadable or corrupt batch record. It is
// fatal and raised before any worker launches.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("batch record %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// LaunchError reports that the cluster launcher failed to start the
// requested worker ranks. Fatal, surfaced before any work begins.
type LaunchError struct {
	Launcher  string
	WorldSize int
	Err       error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %d ranks via %s: %v", e.WorldSize, e.Launcher, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
