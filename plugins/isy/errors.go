package isy

import (
	"fmt"
	"strings"
)

// HTTPStatusError reports a non-2xx response from the controller's REST
// endpoint.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("isy api error %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// NotFoundError reports a lookup that matched nothing in a fresh fetch.
type NotFoundError struct {
	Kind string // "device", "scene" or "program"
	Ref  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("isy: no %s matching %q", e.Kind, e.Ref)
}

// CommandError reports a command the controller accepted over HTTP but
// answered with succeeded=false.
type CommandError struct {
	Target string
	Cmd    string
}

func (e CommandError) Error() string {
	return fmt.Sprintf("isy: command %q failed for %q", e.Cmd, e.Target)
}
