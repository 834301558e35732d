// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// System implements Copier using github.com/atotto/clipboard.
type System struct{}

// NewSystem constructs a system clipboard Copier.
func NewSystem() *System {
	return &System{}
}

// Copy writes text to the system clipboard.
func (s *System) Copy(text string) error {
	return clipboard.WriteAll(text)
}

var _ Copier = (*System)(nil)
