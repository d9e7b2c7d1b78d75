package input

import "fmt"

// NewInput validates the descriptor and returns the Input variant it describes
func NewInput(d Descriptor, opts ...Option) (Input, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", d.Location(), err)
	}
	if d.IsNetwork() {
		return NewNetworkInput(d.URL, opts...)
	}
	return NewFileInput(d.Path, d.Compression, opts...)
}
