// Package closer aggregates shutdown of multiple components
package closer

import "errors"

type (
	Closer interface {
		Close() error
	}

	CloserGroup struct {
		closers []Closer
	}
)

func NewCloserGroup(closers ...Closer) *CloserGroup {
	return &CloserGroup{
		closers: closers,
	}
}

// Close closes every registered component, in registration order, and
// joins the errors so one failing component does not skip the rest.
func (c *CloserGroup) Close() error {
	var errs []error

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
