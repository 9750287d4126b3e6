// Package retrier provides small retry helpers for flaky operations
// and connections.
package retrier

import "time"

// Do runs fn up to retry times, sleeping the given number of seconds
// between failed attempts. It returns nil on the first success, or the
// last error when every attempt failed.
func Do(retry uint8, sleep uint, fn func() error) error {
	var err error

	for attempt := uint8(0); attempt < retry; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt < retry-1 {
			time.Sleep(time.Duration(sleep) * time.Second)
		}
	}

	return err
}

// Connect establishes a connection with the same retry behavior as Do,
// returning the connected value.
//
// Example:
//
//	conn, err := retrier.Connect(3, 2, func() (*amqp.Connection, error) {
//	    return amqp.Dial(url)
//	})
func Connect[T any](retry uint8, sleep uint, connector func() (T, error)) (T, error) {
	var (
		out T
		err error
	)

	for attempt := uint8(0); attempt < retry; attempt++ {
		out, err = connector()
		if err == nil {
			return out, nil
		}

		if attempt < retry-1 {
			time.Sleep(time.Duration(sleep) * time.Second)
		}
	}

	return out, err
}
