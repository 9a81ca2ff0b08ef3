package cli

import (
	"errors"
	"fmt"
	"io"
)

type localOnlyError struct {
	what string
}

func (e localOnlyError) Error() string {
	return fmt.Sprintf("%s needs the local database (unset --server)", e.what)
}

func errLocalOnly(what string) error {
	return localOnlyError{what: what}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errors.New("no input")
	}
	return io.ReadAll(r)
}
