package repositories

import (
	"errors"
	"fmt"
)

// StoreError is the RepositoryError used by the key/value backends.
type StoreError struct {
	Op          string
	Key         string
	Err         error
	notFound    bool
	conflict    bool
	unavailable bool
	corrupt     bool
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	msg := "storage error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Key != "":
		return fmt.Sprintf("%s %q: %s", e.Op, e.Key, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StoreError) IsNotFound() bool    { return e != nil && e.notFound }
func (e *StoreError) IsConflict() bool    { return e != nil && e.conflict }
func (e *StoreError) IsUnavailable() bool { return e != nil && e.unavailable }

// IsCorrupt reports whether a stored value could not be decoded.
func (e *StoreError) IsCorrupt() bool { return e != nil && e.corrupt }

var errKeyNotFound = errors.New("key not found")

// NewNotFoundError reports an absent key.
func NewNotFoundError(op, key string) *StoreError {
	return &StoreError{Op: op, Key: key, Err: errKeyNotFound, notFound: true}
}

// NewUnavailableError reports a backend outage.
func NewUnavailableError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err, unavailable: true}
}

// NewConflictError reports a write rejected by a precondition or contention.
func NewConflictError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err, conflict: true}
}

// NewCorruptError reports a stored value that failed to decode.
func NewCorruptError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err, corrupt: true}
}

// WrapStoreError annotates a backend failure without classifying it.
func WrapStoreError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsNotFound reports whether err classifies as a missing key.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsCorrupt reports whether err classifies as an undecodable stored value.
func IsCorrupt(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.IsCorrupt()
}

// SessionKey namespaces a storage key under a visitor session.
func SessionKey(sessionID, name string) string {
	return sessionID + "/" + name
}
