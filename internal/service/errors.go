package service

import (
	"errors"
	"fmt"

	"bin_monitoring/internal/repository"
)

var (
	ErrBinNotFound      = errors.New("bin not found")
	ErrMalformedReading = errors.New("malformed reading")
	ErrFillOutOfRange   = errors.New("fill level out of range")
	ErrNoPendingRequest = errors.New("no pending collection request")
	ErrInvalidBin       = errors.New("invalid bin")
	ErrInvalidRequest   = errors.New("invalid collection request")
	// ErrStore marks a persistence failure; callers may retry.
	ErrStore = errors.New("store unavailable")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func binErr(op string, binID int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("bin %d: %w", binID, ErrBinNotFound)
	}
	return storeErr(op, err)
}

func ownerErr(ownerID int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("owner %d: %w", ownerID, ErrBinNotFound)
	}
	return storeErr("get bin by owner", err)
}

// txErr leaves domain errors alone and tags everything else as a store failure.
func txErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStore),
		errors.Is(err, ErrBinNotFound),
		errors.Is(err, ErrNoPendingRequest),
		errors.Is(err, ErrInvalidBin),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrFillOutOfRange),
		errors.Is(err, ErrMalformedReading):
		return err
	default:
		return storeErr(op, err)
	}
}
