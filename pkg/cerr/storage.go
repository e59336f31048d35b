package cerr

import (
	"database/sql"
	"errors"
	"fmt"
)

func WrapStorageReadError(target string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to read %s: %w", target, err))
}

func WrapStorageWriteError(target string, err error) error {
	return NewError(Internal, "server error", fmt.Errorf("failed to write %s: %w", target, err))
}
