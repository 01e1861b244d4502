package cerr

import (
	"errors"
	"fmt"

	"github.com/kmmanagement/agenda/pkg/storage"
)

// StorageOp names the storage operation that failed.
type StorageOp string

const (
	OpRead   StorageOp = "read"
	OpWrite  StorageOp = "write"
	OpDelete StorageOp = "delete"
	OpDecode StorageOp = "decode"
	OpEncode StorageOp = "encode"
)

// WrapStorageError turns a storage failure on target into an *Error. A
// missing object becomes NotFound; everything else is hidden behind Internal.
func WrapStorageError(op StorageOp, target string, err error) error {
	if err == nil {
		return nil
	}
	if op != OpWrite && errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to %s %s: %w", op, target, err))
}
