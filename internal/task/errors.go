package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/kmmanagement/agenda/pkg/cerr"
)

// ErrSlotConflict is wrapped by every error reporting a double booking,
// whether it was caught by the pre-check or by the store.
var ErrSlotConflict = errors.New("scheduled slot already taken")

const slotConflictRule = "slot_conflict"

func NewSlotConflictError(at time.Time) *cerr.Error {
	slot := at.Format(SlotLayout)
	return cerr.NewError(cerr.AlreadyExists,
		"there is already an appointment at this time, choose another time",
		fmt.Errorf("%s: %w", slot, ErrSlotConflict),
	).AddDetailMessageWithCode(fmt.Sprintf("%s is already booked", slot), slotConflictRule)
}

func IsSlotConflict(err error) bool {
	return errors.Is(err, ErrSlotConflict)
}
