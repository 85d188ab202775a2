// Package orders runs the placement, claim and return sagas across the inventory and
// warranty services and keeps the resulting order records.
//
// Cross-service steps are not transactional: a step that fails after an earlier one
// succeeded leaves the earlier effect in place.
package orders

import "time"

type Status string

const (
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
	StatusWaiting  Status = "WAITING"
)

// Order is one user purchase. ItemUID is the reservation id minted by the inventory
// service and doubles as the warranty key.
type Order struct {
	ID      int64
	UID     string
	UserUID string
	ItemUID string
	Date    time.Time
	Status  Status
}
