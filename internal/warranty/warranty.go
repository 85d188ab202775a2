// Package warranty owns warranty records and the claim decision for a reserved item.
//
// A warranty is opened ON_WARRANTY when an order is placed and may be closed to
// REMOVED_FROM_WARRANTY. USE_WARRANTY is part of the record schema but no operation
// moves a warranty into it.
package warranty

import "time"

type Status string

const (
	StatusOnWarranty  Status = "ON_WARRANTY"
	StatusUseWarranty Status = "USE_WARRANTY"
	StatusRemoved     Status = "REMOVED_FROM_WARRANTY"
)

type Decision string

const (
	DecisionRefused Decision = "REFUSED"
	DecisionReturn  Decision = "RETURN"
	DecisionFixing  Decision = "FIXING"
)

// Warranty is the record kept for one reserved item, keyed by its item uid.
type Warranty struct {
	ID      int64
	ItemUID string
	Status  Status
	Date    time.Time
	Comment string
}

// Verdict is the answer to a warranty claim.
type Verdict struct {
	Decision     Decision
	WarrantyDate time.Time
}

// Decide applies the claim rule: anything not ON_WARRANTY is refused, otherwise the
// item is returned when stock is available and fixed when it is not.
func Decide(status Status, availableCount int) Decision {
	switch {
	case status != StatusOnWarranty:
		return DecisionRefused
	case availableCount > 0:
		return DecisionReturn
	default:
		return DecisionFixing
	}
}
