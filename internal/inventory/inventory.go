// Package inventory owns stock counts and the per-order reservations taken against them.
//
// Ownership boundary:
// - item stock (available_count never below zero)
// - reservations (one per placed order, canceled on release)
//
// Each multi-step mutation (reserve, release) runs inside one Store.Update scope and
// applies all-or-nothing.
package inventory

// Item is one stocked (model, size) pair.
type Item struct {
	ID             int64
	Model          string
	Size           string
	AvailableCount int
}

// Reservation links an order to the unit taken out of stock for it. UID is the
// identifier the rest of the system calls the order's item uid.
type Reservation struct {
	ID       int64
	UID      string
	OrderUID string
	ItemID   int64
	Canceled bool
}

// Placement is the outcome of a successful Reserve.
type Placement struct {
	ItemUID  string
	OrderUID string
	Model    string
	Size     string
}

// ItemInfo describes the item behind a reservation.
type ItemInfo struct {
	Model string
	Size  string
}

// DefaultCatalog is the stock seeded when no catalog file is configured.
func DefaultCatalog() []Item {
	return []Item{
		{ID: 1, Model: "Lego 8070", Size: "M", AvailableCount: 10000},
		{ID: 2, Model: "Lego 42070", Size: "L", AvailableCount: 10000},
		{ID: 3, Model: "Lego 8880", Size: "L", AvailableCount: 10000},
	}
}
