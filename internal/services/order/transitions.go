package order

import "apega/internal/models"

var transitions = map[string][]string{
	models.OrderStatusPendingPayment: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:           {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:        {models.OrderStatusDelivered},
	models.OrderStatusDelivered:      {models.OrderStatusCompleted},
}

// CanTransition reports whether an order in status from may move to to.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// allowed says who may request each target status.
func allowed(actor Actor, o *models.Order, to string) bool {
	if actor.Admin {
		return true
	}
	switch to {
	case models.OrderStatusShipped:
		return actor.UserID == o.SellerID
	case models.OrderStatusPaid, models.OrderStatusDelivered, models.OrderStatusCompleted:
		return actor.UserID == o.BuyerID
	case models.OrderStatusCancelled:
		return o.IsParty(actor.UserID)
	}
	return false
}
