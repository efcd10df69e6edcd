package sse

// Toast levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Toast non-blocking user notification
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notifier publishes toasts and aggregate updates through a Hub. Services
// depend on it through their own narrow interfaces.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Success(userID, message string) {
	n.hub.publish(userID, EventToast, Toast{Level: LevelSuccess, Message: message})
}

func (n *Notifier) Error(userID, message string) {
	n.hub.publish(userID, EventToast, Toast{Level: LevelError, Message: message})
}

// QuoteUpdated tells the owner's views to refresh a quote.
func (n *Notifier) QuoteUpdated(userID, quoteID, status, action string) {
	n.hub.publish(userID, EventQuoteUpdate, map[string]string{
		"quote_id": quoteID,
		"status":   status,
		"action":   action,
	})
}

// OrderUpdated tells the owner's views to refresh an order.
func (n *Notifier) OrderUpdated(userID, orderID, action string) {
	n.hub.publish(userID, EventOrderUpdate, map[string]string{
		"order_id": orderID,
		"action":   action,
	})
}
