package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ExchangeStatus is the state of an exchange session. Transitions run strictly
// forward (Initiated -> RefundCompleted -> NewOrderCreated -> Completed) and
// every non-terminal state may move to Cancelled. There is no re-entry.
type ExchangeStatus int

const (
	ExchangeStatusInitiated       ExchangeStatus = 0
	ExchangeStatusRefundCompleted ExchangeStatus = 1
	ExchangeStatusNewOrderCreated ExchangeStatus = 2
	ExchangeStatusCompleted       ExchangeStatus = 3
	ExchangeStatusCancelled       ExchangeStatus = 4
)

func (s ExchangeStatus) String() string {
	return [...]string{"Initiated", "RefundCompleted", "NewOrderCreated", "Completed", "Cancelled"}[s]
}

// IsTerminal reports whether the session can no longer move forward.
func (s ExchangeStatus) IsTerminal() bool {
	return s == ExchangeStatusCompleted || s == ExchangeStatusCancelled
}

func (s ExchangeStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ExchangeStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ExchangeStatus(i)
		return nil
	}
	switch str {
	case "Initiated":
		*s = ExchangeStatusInitiated
	case "RefundCompleted":
		*s = ExchangeStatusRefundCompleted
	case "NewOrderCreated":
		*s = ExchangeStatusNewOrderCreated
	case "Completed":
		*s = ExchangeStatusCompleted
	case "Cancelled":
		*s = ExchangeStatusCancelled
	}
	return nil
}

func (s ExchangeStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ExchangeStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ExchangeStatusInitiated
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ExchangeStatus(v)
	case int:
		*s = ExchangeStatus(v)
	}
	return nil
}
