package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentStatus represents the lifecycle status of a payment
type PaymentStatus int

const (
	PaymentStatusUnpaid            PaymentStatus = 0
	PaymentStatusPaid              PaymentStatus = 1
	PaymentStatusPartiallyRefunded PaymentStatus = 2
	PaymentStatusRefunded          PaymentStatus = 3
	PaymentStatusFailed            PaymentStatus = 4
)

func (s PaymentStatus) String() string {
	return [...]string{"Unpaid", "Paid", "PartiallyRefunded", "Refunded", "Failed"}[s]
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		return nil
	}
	switch str {
	case "Unpaid":
		*s = PaymentStatusUnpaid
	case "Paid":
		*s = PaymentStatusPaid
	case "PartiallyRefunded":
		*s = PaymentStatusPartiallyRefunded
	case "Refunded":
		*s = PaymentStatusRefunded
	case "Failed":
		*s = PaymentStatusFailed
	}
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusUnpaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}
