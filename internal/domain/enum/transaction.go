package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// TransactionType distinguishes money captured from money returned
type TransactionType int

const (
	TransactionTypeSale   TransactionType = 0
	TransactionTypeRefund TransactionType = 1
)

func (t TransactionType) String() string {
	return [...]string{"Sale", "Refund"}[t]
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = TransactionType(i)
		return nil
	}
	switch str {
	case "Sale":
		*t = TransactionTypeSale
	case "Refund":
		*t = TransactionTypeRefund
	}
	return nil
}

func (t TransactionType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TransactionType) Scan(value interface{}) error {
	if value == nil {
		*t = TransactionTypeSale
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = TransactionType(v)
	case int:
		*t = TransactionType(v)
	}
	return nil
}

// TransactionStatus represents the processing status of a payment transaction
type TransactionStatus int

const (
	TransactionStatusPending    TransactionStatus = 0
	TransactionStatusSuccessful TransactionStatus = 1
	TransactionStatusFailed     TransactionStatus = 2
)

func (s TransactionStatus) String() string {
	return [...]string{"Pending", "Successful", "Failed"}[s]
}

func (s TransactionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *TransactionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = TransactionStatus(i)
		return nil
	}
	switch str {
	case "Pending":
		*s = TransactionStatusPending
	case "Successful":
		*s = TransactionStatusSuccessful
	case "Failed":
		*s = TransactionStatusFailed
	}
	return nil
}

func (s TransactionStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *TransactionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = TransactionStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = TransactionStatus(v)
	case int:
		*s = TransactionStatus(v)
	}
	return nil
}
