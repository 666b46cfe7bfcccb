package logger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Field keys used across request, SQL and billing log lines
const (
	FieldRequestID     = "request_id"
	FieldUserID        = "user_id"
	FieldFlatNumber    = "flat_number"
	FieldBillID        = "bill_id"
	FieldTransactionID = "transaction_id"
	FieldTraceID       = "trace_id"
	FieldSpanID        = "span_id"
)

func BillID(id uuid.UUID) zap.Field {
	return zap.String(FieldBillID, id.String())
}

func TransactionID(id string) zap.Field {
	return zap.String(FieldTransactionID, id)
}

func FlatNumber(flat string) zap.Field {
	return zap.String(FieldFlatNumber, flat)
}

func UserID(id string) zap.Field {
	return zap.String(FieldUserID, id)
}

// Amount logs a money value in its exact decimal form
func Amount(key string, amount decimal.Decimal) zap.Field {
	return zap.String(key, amount.StringFixed(2))
}
