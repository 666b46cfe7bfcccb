package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		paid  int64
		want  BillStatus
	}{
		{"nothing paid", 1000, 0, BillStatusUnpaid},
		{"partly paid", 1000, 400, BillStatusPartial},
		{"fully paid", 1000, 1000, BillStatusPaid},
		{"zero total", 0, 0, BillStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(decimal.NewFromInt(tt.total), decimal.NewFromInt(tt.paid))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBillType_IsValid(t *testing.T) {
	assert.True(t, BillTypeElectricity.IsValid())
	assert.True(t, BillTypeMaintenance.IsValid())
	assert.False(t, BillType("water").IsValid())
	assert.False(t, BillType("").IsValid())
}
