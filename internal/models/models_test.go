package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayment_IsTerminal(t *testing.T) {
	cases := map[string]bool{
		PaymentStatusCompleted: false,
		PaymentStatusRefunded:  true,
		PaymentStatusCancelled: true,
	}
	for status, want := range cases {
		t.Run(status, func(t *testing.T) {
			assert.Equal(t, want, (&Payment{Status: status}).IsTerminal())
		})
	}
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "payments", Payment{}.TableName())
	assert.Equal(t, "refunds", Refund{}.TableName())
	assert.Equal(t, "staff", Staff{}.TableName())
	assert.Equal(t, "membership_types", MembershipType{}.TableName())
}

func TestStaffRoles(t *testing.T) {
	assert.ElementsMatch(t, []string{"manager", "desk", "trainer"}, StaffRoles)
	assert.Len(t, PaymentStatuses, 3)
}
