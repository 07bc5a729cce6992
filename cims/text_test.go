package cims_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsr/cims/cims"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"120.50", "120.5", true},
		{" 80.00 ", "80", true},
		{"-3", "-3", true},
		{"", "0", false},
		{"   ", "0", false},
		{"abc", "0", false},
		{"1,000", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := cims.ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestInsuredName(t *testing.T) {
	assert.Equal(t, "JOHN SMITH", cims.InsuredName("", "JOHN", "SMITH"))
	assert.Equal(t, "ACME FARMS", cims.InsuredName("ACME FARMS", "", ""))
	assert.Equal(t, "ACMEJOHN SMITH", cims.InsuredName("ACME", "JOHN", "SMITH"))
}

func TestSplitListAndDistinct(t *testing.T) {
	require.Equal(t, []string{"a", "b", "a"}, cims.SplitList(" a, b,,a ,"))
	assert.Nil(t, cims.SplitList(" , "))
	assert.Equal(t, []string{"a", "b"}, cims.Distinct([]string{"a", "b", "a"}))
}

func TestInsuranceIntendedUse(t *testing.T) {
	// GIVEN: A record with both type and intended use codes
	// WHEN: The type code is blank
	// THEN: The intended use code is used
	ins := cims.InsuranceInForce{TypeCode: "030", IntendedUseCode: "007"}
	assert.Equal(t, "030", ins.IntendedUse())

	ins.TypeCode = "  "
	assert.Equal(t, "007", ins.IntendedUse())
}

func TestErrorHelpers(t *testing.T) {
	err := &cims.FieldError{Field: "year", Reason: "required"}
	assert.True(t, cims.IsClientError(err))
	assert.False(t, cims.IsNotFound(err))
	assert.True(t, cims.IsNotFound(cims.ErrInsuranceNotFound))
	assert.True(t, cims.IsForbidden(cims.ErrForbidden))
	assert.EqualError(t, err, "invalid year: required")
}
