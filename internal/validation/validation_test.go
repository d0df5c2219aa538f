package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEthAddress(t *testing.T) {
	assert.True(t, IsValidEthAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"))
	assert.False(t, IsValidEthAddress("036CbD53842c5426634e7929541eC2318f3dCF7e"))
	assert.False(t, IsValidEthAddress("0x036C"))
	assert.False(t, IsValidEthAddress("0xZZZZbD53842c5426634e7929541eC2318f3dCF7e"))
	assert.False(t, IsValidEthAddress(""))
}

func TestValidateCollects(t *testing.T) {
	errs := Validate(
		Required("khatian", ""),
		Required("state", "WB"),
		ValidAddress("owner", "nonsense"),
	)
	assert.Len(t, errs, 2)
	assert.Equal(t, "khatian", errs[0].Field)
	assert.Equal(t, "owner", errs[1].Field)
}

func TestValidEtherAmount(t *testing.T) {
	assert.Empty(t, Validate(ValidEtherAmount("valuation", "5.5")))
	assert.Empty(t, Validate(ValidEtherAmount("valuation", "")))
	assert.Len(t, Validate(ValidEtherAmount("valuation", "-1")), 1)
	assert.Len(t, Validate(ValidEtherAmount("valuation", "abc")), 1)
}

func TestPositiveInt(t *testing.T) {
	assert.Empty(t, Validate(PositiveInt("landId", "42")))
	assert.Len(t, Validate(PositiveInt("landId", "0")), 1)
	assert.Len(t, Validate(PositiveInt("landId", "-3")), 1)
	assert.Len(t, Validate(PositiveInt("landId", "1.5")), 1)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello\x00  ", 100))
	assert.Equal(t, "ab", SanitizeString("abcdef", 2))
}
