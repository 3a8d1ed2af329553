package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvFloatDefaultWhenUnset(t *testing.T) {
	assert.Equal(t, 10.0, envFloat("CONFIG_TEST_FLOAT_UNSET", 10.0))
}

func TestEnvFloatReadsValue(t *testing.T) {
	t.Setenv("CONFIG_TEST_FLOAT", "8.25")
	assert.Equal(t, 8.25, envFloat("CONFIG_TEST_FLOAT", 10.0))
}

func TestEnvStrDefault(t *testing.T) {
	assert.Equal(t, "oauth", envStr("CONFIG_TEST_STR_UNSET", "oauth"))
	t.Setenv("CONFIG_TEST_STR", "static")
	assert.Equal(t, "static", envStr("CONFIG_TEST_STR", "oauth"))
}
