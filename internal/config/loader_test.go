package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecondsDurationNormalizesBareIntegers(t *testing.T) {
	// A bare `timeout_seconds: 30` unmarshals as 30ns.
	assert.Equal(t, 30*time.Second, secondsDuration(30))
	assert.Equal(t, 600*time.Second, secondsDuration(600))
}

func TestSecondsDurationKeepsExplicitUnits(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, secondsDuration(500*time.Millisecond))
	assert.Equal(t, 30*time.Second, secondsDuration(30*time.Second))
	assert.Equal(t, 2*time.Minute, secondsDuration(2*time.Minute))
}

func TestSecondsDurationLeavesZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), secondsDuration(0))
}
