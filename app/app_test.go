package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"causalkit/adapters/stats/fit"
	"causalkit/domain/core"
	"causalkit/internal/config"
	"causalkit/ports"
)

func testFitter(t *testing.T) ports.Fitter {
	t.Helper()
	return fit.NewEngine()
}

// fastConfig trims the bootstrap so matching tests stay quick.
func fastConfig() config.Config {
	cfg := config.Default()
	cfg.Bootstrap.Iterations = 100
	cfg.Bootstrap.Workers = 4
	return cfg
}

func requireValidation(t *testing.T, err, sentinel error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, sentinel), "expected %v, got %v", sentinel, err)
	require.True(t, core.IsValidationError(err))
}

func TestConfoundingBias(t *testing.T) {
	e := Estimate{Effect: 1.5, UnadjustedEffect: 2.3}
	require.InDelta(t, 0.8, e.ConfoundingBias(), 1e-12)
}
