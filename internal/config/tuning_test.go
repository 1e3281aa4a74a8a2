package config

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controller.GammaDiag = make([]float64, 10)

	require.NoError(t, cfg.SetParam("lambda", 2))
	require.NoError(t, cfg.SetParam("gamma", 0.5))
	require.NoError(t, cfg.SetParam("ki", 0.1))
	require.NoError(t, cfg.SetParam("u_max", 30))

	assert.Equal(t, []float64{0.8, 0.8, 1.4, 8}, cfg.Controller.Lambda)
	assert.Equal(t, 0.5, cfg.Controller.Gamma)
	assert.Nil(t, cfg.Controller.GammaDiag)
	assert.Equal(t, []float64{0.1, 0.1, 0.1, 0.1}, cfg.Controller.Ki)
	assert.Equal(t, -30.0, cfg.Controller.UMin)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []float64{0.4, 0.4, 0.7, 4.0}, DefaultConfig().Controller.Lambda, "scaling must not alias the defaults")
}

func TestSetParam_Errors(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, errors.Is(cfg.SetParam("mass", 1), ErrInvalid))
	assert.True(t, errors.Is(cfg.SetParam("gamma", math.NaN()), ErrInvalid))
	assert.Contains(t, TuningKnobs(), "c1")
}
