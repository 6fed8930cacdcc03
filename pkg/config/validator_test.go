package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AcceptsDefault(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestValidate_RejectsInvertedConcurrencyLimits(t *testing.T) {
	cfg := Default()
	cfg.Concurrency.MaxUserSlideSlots = cfg.Concurrency.MaxGlobalSlideSlots + 1
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsGRPCProviderWithoutAddress(t *testing.T) {
	cfg := Default()
	cfg.ImageSearch.Provider = "grpc"
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.ImageSearch.Provider = "bogus"
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsEmptyMIMEAllowList(t *testing.T) {
	cfg := Default()
	cfg.Media.AllowedMIMETypes = nil
	assert.Error(t, Validate(cfg))
}
