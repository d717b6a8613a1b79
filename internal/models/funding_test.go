package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFundingConfig(t *testing.T) {
	cfg, err := ParseFundingConfig([]byte(`
github: [bevry, balupton]
open_collective: bevry
custom: "https://bevry.me/fund"
`))
	require.NoError(t, err)

	assert.Equal(t, StringList{"bevry", "balupton"}, cfg.GitHub)
	assert.Equal(t, "bevry", cfg.GitHub.First())
	assert.Equal(t, StringList{"bevry"}, cfg.OpenCollective)
	assert.Equal(t, StringList{"https://bevry.me/fund"}, cfg.Custom)
	assert.Empty(t, cfg.Patreon)
	assert.Empty(t, cfg.Patreon.First())
}

func TestParseFundingConfigInvalid(t *testing.T) {
	_, err := ParseFundingConfig([]byte("github:\n  nested: map\n"))
	assert.Error(t, err)
}
