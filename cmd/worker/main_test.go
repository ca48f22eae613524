package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/app"
	_ "github.com/workbridge/workbridge/internal/testing/guard"
)

func TestMainSkipsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
	main()
}
