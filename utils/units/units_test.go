// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(1_000_000_000_000_000_000), Token)
	require.Equal("1000000000000000000", Tokens(1).Dec())
	require.Equal("60000000000000000000", Tokens(60).Dec())
	require.False(Tokens(60).IsUint64())
}
