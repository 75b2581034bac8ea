// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockFakedTime(t *testing.T) {
	var c Clock
	require.WithinDuration(t, time.Now(), c.Time(), time.Second)

	fixed := time.Unix(1_700_000_000, 0)
	c.Set(fixed)
	require.Equal(t, fixed, c.Time())
	require.Equal(t, fixed, c.Time(), "faked clock must not advance on its own")

	c.Sync()
	require.WithinDuration(t, time.Now(), c.Time(), time.Second)
}

func TestClockUnix(t *testing.T) {
	var c Clock
	c.Set(time.Unix(-5, 0))
	require.Equal(t, uint64(0), c.Unix(), "negative unix time clamps to 0")
}
