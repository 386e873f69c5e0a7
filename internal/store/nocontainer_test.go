// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

//go:build !integration

package store

import "testing"

// fallbackDSN has no container to offer without the integration build tag.
func fallbackDSN(t *testing.T) string {
	t.Helper()
	return ""
}
