// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "sort"

func assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

// sortStrings sorts ss in place and returns it, for picking a
// deterministic fallback kernelspec name (spec.md §6/§9).
func sortStrings(ss []string) []string {
	sort.Strings(ss)
	return ss
}
