// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package kdebug provides a mechanism to configure debug/compatibility
// parameters via the JKGODEBUG environment variable.
//
// The value of JKGODEBUG is a comma-separated list of key=value pairs.
// For example:
//
//	JKGODEBUG=dispatch=1,comm=1
package kdebug

import (
	"fmt"
	"os"
	"strings"
)

const envKey = "JKGODEBUG"

var params map[string]string

func init() {
	var err error
	params, err = parse(os.Getenv(envKey))
	if err != nil {
		panic(err)
	}
}

// Value returns the value of the debug parameter with the given key.
// It returns an empty string if the key is not set.
func Value(key string) string {
	return params[key]
}

func parse(envValue string) (map[string]string, error) {
	if envValue == "" {
		return nil, nil
	}

	result := make(map[string]string)
	for part := range strings.SplitSeq(envValue, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("JKGODEBUG: invalid format: %q", part)
		}
		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return result, nil
}
