// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "github.com/google/uuid"

// UUIDGenerator is the default IDGenerator, backed by google/uuid.
type UUIDGenerator struct{}

var _ IDGenerator = UUIDGenerator{}

func (UUIDGenerator) NewMsgID() string    { return uuid.NewString() }
func (UUIDGenerator) NewClientID() string { return uuid.NewString() }
func (UUIDGenerator) NewCommID() string   { return uuid.NewString() }
