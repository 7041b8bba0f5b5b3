// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"time"
)

// beginReconnectLocked schedules the next reconnect attempt with
// exponential backoff (2^attempt seconds), per spec.md §4.4/§9. Once
// reconnectAttempt reaches reconnectLimit, the Session transitions to
// dead instead of retrying again.
func (s *Session) beginReconnectLocked() {
	if s.disposed {
		return
	}
	s.ready = false
	if s.reconnectAttempt >= s.reconnectLimit {
		s.logger.Error("kernel: reconnect attempts exhausted, kernel considered dead", "kernel_id", s.kernelID, "attempts", s.reconnectAttempt)
		s.transitionStatusLocked(StatusDead)
		return
	}
	s.transitionStatusLocked(StatusReconnecting)
	attempt := s.reconnectAttempt
	s.reconnectAttempt++
	delay := time.Duration(1<<uint(attempt)) * time.Second
	gen := s.connGen
	s.logger.Info("kernel: scheduling reconnect", "kernel_id", s.kernelID, "attempt", attempt+1, "delay", delay)
	time.AfterFunc(delay, func() {
		s.do(func() {
			if s.disposed || gen != s.connGen {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.openConnectionLocked(ctx)
		})
	})
}
