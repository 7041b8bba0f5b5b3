// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"fmt"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// TemplateURLBuilder is the default URLBuilder. It expands RFC 6570
// templates instead of hand-joining path segments, so every
// user-supplied value (kernel id, session id) is percent-encoded by
// construction per spec.md §6.
type TemplateURLBuilder struct{}

var _ URLBuilder = TemplateURLBuilder{}

func (TemplateURLBuilder) RESTPath(baseURL, path string, params map[string]string) (string, error) {
	tmpl, err := uritemplate.New(strings.TrimRight(baseURL, "/") + "/" + path)
	if err != nil {
		return "", fmt.Errorf("kernel: parse REST template %q: %w", path, err)
	}
	values := uritemplate.Values{}
	for k, v := range params {
		values.Set(k, uritemplate.String(v))
	}
	return tmpl.Expand(values)
}

func (TemplateURLBuilder) WebSocketURL(wsURL, kernelID, clientID string) (string, error) {
	tmpl, err := uritemplate.New(strings.TrimRight(wsURL, "/") + "/api/kernels/{id}/channels{?session_id}")
	if err != nil {
		return "", fmt.Errorf("kernel: parse websocket template: %w", err)
	}
	values := uritemplate.Values{}
	values.Set("id", uritemplate.String(kernelID))
	values.Set("session_id", uritemplate.String(clientID))
	return tmpl.Expand(values)
}

// deriveWSURL turns an http(s) base URL into the matching ws(s) URL
// when the caller has not supplied one explicitly.
func deriveWSURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}
