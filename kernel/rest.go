// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// restClient implements the REST surface of spec.md §6. Status-code
// and schema-validation errors are wrapped sentinels (errors.go);
// network failures are returned as-is, wrapped with context.
type restClient struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
	urls       URLBuilder
	specVal    SpecValidator
}

func newRESTClient(opts *ManagerOptions) *restClient {
	return &restClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		header:     opts.Header,
		urls:       opts.URLBuilder,
		specVal:    opts.SpecValidator,
	}
}

func (c *restClient) do(ctx context.Context, method, path string, params map[string]string, body any, wantStatus int) ([]byte, error) {
	url, err := c.urls.RESTPath(c.baseURL, path, params)
	if err != nil {
		return nil, err
	}
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("kernel: encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("kernel: build request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kernel: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kernel: read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s %s", ErrNoSuchKernel, method, path)
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("%w: %s %s returned %d, want %d", ErrBadStatus, method, path, resp.StatusCode, wantStatus)
	}
	return data, nil
}

// GetKernelSpecs fetches and validates api/kernelspecs, applying the
// lenient default-fallback policy of spec.md §6/§9: if "default" is
// missing or points to an absent spec, fall back to the first valid
// (sorted) key and log a warning. It fails only if kernelspecs is
// missing or every entry is invalid.
func (c *restClient) GetKernelSpecs(ctx context.Context, logger interface{ Warn(string, ...any) }) (defaultName string, specs map[string]KernelSpec, err error) {
	data, err := c.do(ctx, http.MethodGet, "api/kernelspecs", nil, nil, http.StatusOK)
	if err != nil {
		return "", nil, err
	}
	var raw struct {
		Default     string                     `json:"default"`
		Kernelspecs map[string]json.RawMessage `json:"kernelspecs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(raw.Kernelspecs) == 0 {
		return "", nil, fmt.Errorf("%w: kernelspecs response has no kernelspecs", ErrInvalidResponse)
	}

	specs = make(map[string]KernelSpec, len(raw.Kernelspecs))
	var validNames []string
	for name, entry := range raw.Kernelspecs {
		if err := c.specVal.ValidateKernelSpec(entry); err != nil {
			logger.Warn("kernel: dropping invalid kernelspec", "name", name, "error", err)
			continue
		}
		var parsed kernelSpecResponse
		if err := json.Unmarshal(entry, &parsed); err != nil {
			logger.Warn("kernel: dropping unparsable kernelspec", "name", name, "error", err)
			continue
		}
		specs[name] = parsed.Spec
		validNames = append(validNames, name)
	}
	if len(specs) == 0 {
		return "", nil, fmt.Errorf("%w: no valid kernelspecs in response", ErrInvalidResponse)
	}

	defaultName = raw.Default
	if _, ok := specs[defaultName]; defaultName == "" || !ok {
		sortStrings(validNames)
		fallback := validNames[0]
		logger.Warn("kernel: kernelspecs default missing or invalid, falling back", "requested", defaultName, "fallback", fallback)
		defaultName = fallback
	}
	return defaultName, specs, nil
}

// GetKernelSpec fetches a single named spec via api/kernelspecs/<name>.
func (c *restClient) GetKernelSpec(ctx context.Context, name string) (KernelSpec, error) {
	data, err := c.do(ctx, http.MethodGet, "api/kernelspecs/{name}", map[string]string{"name": name}, nil, http.StatusOK)
	if err != nil {
		if errors.Is(err, ErrNoSuchKernel) {
			return KernelSpec{}, fmt.Errorf("%w: %s", ErrNoSuchSpec, name)
		}
		return KernelSpec{}, err
	}
	if err := c.specVal.ValidateKernelSpec(data); err != nil {
		return KernelSpec{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	var parsed kernelSpecResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return KernelSpec{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return parsed.Spec, nil
}

func (c *restClient) ListKernels(ctx context.Context) ([]KernelModel, error) {
	data, err := c.do(ctx, http.MethodGet, "api/kernels", nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var models []KernelModel
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return models, nil
}

func (c *restClient) StartKernel(ctx context.Context, name string) (KernelModel, error) {
	data, err := c.do(ctx, http.MethodPost, "api/kernels", nil, map[string]string{"name": name}, http.StatusCreated)
	if err != nil {
		return KernelModel{}, err
	}
	return c.decodeModel(data)
}

func (c *restClient) GetKernel(ctx context.Context, id string) (KernelModel, error) {
	data, err := c.do(ctx, http.MethodGet, "api/kernels/{id}", map[string]string{"id": id}, nil, http.StatusOK)
	if err != nil {
		return KernelModel{}, err
	}
	return c.decodeModel(data)
}

func (c *restClient) InterruptKernel(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "api/kernels/{id}/interrupt", map[string]string{"id": id}, nil, http.StatusNoContent)
	return err
}

func (c *restClient) RestartKernel(ctx context.Context, id string) (KernelModel, error) {
	data, err := c.do(ctx, http.MethodPost, "api/kernels/{id}/restart", map[string]string{"id": id}, nil, http.StatusOK)
	if err != nil {
		return KernelModel{}, err
	}
	return c.decodeModel(data)
}

func (c *restClient) ShutdownKernel(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "api/kernels/{id}", map[string]string{"id": id}, nil, http.StatusNoContent)
	return err
}

func (c *restClient) decodeModel(data []byte) (KernelModel, error) {
	if err := c.specVal.ValidateKernelModel(data); err != nil {
		return KernelModel{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	var m KernelModel
	if err := json.Unmarshal(data, &m); err != nil {
		return KernelModel{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return m, nil
}
