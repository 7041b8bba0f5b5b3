// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// KernelModel is the server's {id, name} view of a running kernel,
// immutable from the client's perspective for a live kernel.
type KernelModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// KernelSpec describes how to launch a kernel of a given name.
type KernelSpec struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Language    string            `json:"language"`
	Argv        []string          `json:"argv"`
	Env         map[string]string `json:"env,omitempty"`
	Resources   map[string]string `json:"resources,omitempty"`
}

// kernelSpecResponse is the body of GET api/kernelspecs/{name}, and
// the shape of each value in GET api/kernelspecs' "kernelspecs" map.
type kernelSpecResponse struct {
	Name string     `json:"name"`
	Spec KernelSpec `json:"spec"`
}
