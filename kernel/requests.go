// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// ExecuteOptions customizes an execute_request, per spec.md §4.4's
// table of shell operations. The zero value produces the documented
// defaults: silent=false, store_history=true, user_expressions={},
// allow_stdin=true, stop_on_error=false.
type ExecuteOptions struct {
	Code            string
	Silent          bool
	StoreHistory    *bool // nil means true (the documented default)
	UserExpressions map[string]any
	AllowStdin      *bool // nil means true
	StopOnError     bool
	DisposeOnDone   bool
}

// Execute submits an execute_request with opts merged under the
// documented defaults, returning a Future tracking its stream of
// iopub output and its eventual execute_reply. It returns
// ErrKernelDead synchronously if the session has already torn down.
func (s *Session) Execute(opts ExecuteOptions) (*Future, error) {
	storeHistory := true
	if opts.StoreHistory != nil {
		storeHistory = *opts.StoreHistory
	}
	allowStdin := true
	if opts.AllowStdin != nil {
		allowStdin = *opts.AllowStdin
	}
	userExpr := opts.UserExpressions
	if userExpr == nil {
		userExpr = map[string]any{}
	}
	content := map[string]any{
		"code":             opts.Code,
		"silent":           opts.Silent,
		"store_history":    storeHistory,
		"user_expressions": userExpr,
		"allow_stdin":      allowStdin,
		"stop_on_error":    opts.StopOnError,
	}
	return s.SendShellMessage("execute_request", content, true, opts.DisposeOnDone)
}

// KernelInfo requests the kernel's implementation/protocol metadata.
func (s *Session) KernelInfo() (*Future, error) {
	return s.SendShellMessage("kernel_info_request", nil, true, true)
}

// Complete requests completions for code at cursor_pos, per the
// Jupyter messaging spec's complete_request.
func (s *Session) Complete(code string, cursorPos int) (*Future, error) {
	content := map[string]any{"code": code, "cursor_pos": cursorPos}
	return s.SendShellMessage("complete_request", content, true, true)
}

// Inspect requests introspection data for code at cursor_pos.
func (s *Session) Inspect(code string, cursorPos, detailLevel int) (*Future, error) {
	content := map[string]any{
		"code":         code,
		"cursor_pos":   cursorPos,
		"detail_level": detailLevel,
	}
	return s.SendShellMessage("inspect_request", content, true, true)
}

// HistoryOptions customizes a history_request.
type HistoryOptions struct {
	Output         bool
	Raw            bool
	HistAccessType string // "range", "tail", or "search"
	Session        int
	Start          int
	Stop           int
	N              int
	Pattern        string
	Unique         bool
}

// History requests past execution history.
func (s *Session) History(opts HistoryOptions) (*Future, error) {
	content := map[string]any{
		"output":           opts.Output,
		"raw":              opts.Raw,
		"hist_access_type": opts.HistAccessType,
		"session":          opts.Session,
		"start":            opts.Start,
		"stop":             opts.Stop,
		"n":                opts.N,
		"pattern":          opts.Pattern,
		"unique":           opts.Unique,
	}
	return s.SendShellMessage("history_request", content, true, true)
}

// IsComplete asks the kernel whether code is a complete statement.
func (s *Session) IsComplete(code string) (*Future, error) {
	return s.SendShellMessage("is_complete_request", map[string]any{"code": code}, true, true)
}

// CommInfo requests the set of currently open comms, optionally
// filtered by target name (empty means all).
func (s *Session) CommInfo(targetName string) (*Future, error) {
	content := map[string]any{}
	if targetName != "" {
		content["target_name"] = targetName
	}
	return s.SendShellMessage("comm_info_request", content, true, true)
}
