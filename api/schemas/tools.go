package schemas

import "encoding/json"

// ToolName identifies a named remote operation of the code-interpreter
// data plane.
type ToolName string

const (
	ToolExecuteCommand ToolName = "executeCommand"
	ToolExecuteCode    ToolName = "executeCode"
	ToolReadFiles      ToolName = "readFiles"
	ToolWriteFiles     ToolName = "writeFiles"
	ToolListFiles      ToolName = "listFiles"
	ToolRemoveFiles    ToolName = "removeFiles"
)

// KnownTools lists every tool the client will dispatch. Unknown names
// are rejected before a request is made.
var KnownTools = map[ToolName]struct{}{
	ToolExecuteCommand: {},
	ToolExecuteCode:    {},
	ToolReadFiles:      {},
	ToolWriteFiles:     {},
	ToolListFiles:      {},
	ToolRemoveFiles:    {},
}

// ExecuteCommandArgs runs a shell command inside the sandbox.
type ExecuteCommandArgs struct {
	Command string `json:"command"`
}

// ExecuteCodeArgs runs a code snippet inside the sandbox.
type ExecuteCodeArgs struct {
	Code         string `json:"code"`
	Language     string `json:"language,omitempty"`
	ClearContext bool   `json:"clearContext,omitempty"`
}

// FileContent is one file transferred to or from the sandbox.
type FileContent struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// WriteFilesArgs uploads files into the sandbox filesystem.
type WriteFilesArgs struct {
	Content []FileContent `json:"content"`
}

// ReadFilesArgs downloads files from the sandbox filesystem.
type ReadFilesArgs struct {
	Paths []string `json:"paths"`
}

// ListFilesArgs lists a sandbox directory.
type ListFilesArgs struct {
	Path string `json:"path,omitempty"`
}

// RemoveFilesArgs deletes sandbox files.
type RemoveFilesArgs struct {
	Paths []string `json:"paths"`
}

// ContentBlock is one element of a tool result's content list.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// CommandOutput is the structured result of command or code execution.
type CommandOutput struct {
	Stdout        string  `json:"stdout,omitempty"`
	Stderr        string  `json:"stderr,omitempty"`
	ExitCode      int     `json:"exitCode"`
	ExecutionTime float64 `json:"executionTime,omitempty"`
}

// ToolResult is the generic JSON result of a named tool invocation.
type ToolResult struct {
	IsError           bool            `json:"isError,omitempty"`
	Content           []ContentBlock  `json:"content,omitempty"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
}

// Output decodes the structured content as a CommandOutput. Tools that
// do not execute anything return a zero value.
func (r *ToolResult) Output() (CommandOutput, error) {
	var out CommandOutput
	if len(r.StructuredContent) == 0 {
		return out, nil
	}
	err := json.Unmarshal(r.StructuredContent, &out)
	return out, err
}

// Text joins all textual content blocks.
func (r *ToolResult) Text() string {
	var s string
	for _, c := range r.Content {
		if c.Text == "" {
			continue
		}
		if s != "" {
			s += "\n"
		}
		s += c.Text
	}
	return s
}
