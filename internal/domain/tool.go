package domain

import "encoding/json"

// ToolKind classifies a tool as read-only or state-mutating.
type ToolKind string

const (
	ToolObservable ToolKind = "observable"
	ToolActionable ToolKind = "actionable"
)

// ToolDefinition describes one invocable operation. Name is always fully
// qualified: `<namespace>.<local-name>`, where local-name may itself
// contain dots.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema any
	Kind        ToolKind
}

// ContentItem is one element of a tool-call content envelope.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the content envelope returned by tools/call. IsError
// distinguishes "the operation ran and failed" from a transport or
// protocol failure, which never produces a ToolResult at all.
type ToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError"`
}

func TextResult(text string) *ToolResult {
	return &ToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
	}
}

func ErrorResult(text string) *ToolResult {
	return &ToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: true,
	}
}

// MarshalResult serializes an arbitrary provider result into a text
// envelope.
func MarshalResult(value any) (*ToolResult, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return TextResult(string(raw)), nil
}
