package api

import "encoding/json"

// OperationList is returned by GET /api/v1/operations.
type OperationList struct {
	Generation string          `json:"generation"`
	Operations []OperationInfo `json:"operations"`
}

type OperationInfo struct {
	ID          string      `json:"id"`
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	Params      []ParamInfo `json:"params,omitempty"`
	Required    []string    `json:"required,omitempty"`
	Accept      string      `json:"accept,omitempty"`
	ContentType string      `json:"contentType,omitempty"`
}

type ParamInfo struct {
	Name     string `json:"name"`
	Wire     string `json:"wire"`
	In       string `json:"in"`
	Required bool   `json:"required"`
}

// DescribeResponse is the request an invocation would send.
type DescribeResponse struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

type ErrorResponse struct {
	Error          string          `json:"error"`
	Operation      string          `json:"operation,omitempty"`
	Missing        []string        `json:"missing,omitempty"`
	UpstreamStatus int             `json:"upstreamStatus,omitempty"`
	Upstream       json.RawMessage `json:"upstream,omitempty"`
}
