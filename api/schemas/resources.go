package schemas

import "time"

// ResourceStatus is the lifecycle state of a control-plane resource.
type ResourceStatus string

const (
	StatusCreating ResourceStatus = "CREATING"
	StatusReady    ResourceStatus = "READY"
	StatusUpdating ResourceStatus = "UPDATING"
	StatusDeleting ResourceStatus = "DELETING"
	StatusFailed   ResourceStatus = "FAILED"
)

// Built-in data plane identifiers usable without creating a resource.
const (
	SystemBrowserID     = "aws.browser.v1"
	SystemInterpreterID = "aws.codeinterpreter.v1"
)

// AgentRuntime is a hosted agent runtime resource.
type AgentRuntime struct {
	ARN          string            `json:"agentRuntimeArn"`
	ID           string            `json:"agentRuntimeId"`
	Name         string            `json:"agentRuntimeName"`
	Version      string            `json:"agentRuntimeVersion,omitempty"`
	Status       ResourceStatus    `json:"status"`
	Description  string            `json:"description,omitempty"`
	RoleARN      string            `json:"roleArn,omitempty"`
	ContainerURI string            `json:"containerUri,omitempty"`
	Environment  map[string]string `json:"environmentVariables,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"lastUpdatedAt,omitempty"`
}

// CreateAgentRuntimeInput is the control-plane creation request.
type CreateAgentRuntimeInput struct {
	Name         string            `json:"agentRuntimeName"`
	Description  string            `json:"description,omitempty"`
	RoleARN      string            `json:"roleArn"`
	ContainerURI string            `json:"containerUri"`
	Environment  map[string]string `json:"environmentVariables,omitempty"`
}

// BrowserResource is a managed browser sandbox definition.
type BrowserResource struct {
	ARN         string         `json:"browserArn"`
	ID          string         `json:"browserId"`
	Name        string         `json:"name"`
	Status      ResourceStatus `json:"status"`
	Description string         `json:"description,omitempty"`
	RoleARN     string         `json:"executionRoleArn,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// CreateBrowserInput is the control-plane creation request.
type CreateBrowserInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RoleARN     string `json:"executionRoleArn,omitempty"`
}

// CodeInterpreterResource is a managed code-interpreter definition.
type CodeInterpreterResource struct {
	ARN         string         `json:"codeInterpreterArn"`
	ID          string         `json:"codeInterpreterId"`
	Name        string         `json:"name"`
	Status      ResourceStatus `json:"status"`
	Description string         `json:"description,omitempty"`
	RoleARN     string         `json:"executionRoleArn,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// CreateCodeInterpreterInput is the control-plane creation request.
type CreateCodeInterpreterInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RoleARN     string `json:"executionRoleArn,omitempty"`
}

// BrowserSession is an active browser sandbox session. The automation
// stream exposes a CDP WebSocket endpoint plus the headers required to
// authorize the upgrade.
type BrowserSession struct {
	SessionID  string            `json:"sessionId"`
	BrowserID  string            `json:"browserIdentifier"`
	Status     string            `json:"status"`
	WSEndpoint string            `json:"-"`
	WSHeaders  map[string]string `json:"-"`
	CreatedAt  time.Time         `json:"createdAt,omitempty"`
	TimeoutSec int               `json:"sessionTimeoutSeconds,omitempty"`
}

// InterpreterSession is an active code-interpreter session.
type InterpreterSession struct {
	SessionID     string    `json:"sessionId"`
	InterpreterID string    `json:"codeInterpreterIdentifier"`
	Name          string    `json:"name,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	TimeoutSec    int       `json:"sessionTimeoutSeconds,omitempty"`
}
