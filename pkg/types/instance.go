package types

import "time"

// InstanceState represents the lifecycle state of an EC2 instance
type InstanceState string

const (
	InstanceStatePending      InstanceState = "pending"
	InstanceStateRunning      InstanceState = "running"
	InstanceStateShuttingDown InstanceState = "shutting-down"
	InstanceStateStopping     InstanceState = "stopping"
	InstanceStateStopped      InstanceState = "stopped"
	InstanceStateTerminated   InstanceState = "terminated"
	InstanceStateUnknown      InstanceState = "unknown"
)

// ActiveStates are the states counted against the one-instance free tier limit
var ActiveStates = []InstanceState{
	InstanceStatePending,
	InstanceStateRunning,
	InstanceStateStopping,
	InstanceStateStopped,
}

// Instance represents an EC2 instance as seen by a single describe call
type Instance struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`        // Name tag
	State      InstanceState     `json:"state"`       // pending, running, stopped, ...
	Type       string            `json:"type"`        // t3.micro
	PublicIP   string            `json:"public_ip"`   // empty when not assigned
	PrivateIP  string            `json:"private_ip"`
	AZ         string            `json:"az"`
	KeyName    string            `json:"key_name"`    // key pair the instance was launched with
	LaunchTime time.Time         `json:"launch_time"`
	Tags       map[string]string `json:"tags"`
}

// IsRunning returns true if the instance is running
func (i *Instance) IsRunning() bool {
	return i.State == InstanceStateRunning
}

// IsTerminated returns true if the instance has been terminated
func (i *Instance) IsTerminated() bool {
	return i.State == InstanceStateTerminated
}

// GetTag returns a tag value by key
func (i *Instance) GetTag(key string) string {
	if i.Tags == nil {
		return ""
	}
	return i.Tags[key]
}

// StateStrings converts states to the string values used in API filters
func StateStrings(states []InstanceState) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, string(s))
	}
	return out
}
