package provider

import (
	"context"
	"errors"
	"time"

	"github.com/vietdv277/awsfree/pkg/types"
)

// Common errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrLimitExceeded    = errors.New("limit exceeded")
	ErrNotRunning       = errors.New("instance is not running")
	ErrDuplicate        = errors.New("resource already exists")
)

// InstanceFilter contains filters for instance listing
type InstanceFilter struct {
	States       []types.InstanceState // empty means running only
	InstanceType string
}

// RunOptions describes a single-instance launch request
type RunOptions struct {
	ImageID          string
	InstanceType     string
	KeyName          string // optional
	SecurityGroupIDs []string
	Tags             map[string]string
}

// StateChange reports the transition caused by a terminate call
type StateChange struct {
	InstanceID string
	Previous   types.InstanceState
	Current    types.InstanceState
}

// ImageQuery selects the newest image matching one of NamePatterns,
// tried in order
type ImageQuery struct {
	Owner        string
	NamePatterns []string
	Architecture string
}

// ComputeProvider defines the instance operations the free tier manager needs
type ComputeProvider interface {
	// Region returns the region all calls are issued against
	Region() string

	// ListInstances returns instances matching the filter
	ListInstances(ctx context.Context, filter *InstanceFilter) ([]types.Instance, error)

	// GetInstance returns a single instance by ID
	GetInstance(ctx context.Context, id string) (*types.Instance, error)

	// LatestImage resolves the newest image for the query
	LatestImage(ctx context.Context, query *ImageQuery) (*types.Image, error)

	// EnsureSecurityGroup looks a security group up by name, creating it
	// with SSH ingress when it does not exist
	EnsureSecurityGroup(ctx context.Context, name string) (*types.SecurityGroup, error)

	// RunInstance launches exactly one instance and returns its ID
	RunInstance(ctx context.Context, opts *RunOptions) (string, error)

	// WaitRunning blocks until the instance is running or maxWait elapses
	WaitRunning(ctx context.Context, id string, maxWait time.Duration) (*types.Instance, error)

	// TerminateInstance terminates an instance
	TerminateInstance(ctx context.Context, id string) (*StateChange, error)
}

// KeyRegistry defines the key pair operations on the provider side
type KeyRegistry interface {
	// KeyPairExists reports whether a key pair with this name is registered
	KeyPairExists(ctx context.Context, name string) (bool, error)

	// ImportKeyPair registers a public key under name and returns its fingerprint
	ImportKeyPair(ctx context.Context, name string, publicKey []byte) (string, error)
}

// IdentityProvider resolves the identity behind the configured credentials
type IdentityProvider interface {
	CallerIdentity(ctx context.Context) (*types.CallerIdentity, error)
}
