// Package provider defines the boundary to the remote cloud the instances
// are created on. Implementations translate provider-specific failures into
// a closed set of fault kinds so callers never inspect raw errors.
package provider

import (
	"context"
	"fmt"
)

// FaultKind classifies a provisioning failure.
type FaultKind string

const (
	// FaultClient covers credential and authorization rejections.
	FaultClient FaultKind = "client"
	// FaultConnection covers transport failures reaching the provider.
	FaultConnection FaultKind = "connection"
	// FaultCatalog means the provider returned no usable image or flavor.
	FaultCatalog FaultKind = "catalog"
	// FaultUnknown covers anything not otherwise classified.
	FaultUnknown FaultKind = "unknown"
)

// Fault is a classified provisioning error.
type Fault struct {
	Kind FaultKind
	Err  error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s fault: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s fault", f.Kind)
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault creates a classified fault.
func NewFault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}

// Instance statuses reported by GetInstance. StatusBuilding is the only
// transient status; everything else ends polling.
const (
	StatusBuilding = "building"
	StatusActive   = "active"
	StatusError    = "error"
)

// Image is a bootable image offered by the provider.
type Image struct {
	ID   string
	Name string
}

// Flavor is an instance size offered by the provider.
type Flavor struct {
	ID   string
	Name string
}

// Instance is a created compute instance.
type Instance struct {
	ID     string
	Status string
}

// Credentials identify the caller against the provider endpoint.
type Credentials struct {
	Endpoint string
	Username string
	Password string
	Project  string
}

// Client is the remote provisioning capability. All errors returned by
// implementations are *Fault values.
type Client interface {
	ListImages(ctx context.Context) ([]Image, error)
	ListFlavors(ctx context.Context) ([]Flavor, error)
	CreateInstance(ctx context.Context, name string, image Image, flavor Flavor, count int) (*Instance, error)
	GetInstance(ctx context.Context, id string) (*Instance, error)
}

// Factory builds a Client for the given credentials. Each submission carries
// its own credentials, so clients are constructed per chain instance.
type Factory func(creds Credentials) Client
