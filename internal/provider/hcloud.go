package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// HCloudClient implements Client against the Hetzner Cloud API.
type HCloudClient struct {
	client *hcloud.Client
}

// NewHCloudFactory returns a Factory producing Hetzner-backed clients.
// The API token travels in the password field of the submission; endpoint
// overrides the default API URL when set.
func NewHCloudFactory() Factory {
	return func(creds Credentials) Client {
		opts := []hcloud.ClientOption{hcloud.WithToken(creds.Password)}
		if creds.Endpoint != "" {
			opts = append(opts, hcloud.WithEndpoint(creds.Endpoint))
		}
		return &HCloudClient{client: hcloud.NewClient(opts...)}
	}
}

// NewHCloudClient wraps an existing hcloud client (useful for testing).
func NewHCloudClient(c *hcloud.Client) *HCloudClient {
	return &HCloudClient{client: c}
}

// ListImages returns the system images visible to the caller.
func (c *HCloudClient) ListImages(ctx context.Context) ([]Image, error) {
	images, err := c.client.Image.AllWithOpts(ctx, hcloud.ImageListOpts{
		Type: []hcloud.ImageType{hcloud.ImageTypeSystem},
	})
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Image, 0, len(images))
	for _, img := range images {
		out = append(out, Image{ID: strconv.FormatInt(img.ID, 10), Name: img.Name})
	}
	return out, nil
}

// ListFlavors returns the server types visible to the caller.
func (c *HCloudClient) ListFlavors(ctx context.Context) ([]Flavor, error) {
	types, err := c.client.ServerType.All(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Flavor, 0, len(types))
	for _, t := range types {
		out = append(out, Flavor{ID: strconv.FormatInt(t.ID, 10), Name: t.Name})
	}
	return out, nil
}

// CreateInstance creates count servers and returns the first one.
func (c *HCloudClient) CreateInstance(ctx context.Context, name string, image Image, flavor Flavor, count int) (*Instance, error) {
	imageID, err := strconv.ParseInt(image.ID, 10, 64)
	if err != nil {
		return nil, NewFault(FaultUnknown, fmt.Errorf("bad image id %q: %w", image.ID, err))
	}
	flavorID, err := strconv.ParseInt(flavor.ID, 10, 64)
	if err != nil {
		return nil, NewFault(FaultUnknown, fmt.Errorf("bad flavor id %q: %w", flavor.ID, err))
	}
	if count != 1 {
		return nil, NewFault(FaultUnknown, fmt.Errorf("unsupported instance count %d", count))
	}

	result, _, err := c.client.Server.Create(ctx, hcloud.ServerCreateOpts{
		Name:       name,
		Image:      &hcloud.Image{ID: imageID},
		ServerType: &hcloud.ServerType{ID: flavorID},
	})
	if err != nil {
		return nil, classify(err)
	}
	return &Instance{
		ID:     strconv.FormatInt(result.Server.ID, 10),
		Status: mapStatus(result.Server.Status),
	}, nil
}

// GetInstance returns the current status of a server.
func (c *HCloudClient) GetInstance(ctx context.Context, id string) (*Instance, error) {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, NewFault(FaultUnknown, fmt.Errorf("bad instance id %q: %w", id, err))
	}
	server, _, err := c.client.Server.GetByID(ctx, serverID)
	if err != nil {
		return nil, classify(err)
	}
	if server == nil {
		return nil, NewFault(FaultClient, fmt.Errorf("instance %s not found", id))
	}
	return &Instance{
		ID:     strconv.FormatInt(server.ID, 10),
		Status: mapStatus(server.Status),
	}, nil
}

// mapStatus folds the provider's status set into the chain's view: anything
// still coming up is "building", a running server is "active", the rest pass
// through as terminal statuses.
func mapStatus(s hcloud.ServerStatus) string {
	switch s {
	case hcloud.ServerStatusInitializing, hcloud.ServerStatusStarting:
		return StatusBuilding
	case hcloud.ServerStatusRunning:
		return StatusActive
	default:
		return string(s)
	}
}

// classify maps an hcloud API error onto the fault taxonomy. API errors with
// auth-related codes become client faults, other API errors stay client
// faults too (the request reached the provider); anything else is a
// transport-level connection fault.
func classify(err error) *Fault {
	var apiErr hcloud.Error
	if errors.As(err, &apiErr) {
		return NewFault(FaultClient, err)
	}
	return NewFault(FaultConnection, err)
}
