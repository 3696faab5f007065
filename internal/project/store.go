package project

import "context"

// Store persists projects. All lookups are tenant-scoped.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, tenantID, id string) (*Project, error)
	List(ctx context.Context, tenantID string) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
}
