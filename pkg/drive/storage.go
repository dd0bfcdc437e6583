package drive

import (
	"context"

	"github.com/google/uuid"

	"github.com/helalist/hela/pkg/api"
)

type hasReply struct {
	Has bool `json:"has"`
}

// CreateStorage mounts a new backend and returns the ID the server assigned.
func (d *Drive) CreateStorage(ctx context.Context, s Storage) (uuid.UUID, error) {
	reply, err := api.As[Message](d.API.Post(ctx, "/api/storage/create", s))
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(reply.ID)
}

func (d *Drive) Storages(ctx context.Context) ([]Storage, error) {
	return api.As[[]Storage](d.API.Get(ctx, "/api/storage/all"))
}

func (d *Drive) StorageByMountPath(ctx context.Context, mountPath string) (*Storage, error) {
	return api.As[*Storage](d.API.Get(ctx, "/api/storage"+escapePath(mountPath)))
}

func (d *Drive) HasStorage(ctx context.Context, mountPath string) (bool, error) {
	reply, err := api.As[hasReply](d.API.Get(ctx, "/api/storage/has"+escapePath(mountPath)))
	return reply.Has, err
}

func (d *Drive) LoadStorage(ctx context.Context, s Storage) error {
	_, err := d.API.Post(ctx, "/api/storage/load", s)
	return err
}

func (d *Drive) UpdateStorage(ctx context.Context, s Storage) error {
	_, err := d.API.Post(ctx, "/api/storage/update", s)
	return err
}

func (d *Drive) DeleteStorage(ctx context.Context, id uuid.UUID) error {
	_, err := d.API.Delete(ctx, "/api/storage/"+id.String())
	return err
}
