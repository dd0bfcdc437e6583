package drive

import (
	"context"
	"io"
	"net/http"

	"github.com/helalist/hela/pkg/api"
)

type pathArgs struct {
	Path string `json:"path"`
}

type srcDstArgs struct {
	SrcPath string `json:"src_path"`
	DstPath string `json:"dst_path"`
}

type renameArgs struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// List returns the entries of a directory. refresh asks the server to bypass its listing cache.
func (d *Drive) List(ctx context.Context, path string, refresh bool) (*ListResult, error) {
	req := api.Request{Method: http.MethodGet, Path: "/api/fs/list" + escapePath(path)}
	if refresh {
		req.Path += "?refresh=true"
	}
	return api.As[*ListResult](d.API.Do(ctx, req))
}

func (d *Drive) Dirs(ctx context.Context, path string) ([]Dir, error) {
	return api.As[[]Dir](d.API.Get(ctx, "/api/fs/dirs"+escapePath(path)))
}

func (d *Drive) Stat(ctx context.Context, path string) (*Obj, error) {
	return api.As[*Obj](d.API.Get(ctx, "/api/fs/get"+escapePath(path)))
}

func (d *Drive) Mkdir(ctx context.Context, path string) error {
	_, err := d.API.Post(ctx, "/api/fs/mkdir", pathArgs{Path: path})
	return err
}

func (d *Drive) Rename(ctx context.Context, path, name string) error {
	_, err := d.API.Post(ctx, "/api/fs/rename", renameArgs{Path: path, Name: name})
	return err
}

func (d *Drive) Remove(ctx context.Context, path string) error {
	_, err := d.API.Post(ctx, "/api/fs/remove", pathArgs{Path: path})
	return err
}

func (d *Drive) Move(ctx context.Context, src, dst string) error {
	_, err := d.API.Post(ctx, "/api/fs/move", srcDstArgs{SrcPath: src, DstPath: dst})
	return err
}

func (d *Drive) Copy(ctx context.Context, src, dst string) error {
	_, err := d.API.Post(ctx, "/api/fs/copy", srcDstArgs{SrcPath: src, DstPath: dst})
	return err
}

// Put uploads content as filename into the directory dir.
func (d *Drive) Put(ctx context.Context, dir, filename string, content io.Reader) error {
	form := api.NewForm().
		AddField("path", dir).
		AddFile("file", filename, content)
	_, err := d.API.Post(ctx, "/api/fs/put", form)
	return err
}

func (d *Drive) Link(ctx context.Context, path string) (*Link, error) {
	return api.As[*Link](d.API.Post(ctx, "/api/fs/link", pathArgs{Path: path}))
}

// DownloadPath is the route that streams the content of path. It is fetched through the download
// stream manager rather than the dispatcher.
func DownloadPath(path string) string {
	return "/api/fs/download" + escapePath(path)
}
