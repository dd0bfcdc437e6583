package drive

import (
	"context"
	"errors"

	"github.com/helalist/hela/pkg/api"
)

func (d *Drive) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	res, err := api.As[*LoginResult](d.API.Post(ctx, "/api/user/login", body))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Token == "" {
		return nil, errors.New("login reply carried no token")
	}
	return res, nil
}

// Logout invalidates the current token on the server and returns its acknowledgement text.
func (d *Drive) Logout(ctx context.Context) (string, error) {
	return api.As[string](d.API.Post(ctx, "/api/user/logout", nil))
}

func (d *Drive) CurrentUser(ctx context.Context) (*User, error) {
	return api.As[*User](d.API.Get(ctx, "/api/user/get"))
}

func (d *Drive) Register(ctx context.Context, user User) error {
	_, err := d.API.Post(ctx, "/api/user/create", user)
	return err
}

func (d *Drive) UpdateUser(ctx context.Context, user User) error {
	_, err := d.API.Post(ctx, "/api/user/update", user)
	return err
}
