package drive

import (
	"context"
	"net/url"

	"github.com/helalist/hela/pkg/api"
)

type createSessionArgs struct {
	UserID string `json:"user_id"`
	Title  string `json:"title,omitempty"`
}

type titleArgs struct {
	Title string `json:"title"`
}

type executeArgs struct {
	Operation string         `json:"operation"`
	Params    map[string]any `json:"params"`
}

func sessionPath(sessionID string) string {
	return "/api/chat/sessions/" + url.PathEscape(sessionID)
}

func (d *Drive) CreateSession(ctx context.Context, userID, title string) (*ChatSession, error) {
	return api.As[*ChatSession](d.API.Post(ctx, "/api/chat/sessions", createSessionArgs{UserID: userID, Title: title}))
}

func (d *Drive) Sessions(ctx context.Context, userID string) ([]ChatSession, error) {
	q := url.Values{"user_id": {userID}}
	return api.As[[]ChatSession](d.API.Get(ctx, "/api/chat/sessions?"+q.Encode()))
}

func (d *Drive) Session(ctx context.Context, sessionID string) (*ChatSession, error) {
	return api.As[*ChatSession](d.API.Get(ctx, sessionPath(sessionID)))
}

func (d *Drive) History(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	return api.As[[]ChatMessage](d.API.Get(ctx, sessionPath(sessionID)+"/history"))
}

func (d *Drive) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := d.API.Delete(ctx, sessionPath(sessionID))
	return err
}

func (d *Drive) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	_, err := d.API.Put(ctx, sessionPath(sessionID), titleArgs{Title: title})
	return err
}

// SendMessage posts a message to a session. An empty SessionID starts a new one.
func (d *Drive) SendMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return api.As[*ChatResponse](d.API.Post(ctx, "/api/chat/message", req))
}

// AIChat asks the assistant a one-off question.
func (d *Drive) AIChat(ctx context.Context, req AIRequest) (*AIReply, error) {
	return api.As[*AIReply](d.API.Post(ctx, "/api/ai/chat", req))
}

// Execute runs a file operation such as list_files or rename_item on behalf of the assistant.
func (d *Drive) Execute(ctx context.Context, operation string, params map[string]any) (*api.Result, error) {
	if params == nil {
		params = map[string]any{}
	}
	return d.API.Post(ctx, "/api/ai/execute", executeArgs{Operation: operation, Params: params})
}
