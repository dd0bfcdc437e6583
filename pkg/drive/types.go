package drive

import (
	"time"

	"github.com/google/uuid"
)

const (
	IdentityAdmin = iota
	IdentityGeneral
	IdentityGuest
)

type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"password,omitempty"`
	BasePath   string    `json:"base_path"`
	Identity   int       `json:"identity"`
	Disabled   bool      `json:"disabled"`
	PasswordTS int64     `json:"password_ts,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Identity == IdentityAdmin
}

func (u *User) IsGuest() bool {
	return u.Identity == IdentityGuest
}

func (u *User) Role() string {
	switch u.Identity {
	case IdentityAdmin:
		return "admin"
	case IdentityGeneral:
		return "general"
	case IdentityGuest:
		return "guest"
	default:
		return "unknown"
	}
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Storage is a mounted backend.
type Storage struct {
	ID              uuid.UUID `json:"id"`
	MountPath       string    `json:"mount_path"`
	Order           int       `json:"order"`
	Driver          string    `json:"driver"`
	CacheExpiration int       `json:"cache_expiration"`
	Status          string    `json:"status"`
	Addition        string    `json:"addition"`
	Remark          string    `json:"remark"`
	ModifiedTime    time.Time `json:"modified_time"`
	Disabled        bool      `json:"disabled"`

	OrderBy        string `json:"order_by"`
	OrderDirection string `json:"order_direction"`
	ExtractFolder  string `json:"extract_folder"`

	WebProxy         bool   `json:"web_proxy"`
	WebdavPolicy     string `json:"webdav_policy"`
	ProxyRange       bool   `json:"proxy_range"`
	DownProxyURL     string `json:"down_proxy_url"`
	DisableProxySign bool   `json:"disable_proxy_sign"`
}

// Obj is a file or directory entry.
type Obj struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	IsDir    bool      `json:"is_dir"`
	Modified time.Time `json:"modified"`
	Created  time.Time `json:"created"`
}

type ListResult struct {
	Content []Obj `json:"content"`
	Total   int64 `json:"total"`
	Write   bool  `json:"write"`
}

type Dir struct {
	Name     string    `json:"name"`
	Modified time.Time `json:"modified"`
}

// Link is a resolved download location for a file.
type Link struct {
	URL         string              `json:"url"`
	Header      map[string][]string `json:"header"`
	Concurrency int                 `json:"concurrency"`
	PartSize    int                 `json:"part_size"`
}

type ChatSession struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Metadata  *string   `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
	UseRAG    bool   `json:"use_rag,omitempty"`
}

type ChatResponse struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Context   []RAGContext `json:"context,omitempty"`
}

type RAGContext struct {
	Source     string  `json:"source"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type AIRequest struct {
	Message   string   `json:"message"`
	UseRAG    bool     `json:"use_rag,omitempty"`
	FilePaths []string `json:"file_paths,omitempty"`
}

type AIReply struct {
	Reply   string     `json:"reply"`
	Actions []AIAction `json:"actions,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// AIAction is a file operation suggested by the assistant. It can be replayed with Execute.
type AIAction struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}
