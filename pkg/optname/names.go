package optname

const (
	ChunkSize       = "chunk-size"
	Concurrency     = "concurrency"
	ConnTimeout     = "connect-timeout"
	CredentialsFile = "credentials-file"
	Data            = "data"
	Extract         = "extract"
	Force           = "force"
	ForceHTTP2      = "force-http2"
	Header          = "header"
	LoggingLevel    = "log-level"
	Output          = "output"
	OutputConsumer  = "output-consumer"
	Quiet           = "quiet"
	Query           = "query"
	Retries         = "retries"
	Server          = "server"
	Token           = "token"
	Verbose         = "verbose"
)
