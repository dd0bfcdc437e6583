package request

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helalist/hela/pkg/api"
	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/optname"
)

const longDesc = `
'request' sends one raw call through the API dispatcher and prints the unwrapped payload. It is
the escape hatch for endpoints that have no dedicated command.

--data is sent as JSON; prefix it with @ to read it from a file or @- for stdin. --form sends
multipart form data instead, where values starting with @ are uploaded as files.
`

const requestExamples = `
  hela request GET /api/storage/all

  hela request POST /api/fs/mkdir --data '{"path":"/new"}'

  hela request POST /api/fs/put --form path=/docs --form file=@report.pdf
`

const formFlag = "form"

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request <method> <path>",
		Short:   "send a raw API call",
		Long:    longDesc,
		Example: requestExamples,
		Args:    cobra.ExactArgs(2),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			req, cleanup, err := BuildRequest(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			defer cleanup()
			res, err := c.API.Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			return p.Print(res)
		}),
	}
	cmd.Flags().StringP(optname.Data, "d", "", "JSON request body, @file or @- for stdin")
	cmd.Flags().StringArrayP(optname.Header, "H", nil, "Extra header as 'Name: value' (repeatable)")
	cmd.Flags().StringArrayP(formFlag, "F", nil, "Multipart field as name=value or name=@file (repeatable)")
	cmd.MarkFlagsMutuallyExclusive(optname.Data, formFlag)
	return cmd
}

// BuildRequest assembles a dispatcher request from the command flags. cleanup closes any files
// opened for a form upload.
func BuildRequest(cmd *cobra.Command, method, path string) (api.Request, func(), error) {
	req := api.Request{Method: strings.ToUpper(method), Path: path}
	var files []*os.File
	cleanup := func() {
		for _, f := range files {
			f.Close()
		}
	}

	headers, _ := cmd.Flags().GetStringArray(optname.Header)
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return req, cleanup, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		if req.Header == nil {
			req.Header = map[string]string{}
		}
		req.Header[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	data, _ := cmd.Flags().GetString(optname.Data)
	if data != "" {
		raw, err := readData(cmd, data)
		if err != nil {
			return req, cleanup, err
		}
		if !json.Valid(raw) {
			return req, cleanup, fmt.Errorf("--%s is not valid JSON", optname.Data)
		}
		req.Body = json.RawMessage(raw)
	}

	fields, _ := cmd.Flags().GetStringArray(formFlag)
	if len(fields) > 0 {
		form := api.NewForm()
		for _, field := range fields {
			name, value, ok := strings.Cut(field, "=")
			if !ok || name == "" {
				return req, cleanup, fmt.Errorf("invalid form field %q, expected name=value", field)
			}
			if file, isFile := strings.CutPrefix(value, "@"); isFile {
				f, err := os.Open(file)
				if err != nil {
					return req, cleanup, fmt.Errorf("open %s: %w", file, err)
				}
				files = append(files, f)
				form.AddFile(name, filepath.Base(file), f)
				continue
			}
			form.AddField(name, value)
		}
		req.Body = form
	}
	return req, cleanup, nil
}

func readData(cmd *cobra.Command, data string) ([]byte, error) {
	source, fromFile := strings.CutPrefix(data, "@")
	if !fromFile {
		return []byte(data), nil
	}
	if source == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return raw, nil
}
