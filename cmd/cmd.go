package cmd

import (
	"github.com/spf13/cobra"

	"github.com/helalist/hela/cmd/ai"
	"github.com/helalist/hela/cmd/chat"
	"github.com/helalist/hela/cmd/download"
	"github.com/helalist/hela/cmd/fs"
	"github.com/helalist/hela/cmd/request"
	"github.com/helalist/hela/cmd/root"
	"github.com/helalist/hela/cmd/storage"
	"github.com/helalist/hela/cmd/user"
	"github.com/helalist/hela/cmd/version"
)

func GetRootCommand() (*cobra.Command, error) {
	rootCMD, err := root.GetCommand()
	if err != nil {
		return nil, err
	}
	downloadCMD, err := download.GetCommand()
	if err != nil {
		return nil, err
	}
	rootCMD.AddCommand(user.GetCommands()...)
	rootCMD.AddCommand(
		fs.GetCommand(),
		storage.GetCommand(),
		chat.GetCommand(),
		ai.GetCommand(),
		downloadCMD,
		request.GetCommand(),
		version.GetCommand(),
	)
	return rootCMD, nil
}
