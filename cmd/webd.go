/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"log/slog"

	"github.com/rotblauer/catfog/common"
	"github.com/rotblauer/catfog/daemon/webd"
	"github.com/rotblauer/catfog/params"
	"github.com/spf13/cobra"
)

var optHTTPAddr string
var optWebdRegions bool

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves fog overlay tiles over HTTP.

  GET  /tiles/{z}/{x}/{y}.png   fog raster for a slippy map tile
  GET  /stats                   snapshot summary
  GET  /socket                  websocket of change events
  POST /import                  snapshot zip body
  POST /erase /draw /undo /redo edits, JSON bodies

Edits are saved to the snapshot as they happen. When ` + webd.TokenEnv + ` is
set, POST routes require it as a Bearer token or api_token query param.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")

		st, db, err := openStore(false, optWebdRegions)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			cancel()
		}()

		config := params.DefaultWebDaemonConfig()
		config.DataDir = datadir()
		config.Address = optHTTPAddr
		server := webd.NewWebDaemon(config, st, db)
		return server.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	pFlags := webdCmd.PersistentFlags()
	pFlags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	pFlags.BoolVar(&optWebdRegions, "regions", false, "tag newly drawn blocks with their country code")
}
