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
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/catfog/common"
	"github.com/rotblauer/catfog/fogdb"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/rgeo"
	"github.com/rotblauer/catfog/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catfog",
	Short: "Edit and render fog-of-war snapshots",
	Long: `catfog keeps a fog-of-war snapshot of everywhere you have been.

The snapshot is a sparse grid of 512x512 tiles, each holding up to 128x128
blocks of 64x64 visited pixels. Snapshot folders exported by the phone app
can be imported, edited (erase a box, draw a line, undo, redo), rendered
as slippy map overlay tiles, exported back to zip, or traced to GPX.

The working snapshot lives in $datadir/fog.db.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.catfog.yaml)")
	pFlags.String("datadir", params.DefaultDatadirRoot, "directory holding the fog snapshot")
	pFlags.String("log-level", "info", "log level: debug, info, warn, error")
	pFlags.String("log-format", "text", "log format: text or json")
	pFlags.String("log-file", "", "also write logs to this file, rotated by size")

	compositorDefaults := params.DefaultCompositorConfig()
	pFlags.Int("raster-bits", compositorDefaults.RasterBits, "rendered tiles are 2^bits pixels wide")
	pFlags.Uint("opacity", uint(compositorDefaults.FogOpacity), "fog opacity, 0-255")
	pFlags.Int("history", params.MaxHistorySize, "undo history size")

	for _, name := range []string{
		"datadir", "log-level", "log-format", "log-file",
		"raster-bits", "opacity", "history",
	} {
		_ = viper.BindPFlag(name, pFlags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".catfog")
	}

	viper.SetEnvPrefix("CATFOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaultSlog installs the default logger from the log flags.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	var w io.Writer = os.Stderr
	if file := viper.GetString("log-file"); file != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			Compress:   true,
		})
	}
	level := common.ParseSlogLevel(viper.GetString("log-level"))
	slog.SetDefault(slog.New(common.NewSlogHandler(w, viper.GetString("log-format"), level)))
	slog.Debug("Logger ready", "cmd", cmd.Name(), "args", args, "level", level)
}

func datadir() string {
	return viper.GetString("datadir")
}

// clampOpacity saturates v at fully opaque.
func clampOpacity(v uint) uint8 {
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}

// storeConfig assembles the store configuration from viper.
func storeConfig(withRegions bool) (store.Config, error) {
	cfg := store.DefaultConfig()
	cfg.Compositor.RasterBits = viper.GetInt("raster-bits")
	cfg.Compositor.FogOpacity = clampOpacity(viper.GetUint("opacity"))
	cfg.History.MaxSize = viper.GetInt("history")
	if withRegions {
		coder, err := rgeo.NewCountryCoder()
		if err != nil {
			return cfg, err
		}
		cfg.RegionCoder = coder
	}
	return cfg, nil
}

// openStore opens the snapshot database and loads a store over it.
// The caller must close the returned DB.
func openStore(readOnly, withRegions bool) (*store.Store, *fogdb.DB, error) {
	cfg, err := storeConfig(withRegions)
	if err != nil {
		return nil, nil, err
	}
	path := params.SnapshotDBPath(datadir())
	if readOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("no snapshot at %s, import one first", path)
		}
	}
	db, err := fogdb.Open(path, readOnly)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Load(db, cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, db, nil
}
