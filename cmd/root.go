// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// Global behavior flags
	cfgFile string
	verbose bool

	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "dm32prog",
	Short: "DM-32 radio programmer",
	Long: `dm32prog - programming tool for DM-32 series DMR transceivers.

Reads and writes the radio's configuration (channels, zones, scan lists,
contacts and more) over a USB serial link. A full read is saved as a snapshot
file, which write sends back to the radio; nothing is programmed without a
snapshot to program from.

Typical session:
  dm32prog ports
  dm32prog read  --port /dev/ttyUSB0 radio.dm32
  dm32prog write --port /dev/ttyUSB0 radio.dm32

Defaults for --port and --baud can be placed in a config file
(~/.config/dm32prog/config.yaml); flags take precedence.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		initLogger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/dm32prog/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log wire traffic and protocol details")

	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
}

// loadConfig merges the optional config file under the flags: a flag that was
// not set on the command line takes its value from the file.
func loadConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dm32prog"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil // no config file is fine
		}
		return fmt.Errorf("read config: %w", err)
	}
	portName = viper.GetString("port")
	baudRate = viper.GetInt("baud")
	return nil
}

func initLogger() {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(pe)

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), level)
	logger = zap.New(core).Sugar()
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if logger != nil {
		logger.Sync()
	}
	return err
}
