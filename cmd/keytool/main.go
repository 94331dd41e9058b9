package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/overnest/strongsalt-keytool-go/config"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/pipeline"
)

type app struct {
	configPath string
	envFile    string
	pipeline   *pipeline.Pipeline
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "keytool",
		Short:         "Create, convert, encrypt and verify asymmetric keys",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml (env KEYTOOL_CONFIG)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "path to a .env file")

	root.AddCommand(
		a.createCmd(),
		a.convertCmd(),
		a.encryptCmd(),
		a.decryptCmd(),
		a.verifyCmd(),
		a.fingerprintCmd(),
		a.signCmd(),
		a.verifySignatureCmd(),
	)
	return root
}

func (a *app) init() error {
	if a.envFile != "" {
		_ = godotenv.Load(a.envFile)
	}
	path := a.configPath
	if path == "" {
		path = os.Getenv("KEYTOOL_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "keytool"})
	a.pipeline = pipeline.New(cfg)
	return nil
}
