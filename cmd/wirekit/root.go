package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anirudhraja/wirekit"
	"github.com/anirudhraja/wirekit/internal/config"
	"github.com/anirudhraja/wirekit/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	protoDirs  []string
	logLevel   string
}

// inputFlags select where the encoded message comes from.
type inputFlags struct {
	in    string
	isHex bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "wirekit",
		Short:         "Inspect and transcode protobuf wire data without generated code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a wirekit TOML config")
	root.PersistentFlags().StringSliceVar(&flags.protoDirs, "proto-dir", nil, "directories searched for .proto imports (overrides proto_dirs)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(
		newDecodeCmd(&flags),
		newInspectCmd(),
		newRoundtripCmd(&flags),
		newTypesCmd(&flags),
	)
	return root
}

// open builds a Wirekit from the config file and flags and loads schemaFile.
func (f *globalFlags) open(schemaFile string) (*wirekit.Wirekit, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if len(f.protoDirs) > 0 {
		cfg.ProtoDirs = f.protoDirs
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	opts, err := cfg.CodecOptions()
	if err != nil {
		return nil, err
	}

	w, err := wirekit.New(cfg.ProtoDirs,
		wirekit.WithLogger(logging.New("wirekit", cfg.LogLevel)),
		wirekit.WithOptions(opts),
	)
	if err != nil {
		return nil, err
	}
	if err := w.LoadSchemaFromFile(schemaFile); err != nil {
		return nil, err
	}
	w.Freeze()
	return w, nil
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.in, "in", "", "input file (default stdin)")
	cmd.Flags().BoolVar(&in.isHex, "hex", false, "input is hex text instead of raw bytes")
}

func (in *inputFlags) read(stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if in.in == "" || in.in == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(in.in)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if !in.isHex {
		return data, nil
	}
	text := strings.Join(strings.Fields(string(data)), "")
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return decoded, nil
}
