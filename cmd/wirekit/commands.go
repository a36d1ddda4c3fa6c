package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/anirudhraja/wirekit"
)

func newDecodeCmd(flags *globalFlags) *cobra.Command {
	var (
		input        inputFlags
		schemaFile   string
		typeName     string
		noExtensions bool
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a message and print it as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := flags.open(schemaFile)
			if err != nil {
				return err
			}
			data, err := input.read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			var opts []wirekit.DecodeOption
			if noExtensions {
				opts = append(opts, wirekit.WithoutExtensions())
			}
			m, err := w.Unmarshal(data, typeName, opts...)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), renderMessage(m))
		},
	}
	input.register(cmd)
	cmd.Flags().StringVar(&schemaFile, "schema", "", ".proto file declaring the type")
	cmd.Flags().StringVar(&typeName, "type", "", "message type to decode")
	cmd.Flags().BoolVar(&noExtensions, "no-extensions", false, "treat extension fields as unknown fields")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var input inputFlags
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump the top-level fields of a message without a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := input.read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			fields, err := wirekit.Inspect(data)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), renderRawFields(fields))
		},
	}
	input.register(cmd)
	return cmd
}

type roundtripReport struct {
	Type         string `yaml:"type"`
	InputBytes   int    `yaml:"input_bytes"`
	EncodedBytes int    `yaml:"encoded_bytes"`
	EncodedSize  int    `yaml:"encoded_size"`
	SizeAgrees   bool   `yaml:"size_agrees"`
	Identical    bool   `yaml:"identical"`
}

func newRoundtripCmd(flags *globalFlags) *cobra.Command {
	var (
		input      inputFlags
		schemaFile string
		typeName   string
	)
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Decode then re-encode a message and compare the bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := flags.open(schemaFile)
			if err != nil {
				return err
			}
			data, err := input.read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			m, err := w.Unmarshal(data, typeName)
			if err != nil {
				return err
			}
			size, err := w.EncodedSize(m)
			if err != nil {
				return err
			}
			encoded, err := w.Marshal(m)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), roundtripReport{
				Type:         string(m.Type()),
				InputBytes:   len(data),
				EncodedBytes: len(encoded),
				EncodedSize:  size,
				SizeAgrees:   size == len(encoded),
				Identical:    bytes.Equal(data, encoded),
			})
		},
	}
	input.register(cmd)
	cmd.Flags().StringVar(&schemaFile, "schema", "", ".proto file declaring the type")
	cmd.Flags().StringVar(&typeName, "type", "", "message type to decode")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

type typesReport struct {
	Messages   []string `yaml:"messages"`
	Enums      []string `yaml:"enums"`
	Extensions []string `yaml:"extensions"`
}

func newTypesCmd(flags *globalFlags) *cobra.Command {
	var schemaFile string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the messages, enums and extensions of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := flags.open(schemaFile)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), typesReport{
				Messages:   w.ListMessages(),
				Enums:      w.ListEnums(),
				Extensions: w.ListExtensions(),
			})
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", ".proto file to load")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
