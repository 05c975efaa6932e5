package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/templates"
)

func newTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "templates",
		Short:       "Inspect and export scene templates",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newTemplatesListCommand())
	cmd.AddCommand(newTemplatesWriteCommand())
	return cmd
}

func newTemplatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List template names",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range templates.Names() {
				req, err := templates.Expand(name, nil)
				if err != nil {
					return err
				}
				total := 0.0
				for _, s := range req.Scenes {
					total += s.Duration
				}
				fmt.Fprintf(out, "%-16s %d scenes, %gs\n", name, len(req.Scenes), total)
			}
			return nil
		},
	}
}

func newTemplatesWriteCommand() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "write <template> <script.yaml>",
		Short: "Expand a template into an editable scene script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			req, err := templates.Expand(args[0], p)
			if err != nil {
				return err
			}
			if err := scene.WriteRequest(req, args[1]); err != nil {
				return fmt.Errorf("write script: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d scenes) to %s\n", args[0], len(req.Scenes), args[1])
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Template parameter key=value (repeatable)")
	return cmd
}

func parseParams(raw []string) (templates.Params, error) {
	p := templates.Params{}
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		p[key] = value
	}
	return p, nil
}
