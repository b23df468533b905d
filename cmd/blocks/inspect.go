package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	plugins "github.com/chabad360/blocks"
	"github.com/chabad360/blocks/manifest"
)

func newInspectCommand(root *rootOptions) *cobra.Command {
	var scoped bool

	cmd := &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "Print the manifest of a plugin archive",
		Long: `Inspect prints the sections and keys of the manifest embedded in a
plugin archive, and the identity the loader would build from it. The plugin
itself is not loaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []manifest.Option{manifest.WithLogger(root.log)}
			if scoped {
				opts = append(opts, manifest.WithScoping(manifest.Scoped))
			}

			doc, err := plugins.LoadManifest(args[0], opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range doc.Sections() {
				if name != manifest.DefaultSection {
					fmt.Fprintf(out, "[%s]\n", name)
				}
				s := doc.Section(name)
				for _, k := range s.Keys() {
					v := s.Get(k, manifest.Value{})
					if v.Kind() == manifest.List {
						fmt.Fprintf(out, "  %s = [%s]\n", k, strings.Join(v.Strings(), ", "))
						continue
					}
					scalar, _ := v.Scalar()
					fmt.Fprintf(out, "  %s = %s\n", k, scalar)
				}
			}

			id, entrypoint, err := plugins.ReadIdentity(doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nidentity:   %s\nentrypoint: %s\n", id, entrypoint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&scoped, "scoped", false, "scope manifest keys to their section")

	return cmd
}
