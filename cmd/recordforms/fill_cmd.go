package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-recordforms/pkg/engine"
	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/renderers/tui"
)

func newFillCmd(a *app) *cobra.Command {
	var (
		sess     sessionFlags
		recordID string
		format   string
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "fill <record-type>",
		Short: "Fill a record form interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			outputFormat, ok := tui.ParseOutputFormat(format)
			if !ok {
				return fmt.Errorf("unknown --format %q", format)
			}
			sc, err := sess.context()
			if err != nil {
				return err
			}

			prompter, err := tui.New(
				tui.WithOutputFormat(outputFormat),
				tui.WithTheme(tui.Theme{ErrorPrefix: "! "}),
				tui.WithStdio(tui.Stdio{Err: cmd.ErrOrStderr()}),
			)
			if err != nil {
				return err
			}
			renderers, err := render.NewRegistry(prompter)
			if err != nil {
				return err
			}
			eng, err := a.newEngine(renderers, nil, nil)
			if err != nil {
				return err
			}

			f, err := eng.Open(ctx, engine.Request{RecordType: args[0], RecordID: recordID, Session: sc})
			if err != nil {
				return err
			}
			defer f.Close()

			opts := render.RenderOptions{}
			for {
				out, _, err := eng.Render(ctx, f, tui.Name, opts)
				if err != nil {
					return err
				}
				if !save {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
					return err
				}

				result, err := eng.Submit(ctx, f)
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s\n", f.RecordType(), result.Record.ID())
					return nil
				}
				if errors.Is(err, form.ErrMissingTenant) {
					return err
				}
				// Validation and backend failures go back to the prompts with
				// the messages attached; the draft is kept.
				opts = render.RenderOptions{}.WithSubmitError(err)
			}
		},
	}

	sess.bind(cmd)
	cmd.Flags().StringVar(&recordID, "id", "", "Record id to edit (create form when empty)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, form or pretty")
	cmd.Flags().BoolVar(&save, "save", false, "Submit the filled form to the resource API")
	return cmd
}
