package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-recordforms/pkg/engine"
	"github.com/goliatone/go-recordforms/pkg/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		sess     sessionFlags
		recordID string
		renderer string
		output   string
		action   string
	)

	cmd := &cobra.Command{
		Use:   "render <record-type>",
		Short: "Render a record form to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := sess.context()
			if err != nil {
				return err
			}
			eng, err := a.newEngine(nil, nil, nil)
			if err != nil {
				return err
			}
			f, err := eng.Open(ctx, engine.Request{RecordType: args[0], RecordID: recordID, Session: sc})
			if err != nil {
				return err
			}
			defer f.Close()

			out, _, err := eng.Render(ctx, f, renderer, render.RenderOptions{Action: action})
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", output)
			return nil
		},
	}

	sess.bind(cmd)
	cmd.Flags().StringVar(&recordID, "id", "", "Record id to edit (create form when empty)")
	cmd.Flags().StringVar(&renderer, "renderer", "", "Renderer name (default vanilla)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().StringVar(&action, "action", "", "Form action URL")
	return cmd
}
