package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"xray-assistant/internal/infrastructure/parser"
	"xray-assistant/internal/infrastructure/storage"
)

// cliConversation ключ диалога для разовых запусков из командной строки
const cliConversation = "cli"

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze an X-ray image and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(cmd.Context(), opts.cfg, opts.offline, afero.NewOsFs())
			if err != nil {
				return err
			}

			result, err := c.AnalysisService.Analyze(cmd.Context(), cliConversation, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newAnnotateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <image> <answer.txt>",
		Short: "Draw findings from a saved model answer onto an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath, answerPath := args[0], args[1]

			answer, err := os.ReadFile(answerPath)
			if err != nil {
				return fmt.Errorf("read answer: %w", err)
			}

			store := storage.NewFileImageStore(afero.NewOsFs(), opts.cfg.UploadDir)
			img, _, err := store.Decode(cmd.Context(), imagePath)
			if err != nil {
				return err
			}

			annotator, err := buildAnnotator(opts.cfg)
			if err != nil {
				return err
			}

			parsed := parser.ParseSOAP(string(answer))
			annotated, numbered := annotator.Annotate(img, parsed.Findings)

			out := store.AnnotatedPath(imagePath)
			if err := store.SaveImage(cmd.Context(), out, annotated); err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"soap":                 parsed.SOAP,
				"findings":             numbered,
				"annotated_image_path": out,
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
