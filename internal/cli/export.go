package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/app"
	"scribe/internal/artifacts"
	"scribe/internal/domain/models"
	"scribe/internal/service/export"
	"scribe/internal/service/printing"
)

// Operator identity flags. The CLI acts as an editor on behalf of --user.
var (
	exportUser     string
	exportLangName string
	exportLangCode string
	exportKind     string
	printCountry   string
	printCountryNm string
	printCopies    int
	printCover     bool
)

var exportCmd = &cobra.Command{
	Use:   "export [task-id]",
	Short: "Render a translation to PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize [task-id]",
	Short: "Store the final PDF and markdown for a translation",
	Long:  `Finalizes --user's translation, or the canonical owner's when --user is omitted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFinalize,
}

var printCmd = &cobra.Command{
	Use:   "print [pdf]",
	Short: "Send a PDF to the print service",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrint,
}

func init() {
	for _, cmd := range []*cobra.Command{exportCmd, finalizeCmd} {
		cmd.Flags().StringVarP(&exportUser, "user", "u", "", "Owner username")
		cmd.Flags().StringVar(&exportLangName, "language-name", "", "Language name used in the title")
		cmd.Flags().StringVar(&exportLangCode, "language-code", "", "BCP 47 language code")
	}
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", string(artifacts.KindDraftTask), "Artifact kind: task, released or final_pdf")
	_ = exportCmd.MarkFlagRequired("user")

	printCmd.Flags().StringVar(&printCountry, "country-code", "", "Delegation country code")
	printCmd.Flags().StringVar(&printCountryNm, "country-name", "", "Delegation country name")
	printCmd.Flags().IntVarP(&printCopies, "copies", "n", 1, "Number of copies")
	printCmd.Flags().BoolVar(&printCover, "cover-page", false, "Print a cover page")
	_ = printCmd.MarkFlagRequired("country-code")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(printCmd)
}

func operator() models.Identity {
	return models.Identity{
		UserID:   "scribectl",
		Username: "scribectl",
		Language: models.Language{Name: exportLangName, Code: exportLangCode},
		Editor:   true,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	kind := artifacts.Kind(exportKind)
	switch kind {
	case artifacts.KindDraftTask, artifacts.KindDraftReleased, artifacts.KindFinalPDF:
	default:
		return fmt.Errorf("unsupported kind %q", exportKind)
	}

	services, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	artifact, err := services.Pipeline.Export(cmd.Context(), export.ExportRequest{
		Requester: operator(),
		TaskID:    args[0],
		Kind:      kind,
		Owner:     exportUser,
	})
	if err != nil {
		return err
	}

	cmd.Printf("%s (%d pages)\n", artifact.Path, artifact.Pages)
	if artifact.Degraded {
		cmd.Println("warning: page numbers could not be stamped")
	}
	return nil
}

func runFinalize(cmd *cobra.Command, args []string) error {
	services, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	owner := exportUser
	if owner == "" {
		owner = services.Layout.CanonicalOwner()
	}

	final, err := services.Pipeline.Finalize(cmd.Context(), operator(), args[0], owner)
	if err != nil {
		return err
	}

	cmd.Printf("pdf:      %s\n", final.PDF.Path)
	cmd.Printf("markdown: %s\n", final.Markdown)
	return nil
}

func runPrint(cmd *cobra.Command, args []string) error {
	if cfg.Print.Address == "" {
		return errors.New("PRINT_SYSTEM_ADDRESS is not set")
	}

	dispatcher, err := printing.NewDispatcher(cfg.Print.Address, cfg.Print.Timeout, logger)
	if err != nil {
		return err
	}

	err = dispatcher.Submit(cmd.Context(), printing.SubmitRequest{
		PDFPath:     args[0],
		CountryCode: printCountry,
		CountryName: printCountryNm,
		CoverPage:   printCover,
		Copies:      printCopies,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Submitted %d copies of %s\n", printCopies, args[0])
	return nil
}
