package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"babel.town/lang"
	"babel.town/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate <text...>",
	Short: "Translate text into English",
	Long: `Translate text recognized in a language tag into English, the same
way every recognized segment is translated. On failure the text is printed
unchanged.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runTranslate,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the recognition languages",
	Run: func(cmd *cobra.Command, args []string) {
		writeLanguages(os.Stdout, viper.GetString("language"))
	},
}

func runTranslate(cmd *cobra.Command, args []string) {
	log := createLoggers()
	cfg := loadConfig()

	tag := cfg.Language
	if cmd.Flags().Changed("lang") {
		tag, _ = cmd.Flags().GetString("lang")
	}

	ctx := context.Background()
	translator, closer, err := newTranslator(ctx, cfg, log.tell)
	if err != nil {
		log.main.Fatal("create translator", "error", err)
	}
	defer closer.Close()

	result := translate.Passthrough(ctx, translator, strings.Join(args, " "), tag)
	if result.Err != nil {
		log.tell.Warn("translation failed", "from", result.From, "error", result.Err)
	}
	fmt.Println(result.Text)
}

func writeLanguages(w io.Writer, selected string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tag", "Language", "Code", ""})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, l := range lang.Supported() {
		mark := ""
		if l.Tag == selected {
			mark = "*"
		}
		table.Append([]string{l.Tag, l.Name, l.Code, mark})
	}

	table.Render()
}

func init() {
	translateCmd.Flags().String("lang", lang.Default, "Language tag the text was spoken in")
}
