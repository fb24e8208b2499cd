package main

import (
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"babel.town/config"
	"babel.town/lang"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose engines and store API keys",
	Run: func(cmd *cobra.Command, args []string) {
		RunSetup()
	},
}

func languageOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, l := range lang.Supported() {
		options = append(options, huh.NewOption(l.Name+" ("+l.Tag+")", l.Tag))
	}
	return options
}

func RunSetup() {
	log := createLoggers()
	log.main.Info("Starting babel setup...")

	engine := viper.GetString("engine")
	translator := viper.GetString("translator")
	language := viper.GetString("language")
	var deepgramAPIKey, speechmaticsAPIKey, openaiAPIKey, geminiAPIKey, email string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Recognition engine").
				Options(
					huh.NewOption("Deepgram", config.EngineDeepgram),
					huh.NewOption("Speechmatics", config.EngineSpeechmatics),
				).
				Value(&engine),
			huh.NewSelect[string]().
				Title("Spoken language").
				Options(languageOptions()...).
				Value(&language),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your Deepgram API Key").
				Value(&deepgramAPIKey),
		).WithHideFunc(func() bool { return engine != config.EngineDeepgram }),
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your Speechmatics API Key").
				Value(&speechmaticsAPIKey),
		).WithHideFunc(func() bool { return engine != config.EngineSpeechmatics }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Translator").
				Options(
					huh.NewOption("MyMemory", config.TranslatorMyMemory),
					huh.NewOption("OpenAI", config.TranslatorOpenAI),
					huh.NewOption("Gemini", config.TranslatorGemini),
				).
				Value(&translator),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Contact email for MyMemory (optional)").
				Value(&email),
		).WithHideFunc(func() bool { return translator != config.TranslatorMyMemory }),
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your OpenAI API Key").
				Value(&openaiAPIKey),
		).WithHideFunc(func() bool { return translator != config.TranslatorOpenAI }),
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your Google Cloud (Gemini) API Key").
				Value(&geminiAPIKey),
		).WithHideFunc(func() bool { return translator != config.TranslatorGemini }),
	)

	if err := form.Run(); err != nil {
		log.main.Fatal("Error during setup", "error", err)
	}

	err := config.Save(viper.GetViper(), map[string]string{
		"engine":               engine,
		"translator":           translator,
		"language":             language,
		"deepgram_api_key":     deepgramAPIKey,
		"speechmatics_api_key": speechmaticsAPIKey,
		"mymemory_email":       email,
		"openai_api_key":       openaiAPIKey,
		"gemini_api_key":       geminiAPIKey,
	})
	if err != nil {
		log.main.Fatal("Error saving configuration", "error", err)
	}

	log.main.Info("Setup completed successfully!", "file", viper.ConfigFileUsed())
}
