// Package main is the entry point for the fractune CLI
package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/james-see/fractune/internal/app"
	"github.com/james-see/fractune/internal/config"
	"github.com/james-see/fractune/internal/logger"
	"github.com/james-see/fractune/pkg/api"
	"github.com/james-see/fractune/pkg/converter"
	"github.com/james-see/fractune/pkg/engine"
	"github.com/james-see/fractune/pkg/tui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	seed       int64
	serverPort string
)

// generation flags and the parameter each one sets
var paramFlags = []struct {
	flag, key, usage string
}{
	{"tempo", "tempo", "Tempo in BPM (40-200)"},
	{"scale", "scale", "Scale name"},
	{"root", "rootPitch", "Root MIDI pitch (21-108)"},
	{"melody", "instruments.melody", "Melody program number or instrument name"},
	{"bass", "instruments.bass", "Bass program number or instrument name"},
	{"drums", "instruments.drums", "Drums program number or instrument name"},
	{"iterations", "fractal.iterations", "Grammar rewriting rounds (3-10)"},
	{"chaos", "fractal.chaos", "Rewrite threshold (0-1); higher rewrites less"},
	{"drum-levels", "fractal.drumLevels", "Drum pattern recursion depth (2-7)"},
	{"arpeggio", "effects.arpeggio", "Add triad arpeggios every fourth melody step"},
	{"reverb", "effects.reverb", "Reverb toggle (forwarded only)"},
	{"swing", "effects.swing", "Delay odd melody steps (0-1)"},
	{"humanize", "effects.humanize", "Random melody velocity jitter (0-1)"},
	{"melody-volume", "effects.melodyVolume", "Melody volume (0-127)"},
	{"bass-volume", "effects.bassVolume", "Bass volume (0-127)"},
	{"drums-volume", "effects.drumsVolume", "Drums volume (0-127)"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	flush := app.InitSentry(cfg, version)

	err := rootCmd.Execute()
	flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fractune",
	Short: "Grow multi-track MIDI compositions from fractal grammars",
	Long: `fractune generates melody, bass and drum tracks from a handful of
parameters using stochastic grammar rewriting, scale quantization and
self-similar drum patterns, and writes them as Standard MIDI Files.

Examples:
  fractune generate --scale dorian --tempo 96 -o night.mid
  fractune generate --seed 42 --chaos 0.6 --arpeggio -o take.json
  fractune convert take.json -o take.mid
  fractune scales
  fractune tui
  fractune serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a composition",
	Long:  `Generates a composition. Only the parameters given on the command line override the defaults.`,
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

var scalesCmd = &cobra.Command{
	Use:   "scales",
	Short: "List available scales",
	Args:  cobra.NoArgs,
	RunE:  runScales,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List instrument names accepted in place of program numbers",
	Args:  cobra.NoArgs,
	RunE:  runInstruments,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert between MIDI and JSON",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Generate command
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (.mid or .json, default fractune-<seed>.mid)")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	for _, pf := range paramFlags {
		switch pf.flag {
		case "arpeggio", "reverb":
			generateCmd.Flags().Bool(pf.flag, false, pf.usage)
		default:
			generateCmd.Flags().String(pf.flag, "", pf.usage)
		}
	}

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	// TUI command
	tuiCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one per generation)")

	// Serve command
	serveCmd.Flags().StringVarP(&serverPort, "port", "p", "", "Server port (default $PORT or 8080)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scalesCmd)
	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// rawParams collects the flags the user actually set, keyed by parameter path
func rawParams(cmd *cobra.Command) map[string]any {
	raw := make(map[string]any)
	for _, pf := range paramFlags {
		if f := cmd.Flags().Lookup(pf.flag); f != nil && f.Changed {
			raw[pf.key] = f.Value.String()
		}
	}
	return raw
}

func runGenerate(cmd *cobra.Command, args []string) error {
	eng := engine.New(engine.DefaultConfig())

	used := seed
	if used == 0 {
		used = rand.Int64()
	}
	comp, err := eng.GenerateRaw(rawParams(cmd), used)
	if err != nil {
		if errors.Is(err, engine.ErrInternal) {
			logger.Error("Generation failed", err, logger.Fields{"seed": used})
		}
		return err
	}

	output := outputFile
	if output == "" {
		output = fmt.Sprintf("fractune-%d.mid", used)
	}
	if err := converter.New(eng.Config()).ExportFile(comp, output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := comp.Parameters
	fmt.Fprintf(out, "Seed:    %d\n", used)
	fmt.Fprintf(out, "Scale:   %s from %d at %d BPM\n", p.Scale, p.RootPitch, p.Tempo)
	fmt.Fprintf(out, "Grammar: %s\n", comp.Grammar)
	fmt.Fprintf(out, "Drums:   %s\n", comp.DrumPattern)
	counts := comp.Counts()
	for _, t := range engine.Tracks {
		fmt.Fprintf(out, "%-8s %d notes\n", string(t)+":", counts[t])
	}
	fmt.Fprintf(out, "Wrote %s (%.2f beats)\n", output, comp.LengthBeats())
	return nil
}

func runScales(cmd *cobra.Command, args []string) error {
	cfg := engine.DefaultConfig()
	for _, id := range cfg.ScaleIDs() {
		offsets, _ := cfg.Scale(id)
		fmt.Fprintf(cmd.OutOrStdout(), "%-15s %v\n", id, offsets)
	}
	return nil
}

func runInstruments(cmd *cobra.Command, args []string) error {
	cfg := engine.DefaultConfig()
	for _, name := range cfg.InstrumentNames() {
		program, _ := cfg.Program(name)
		fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", program, name)
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv := converter.New(engine.DefaultConfig())

	fmt.Fprintf(cmd.OutOrStdout(), "Converting %s -> %s\n", input, outputFile)
	if err := conv.ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Conversion complete!")
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(engine.New(engine.DefaultConfig()), seed)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if serverPort != "" {
		cfg.Port = serverPort
	}

	repo, err := app.OpenRepository(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Starting API server on port %s...\n", cfg.Port)
	fmt.Printf("Swagger docs available at http://localhost:%s/swagger/index.html\n", cfg.Port)
	return api.NewServer(cfg, engine.New(engine.DefaultConfig()), repo).Run()
}
