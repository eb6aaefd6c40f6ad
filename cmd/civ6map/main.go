package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	civbin "github.com/dyuri/civ6map/internal/binary"
	"github.com/dyuri/civ6map/internal/config"
	"github.com/dyuri/civ6map/internal/container"
	"github.com/dyuri/civ6map/internal/model"
	"github.com/dyuri/civ6map/internal/render"
	"github.com/dyuri/civ6map/internal/scan"
	"github.com/dyuri/civ6map/internal/text"
	"github.com/dyuri/civ6map/pkg/civ6map"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg = config.Default()
	log = logrus.StandardLogger()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "civ6map",
	Short: "Extract and render the world map of Civilization VI saves",
	Long: `civ6map is a tool for working with Civilization VI save files.

It recovers the compressed game-state stream hidden in a .Civ6Save
container, decodes the tile map it contains and renders it as an image,
an XPM file or ASCII art. It can also dump the decompressed stream, the
fog-of-war table and the uncompressed header chunks.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (palette, logging, render)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log per-block progress")

	rootCmd.AddCommand(decompressCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(fogCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file and configures logging
func setup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return nil
}

func newDecoder() (*civ6map.Decoder, error) {
	palette, err := cfg.BuildPalette()
	if err != nil {
		return nil, err
	}
	return civ6map.NewDecoder(&civ6map.Options{Palette: palette, Log: log}), nil
}

// loadStream reads a save file and returns its map stream. Files without
// the CIV6 signature are taken to be an already decompressed stream.
func loadStream(path string, dec *civ6map.Decoder) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	if container.CheckMagic(data) != nil {
		log.WithField("file", path).Debug("no CIV6 signature, reading as decompressed stream")
		return data, nil
	}
	stream, err := dec.ExtractMapStream(data)
	if err != nil {
		return nil, fmt.Errorf("extract map stream: %w", err)
	}
	return stream, nil
}

// decompress command
var decompressCmd = &cobra.Command{
	Use:   "decompress <input.Civ6Save>",
	Short: "Write the decompressed game-state stream",
	Long: `Recover the compressed game-state block that holds the map and write it
out verbatim.

The output can be fed back to render, fog and info.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompress,
}

func init() {
	decompressCmd.Flags().StringP("output", "o", "", "Output file (default: <input>.bin)")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = inputPath + ".bin"
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	dec, err := newDecoder()
	if err != nil {
		return err
	}
	stream, err := dec.ExtractMapStream(raw)
	if err != nil {
		return err
	}
	if len(stream) == 0 {
		return fmt.Errorf("decompressed stream is empty")
	}

	if err := os.WriteFile(outputPath, stream, 0644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	fmt.Printf("Decompressed %s (%s) to %s (%s)\n",
		filepath.Base(inputPath), formatBytes(int64(len(raw))),
		outputPath, formatBytes(int64(len(stream))))
	return nil
}

// render command
var renderCmd = &cobra.Command{
	Use:   "render <input>",
	Short: "Render the world map",
	Long: `Decode the tile map and render it.

The input is either a .Civ6Save file or a stream written by decompress.
Formats:
  image  PNG/JPEG/BMP picked from the output extension (default map.png)
  xpm    XPM image, one pixel per tile (two with --hex)
  ascii  one character per tile: '.' unowned, owner index otherwise`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "Output file (default: map.png for images, stdout otherwise)")
	renderCmd.Flags().String("format", "image", "Output format: image, xpm, ascii")
	renderCmd.Flags().Float64("scale", 0, "Resize factor for image output (default from config)")
	renderCmd.Flags().Bool("hex", false, "Offset alternate rows in XPM output")
}

func runRender(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	scale, _ := cmd.Flags().GetFloat64("scale")
	hexRows, _ := cmd.Flags().GetBool("hex")

	dec, err := newDecoder()
	if err != nil {
		return err
	}
	stream, err := loadStream(inputPath, dec)
	if err != nil {
		return err
	}
	grid, err := dec.DecodeMap(stream)
	if err != nil {
		return fmt.Errorf("decode map: %w", err)
	}

	switch format {
	case "image":
		if outputPath == "" {
			outputPath = "map.png"
		}
		if scale == 0 {
			scale = cfg.Render.Scale
		}
		if err := saveImage(outputPath, render.Map(grid), scale); err != nil {
			return err
		}
		fmt.Printf("Rendered %dx%d map to %s\n", grid.Width, grid.Height, outputPath)
		return nil
	case "xpm", "ascii":
		return writeTextMap(outputPath, grid, format, hexRows)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// fog command
var fogCmd = &cobra.Command{
	Use:   "fog <input>",
	Short: "Render the fog-of-war table",
	Long: `Locate the per-tile visibility table and render it: revealed tiles
white, hidden tiles black, one 20x20 block per tile.`,
	Args: cobra.ExactArgs(1),
	RunE: runFog,
}

func init() {
	fogCmd.Flags().StringP("output", "o", "fog.png", "Output image")
	fogCmd.Flags().Float64("scale", 0, "Resize factor (default from config)")
}

func runFog(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	scale, _ := cmd.Flags().GetFloat64("scale")

	dec, err := newDecoder()
	if err != nil {
		return err
	}
	stream, err := loadStream(args[0], dec)
	if err != nil {
		return err
	}
	fog, err := civ6map.DecodeFog(stream)
	if err != nil {
		return fmt.Errorf("decode fog: %w", err)
	}

	revealed := 0
	for _, r := range fog.Revealed {
		if r {
			revealed++
		}
	}
	log.WithFields(logrus.Fields{"offset": fog.Offset, "revealed": revealed}).Debug("visibility table decoded")

	if scale == 0 {
		scale = cfg.Render.Scale
	}
	if err := saveImage(outputPath, render.Fog(fog), scale); err != nil {
		return err
	}
	fmt.Printf("Rendered fog of war (%d/%d tiles revealed) to %s\n", revealed, len(fog.Revealed), outputPath)
	return nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.Civ6Save>",
	Short: "Display save file information",
	Long: `Display the compressed blocks of a save file, the size of the decoded map
and how many tiles each owner holds.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("ascii", false, "Also draw the map as ASCII art")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ascii, _ := cmd.Flags().GetBool("ascii")

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	dec, err := newDecoder()
	if err != nil {
		return err
	}
	res, err := dec.Decode(raw)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputInfoJSON(inputPath, res, int64(len(raw)))
	}
	return outputInfoText(inputPath, res, int64(len(raw)), ascii)
}

func outputInfoText(path string, res *civ6map.Result, fileSize int64, ascii bool) error {
	fmt.Printf("File: %s (%s)\n", path, formatBytes(fileSize))
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("Compressed blocks tried: %d\n", len(res.Attempts))
	for i, a := range res.Attempts {
		status := "no map"
		if a.HasMap {
			status = "map"
		}
		if a.Err != nil {
			status += ", truncated"
		}
		fmt.Printf("  #%d at 0x%x-0x%x: %s in, %s out (%s)\n",
			i, a.Block.Start, a.Block.Stop,
			formatBytes(int64(a.Consumed)), formatBytes(int64(a.Inflated)), status)
	}
	fmt.Println()

	w := text.NewWriter(os.Stdout)
	err := w.WriteSummary(text.Summary{
		Path:       path,
		SizeName:   res.Size.Name,
		Grid:       res.Grid,
		StreamSize: len(res.Stream),
	})
	if err != nil {
		return err
	}

	if ascii {
		fmt.Println()
		return w.WriteASCII(res.Grid)
	}
	return nil
}

func outputInfoJSON(path string, res *civ6map.Result, fileSize int64) error {
	blocks := make([]map[string]interface{}, len(res.Attempts))
	for i, a := range res.Attempts {
		entry := map[string]interface{}{
			"start":    a.Block.Start,
			"stop":     a.Block.Stop,
			"consumed": a.Consumed,
			"inflated": a.Inflated,
			"hasMap":   a.HasMap,
		}
		if a.Err != nil {
			entry["error"] = a.Err.Error()
		}
		blocks[i] = entry
	}

	owners := make(map[string]int)
	for o, n := range res.Grid.OwnerCounts() {
		owners[fmt.Sprintf("%d", o)] = n
	}

	info := map[string]interface{}{
		"file":     path,
		"fileSize": fileSize,
		"blocks":   blocks,
		"map": map[string]interface{}{
			"size":   res.Size.Name,
			"width":  res.Grid.Width,
			"height": res.Grid.Height,
			"tiles":  res.Grid.TileCount,
			"offset": res.Grid.Offset,
			"end":    res.Grid.End,
			"owners": owners,
		},
		"streamSize": len(res.Stream),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// chunks command
var chunksCmd = &cobra.Command{
	Use:   "chunks <input.Civ6Save>",
	Short: "List the uncompressed header chunks",
	Long: `Walk the uncompressed header that precedes the compressed game state and
list its chunks: version blobs, fixed-size pairs and named entries.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunks,
}

func init() {
	chunksCmd.Flags().Bool("dump", false, "Hex dump each chunk payload")
	chunksCmd.Flags().String("name", "", "Only show named chunks containing this text")
}

func runChunks(cmd *cobra.Command, args []string) error {
	dump, _ := cmd.Flags().GetBool("dump")
	filter, _ := cmd.Flags().GetString("name")

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	chunks, err := civ6map.Chunks(raw)
	if err != nil {
		return err
	}

	shown := 0
	for _, c := range chunks {
		if filter != "" && !strings.Contains(c.Title, filter) {
			continue
		}
		shown++

		label := c.Kind.String()
		if c.Kind == model.ChunkNamed {
			label = fmt.Sprintf("%s %q", label, c.Title)
		}
		fmt.Printf("0x%06x %s (%d bytes)\n", c.Offset, label, len(c.Data))
		if dump && len(c.Data) > 0 {
			fmt.Print(hex.Dump(c.Data))
		}
	}

	fmt.Printf("\n%d of %d chunk(s)\n", shown, len(chunks))
	return nil
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input.Civ6Save>",
	Short: "Check that a save file decodes cleanly",
	Long: `Run the full decoding pipeline and report problems.

Errors stop the map from being decoded. Warnings point at data that decoded
but looks unusual: skipped blocks, truncated decompression, spurious map
markers or unknown owners.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}

func runValidate(cmd *cobra.Command, args []string) error {
	file := args[0]
	strict, _ := cmd.Flags().GetBool("strict")

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	dec, err := newDecoder()
	if err != nil {
		return err
	}

	v := newValidator(strict)
	v.file = file
	v.validate(dec, raw)
	v.printResults()

	if v.hasErrors() {
		return fmt.Errorf("validation failed")
	}
	if strict && v.hasWarnings() {
		return fmt.Errorf("validation failed (strict mode)")
	}
	return nil
}

type validator struct {
	file     string
	strict   bool
	errors   []string
	warnings []string
}

func newValidator(strict bool) *validator {
	return &validator{strict: strict}
}

func (v *validator) error(msg string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(msg, args...))
}

func (v *validator) warning(msg string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(msg, args...))
}

func (v *validator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *validator) hasWarnings() bool {
	return len(v.warnings) > 0
}

func (v *validator) validate(dec *civ6map.Decoder, raw []byte) {
	res, err := dec.Decode(raw)
	if err != nil {
		v.error("%v", err)
		return
	}

	for i, a := range res.Attempts {
		if a.Err != nil {
			v.warning("Block %d at 0x%x: %v", i, a.Block.Start, a.Err)
		}
		if !a.HasMap {
			v.warning("Block %d at 0x%x has no map and was skipped", i, a.Block.Start)
		}
	}

	if n := countMarkers(res.Stream); n > 1 {
		v.warning("Map marker occurs %d times; using the last one at 0x%x", n, res.Grid.Offset)
	}

	palette, err := cfg.BuildPalette()
	if err != nil {
		v.error("Palette: %v", err)
		return
	}
	var unknown []int
	for o := range res.Grid.OwnerCounts() {
		if _, ok := palette.Owners[o]; !ok {
			unknown = append(unknown, int(o))
		}
	}
	sort.Ints(unknown)
	for _, o := range unknown {
		v.warning("Owner index %d has no palette entry (drawn as %s)", o, palette.Other.Hex())
	}
}

func countMarkers(stream []byte) int {
	n := 0
	for i := 0; ; i++ {
		i = scan.IndexFrom(stream, civbin.MapMarker, i)
		if i < 0 {
			return n
		}
		n++
	}
}

func (v *validator) printResults() {
	fmt.Printf("Validating: %s\n", v.file)
	fmt.Println(strings.Repeat("=", 50))

	if len(v.errors) == 0 && len(v.warnings) == 0 {
		fmt.Println("✓ Valid save file - no issues found")
		return
	}

	if len(v.errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(v.errors))
		for _, err := range v.errors {
			fmt.Printf("  ✗ %s\n", err)
		}
	}

	if len(v.warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(v.warnings))
		for _, warn := range v.warnings {
			fmt.Printf("  ⚠ %s\n", warn)
		}
	}

	fmt.Println()
	if len(v.errors) > 0 {
		fmt.Printf("Validation failed: %d error(s)", len(v.errors))
		if len(v.warnings) > 0 {
			fmt.Printf(", %d warning(s)", len(v.warnings))
		}
		fmt.Println()
	} else if len(v.warnings) > 0 {
		fmt.Printf("Validation passed with %d warning(s)\n", len(v.warnings))
		if v.strict {
			fmt.Println("(use without --strict to ignore warnings)")
		}
	}
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("civ6map version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}

func saveImage(path string, img image.Image, scale float64) error {
	return render.Save(path, render.Scale(img, scale))
}

// writeTextMap writes grid as XPM or ASCII art to path, or to stdout when
// path is empty
func writeTextMap(path string, grid *model.MapGrid, format string, hexRows bool) error {
	output, closeOutput, err := openOutput(path)
	if err != nil {
		return err
	}

	w := text.NewWriter(output)
	if format == "xpm" {
		err = w.WriteXPM(grid, "civ6map", hexRows)
	} else {
		err = w.WriteASCII(grid)
	}

	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	return err
}

// openOutput returns stdout when path is empty
func openOutput(path string) (*os.File, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
		return nil
	}, nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
