package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/bufseek"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/fzputil"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/logger"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/qoi"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:   "fzpthumb <IN_PATH> <SIZE> <OUT_PATH> [URI]",
		Short: "Generate freedesktop thumbnails for fuzzpaint documents",
		Args:  cobra.RangeArgs(3, 4),
		Run:   runGenerate,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log verbosity: silent, error, warn, info or debug")

	// inspect command
	inspectCmd := &cobra.Command{
		Use:   "inspect <IN_PATH>",
		Short: "List the chunks of a fuzzpaint document",
		Args:  cobra.ExactArgs(1),
		Run:   runInspect,
	}

	rootCmd.AddCommand(inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log-level flag when given, the environment
// configuration otherwise.
func setupLogging(cfg *fzpthumb.Config) {
	name := logLevel
	if name == "" {
		name = cfg.LogLevel
	}
	level, err := logger.ParseLevel(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.SetLogLevel(level)
}

// resolveInput accepts either a plain path or a file:// URI, which is what
// desktop shells hand to thumbnailers.
func resolveInput(arg string) (string, error) {
	if !strings.HasPrefix(arg, "file://") {
		return arg, nil
	}
	u, err := url.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("invalid file uri %q: %w", arg, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("remote file uri %q not supported", arg)
	}
	if u.Path == "" {
		return "", fmt.Errorf("file uri %q has no path", arg)
	}
	return filepath.FromSlash(u.Path), nil
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg, err := fzpthumb.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	size, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: <SIZE> must be a whole number of pixels\n")
		os.Exit(1)
	}

	inPath, err := resolveInput(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// When the input came as a URI and no explicit URI was given, record
	// the input URI itself.
	uri := ""
	if len(args) > 3 {
		uri = args[3]
	} else if strings.HasPrefix(args[0], "file://") {
		uri = args[0]
	}

	thumbnailer := fzpthumb.New(cfg.Options())
	res, err := thumbnailer.Generate(fzpthumb.Request{
		InputPath:  inPath,
		OutputPath: args[2],
		Size:       size,
		URI:        uri,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("thumbnail %dx%d written from a %dx%d preview",
		res.Width, res.Height, res.SourceWidth, res.SourceHeight)
}

func runInspect(cmd *cobra.Command, args []string) {
	cfg, err := fzpthumb.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	inPath, err := resolveInput(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	hdr, chunks, err := fzputil.ListChunks(bufseek.NewReader(f))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chunks in %s (container declares %d bytes):\n", inPath, hdr.Size)
	for _, c := range chunks {
		marker := ""
		if c.Tag == fzputil.ThumbTag {
			marker = " (thumbnail)"
		}
		fmt.Printf("%8d  %s  %d bytes%s\n", c.Offset, c.Tag, c.Size, marker)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	win, err := fzputil.FindThumb(bufseek.NewReader(f))
	if err != nil {
		fmt.Println("No thumbnail found where generators place one")
		return
	}
	qhdr, err := qoi.DecodeHeader(win)
	if err != nil {
		fmt.Printf("Thumbnail chunk does not decode: %v\n", err)
		return
	}
	colorspace := "linear"
	if qhdr.Colorspace == qoi.ColorspaceSRGB {
		colorspace = "srgb"
	}
	fmt.Printf("Preview: %dx%d px, %d channels, %s\n",
		qhdr.Width, qhdr.Height, qhdr.Channels, colorspace)
}
