// Command imgload loads image files through the imageload pipeline and
// prints the resulting texture properties. Useful for checking what a file
// decodes to before shipping it with an application.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/imageload"
	"github.com/gogpu/imageload/gpu"
)

func main() {
	var (
		driver  = flag.String("driver", "", "device driver to use (default: best available)")
		forUI   = flag.Bool("ui", false, "normalize to 8-bit BGRA for UI display")
		cubemap = flag.Bool("cubemap", false, "load as a cubemap (vertical strip of six faces)")
		resize  = flag.Int("resize", 0, "resize to this percentage of the original size (1-100)")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: imgload [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *verbose {
		imageload.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var opts []imageload.Option
	if *driver != "" {
		opts = append(opts, imageload.WithDriver(*driver))
	}
	loader, err := imageload.New(opts...)
	if err != nil {
		log.Fatalf("open loader: %v", err)
	}
	defer loader.Close()

	params := imageload.TransformParams{
		PercentSizeX: *resize,
		PercentSizeY: *resize,
		ForUI:        *forUI,
	}

	failed := false
	for _, filename := range flag.Args() {
		var res imageload.Result
		if *cubemap {
			res = loader.LoadCubemapSync(filename, params)
		} else {
			res = loader.LoadSync(filename, params)
		}
		if res.Err != nil {
			fmt.Printf("%s: error: %v\n", filename, res.Err)
			failed = true
			continue
		}
		printTexture(res.Texture)
	}
	if failed {
		os.Exit(1)
	}
}

func printTexture(tex *gpu.Texture) {
	w, h := tex.Size()
	fmt.Printf("%s: %s %dx%d format=%v\n", tex.Label(), tex.Kind(), w, h, tex.Format())
}
