// digit-infer: classify digit images or evaluate on an MNIST IDX test set
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"digitrec/inference"
	"digitrec/nn"
	"digitrec/preprocess"
	"digitrec/utils"
)

var (
	weightsFile = flag.String("weights", "", "Weights file (.json or comma/newline separated text)")
	hidden      = flag.String("hidden", "256 128", "Hidden layer sizes")
	strict      = flag.Bool("strict", false, "Fail on invalid tokens in text weights instead of skipping them")
	inputFile   = flag.String("input", "", "Image file, or JSON array of standardized inputs")
	evalImages  = flag.String("eval-images", "", "IDX image file (optionally gzipped) to evaluate on")
	evalLabels  = flag.String("eval-labels", "", "IDX label file matching -eval-images")
	limit       = flag.Int("limit", 0, "Evaluate at most this many samples (0 = all)")
	exportFile  = flag.String("export", "", "Write the loaded weights to this file (.json or text)")
	verbose     = flag.Bool("verbose", false, "Verbose output")
	topK        = flag.Int("topk", inference.DefaultTopK, "Top predictions to show")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 Handwritten Digit Inference                  ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")

	if *weightsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -weights is required")
		flag.Usage()
		os.Exit(2)
	}

	hiddenSizes, err := utils.ParseArchitecture(*hidden)
	if err != nil {
		fail("Error parsing -hidden: %v", err)
	}
	cfg := &utils.Config{Hidden: hiddenSizes, WeightsPath: *weightsFile, Strict: *strict}

	stats := &utils.TimingStats{}
	start := time.Now()
	net, report, err := inference.LoadNetwork(cfg)
	if err != nil {
		fail("Error loading weights: %v", err)
	}
	stats.LoadTime = time.Since(start)
	fmt.Printf("Topology: %v (%d values)\n", net.Topology(), net.ParamCount())
	if report.Skipped > 0 {
		fmt.Printf("Skipped %d invalid tokens in %s\n", report.Skipped, *weightsFile)
	}
	logf("loaded %d values from %d lines in %v", report.Values, report.Lines, stats.LoadTime)

	if *exportFile != "" {
		if err := export(net, *exportFile); err != nil {
			fail("Error exporting weights: %v", err)
		}
		fmt.Printf("Weights written to %s\n", *exportFile)
	}

	svc := inference.NewService(preprocess.DefaultConfig())
	svc.SetTopK(*topK)
	if err := svc.Swap(net, *weightsFile); err != nil {
		fail("Error: %v", err)
	}

	switch {
	case *evalImages != "" || *evalLabels != "":
		samples := runEval(net, stats)
		stats.TotalTime = time.Since(start)
		utils.PrintTimingStats(stats, samples)
	case *inputFile != "":
		out, err := classifyFile(svc, *inputFile, stats)
		if err != nil {
			fail("Error: %v", err)
		}
		showResults(out)
		stats.TotalTime = time.Since(start)
		utils.PrintTimingStats(stats, 1)
	case *exportFile == "":
		fmt.Println("\nNothing to do: pass -input, -eval-images/-eval-labels or -export")
	}
}

func classifyFile(svc *inference.Service, path string, stats *utils.TimingStats) (*inference.Output, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var x []float64
		if err := json.Unmarshal(data, &x); err != nil {
			return nil, err
		}
		t := time.Now()
		out, err := svc.PredictVector(x)
		stats.ForwardPassTime += time.Since(t)
		return out, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	logf("decoded %s image %v", format, img.Bounds())

	t := time.Now()
	res, err := preprocess.NormalizeImage(img, svc.Config())
	stats.PreprocessTime += time.Since(t)
	if err != nil {
		return nil, err
	}
	if *verbose {
		printGrid(res.Normalized, svc.Config().GridSize)
	}
	t = time.Now()
	out, err := svc.PredictVector(res.Standardized)
	stats.ForwardPassTime += time.Since(t)
	return out, err
}

func export(net *nn.Network, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return utils.SaveWeights(path, utils.ExportWeights(net))
	}
	return utils.SaveWeightsText(path, net)
}

func showResults(out *inference.Output) {
	fmt.Printf("\nPrediction: %d (confidence %.4f)\n", out.Digit, out.Confidence)
	fmt.Printf("\nTop %d predictions:\n", len(out.Top))
	for i, r := range out.Top {
		fmt.Printf("  %d. Digit %d: %.4f\n", i+1, r.Digit, r.Probability)
	}
}

// printGrid renders the normalized grid with one character per cell.
func printGrid(ink []float64, size int) {
	const shades = " .:-=+*#%@"
	for y := 0; y < size; y++ {
		var sb strings.Builder
		for x := 0; x < size; x++ {
			v := ink[y*size+x]
			idx := int(v * float64(len(shades)-1))
			if idx < 0 {
				idx = 0
			} else if idx >= len(shades) {
				idx = len(shades) - 1
			}
			sb.WriteByte(shades[idx])
		}
		fmt.Fprintln(os.Stderr, sb.String())
	}
}

func logf(format string, args ...interface{}) {
	if *verbose {
		fmt.Fprintf(os.Stderr, "[INFER] "+format+"\n", args...)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
