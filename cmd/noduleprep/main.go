package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"noduleprep/pkg/config"
	"noduleprep/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Path to a NIfTI (.nii/.nii.gz) or DICOM (.dcm/.dicom) scan")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	targetSize := flag.Int("size", 0, "Override the cubic patch size (default from config: 64)")
	numCores := flag.Int("cores", 0, "Override the number of CPU cores used for normalization")
	outputPath := flag.String("out", "", "Optional output file for the raw tensor (little-endian float64)")
	flag.Parse()

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *targetSize > 0 {
		cfg.Patch.TargetSize = *targetSize
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}

	fmt.Println("================================")
	fmt.Println("CT SCAN PREPROCESSING FOR LUNG NODULE CLASSIFICATION")
	fmt.Println("================================")
	fmt.Printf("Input file: %s\n", *inputPath)
	fmt.Printf("HU window: [%.1f, %.1f]\n", cfg.Window.MinHU, cfg.Window.MaxHU)
	fmt.Printf("Target patch size: %d\n", cfg.Patch.TargetSize)

	p := pipeline.New(cfg)

	fmt.Println("Running preprocessing pipeline...")
	startTime := time.Now()
	result, err := p.Process(context.Background(), pipeline.Input{
		Filename: filepath.Base(*inputPath),
		Path:     *inputPath,
	})
	if err != nil {
		log.Fatalf("Preprocessing failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nPreprocessing completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Patch extent: %s\n", result.SizeDescriptor)
	fmt.Printf("Tensor shape: %v\n", result.Tensor.Shape)

	// Summarize the tensor intensity distribution
	stats := result.Tensor.Stats()
	fmt.Printf("Intensity range: [%.4f, %.4f], mean %.4f\n", stats.Min, stats.Max, stats.Mean)

	if *outputPath != "" {
		if err := writeTensor(*outputPath, result.Tensor.Data); err != nil {
			log.Fatalf("Failed to write tensor: %v", err)
		}
		fmt.Printf("Raw tensor saved to: %s\n", *outputPath)
	}
}

// writeTensor dumps the tensor samples as little-endian float64 values.
func writeTensor(path string, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return binary.Write(f, binary.LittleEndian, data)
}
