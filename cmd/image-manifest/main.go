package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/visualright/filterlab/internal/catalog"
	"github.com/visualright/filterlab/internal/logger"
	"go.uber.org/zap"

	_ "image/png"
)

// Comandline flags
var (
	imagePath         = flag.String("image-path", ".", "path to image directory")
	imageManifestPath = flag.String("image-manifest-path", "./image-manifest.json", "path to the image manifest to update")
)

func main() {
	flag.Parse()

	log := logger.NewConsole(zap.InfoLevel)
	defer log.Sync()

	resolvedManifestPath, err := filepath.Abs(*imageManifestPath)
	if err != nil {
		log.Fatal(err)
	}

	manifestData, err := os.ReadFile(resolvedManifestPath)
	if err != nil {
		log.Fatal(err)
	}

	var images []catalog.Image
	if err := json.Unmarshal(manifestData, &images); err != nil {
		log.Fatal(err)
	}

	for i := range images {
		width, height, err := dimensions(filepath.Join(*imagePath, fmt.Sprintf("%s.png", images[i].ID)))
		if err != nil {
			log.Fatalf("image %s: %s", images[i].ID, err)
		}

		if width != images[i].Width || height != images[i].Height {
			log.Infow("updating dimensions", "id", images[i].ID, "width", width, "height", height)
		}

		images[i].Width = width
		images[i].Height = height
	}

	file, err := os.OpenFile(resolvedManifestPath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")

	if err := encoder.Encode(images); err != nil {
		log.Fatal(err)
	}
}

func dimensions(path string) (int, int, error) {
	reader, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer reader.Close()

	config, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, err
	}

	return config.Width, config.Height, nil
}
