// Quick manual check of the tagging service credentials: sends one
// image straight to the classifier and prints what comes back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aremuc/home-monitor-iot/internal/classifier"
	"github.com/aremuc/home-monitor-iot/internal/config"
)

func main() {
	var (
		imagePath = flag.String("image", "golden_retriever.jpg", "image file to classify")
		url       = flag.String("url", "https://api.imagga.com/v2/tags", "classifier endpoint")
	)
	flag.Parse()

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read image:", err)
		os.Exit(1)
	}

	client := classifier.New(config.ClassifierConfig{
		URL:       *url,
		APIKey:    os.Getenv("IMAGGA_API_KEY"),
		APISecret: os.Getenv("IMAGGA_API_SECRET"),
		Timeout:   30 * time.Second,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tags, err := client.Tags(ctx, data, *imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "classify:", err)
		os.Exit(1)
	}

	fmt.Printf("%d tags:\n", len(tags))
	for _, tag := range tags {
		fmt.Println(" -", tag)
	}
}
