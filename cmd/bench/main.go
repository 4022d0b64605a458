package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/export"
	"github.com/namuan/whiteboard/pkg/geom"
	"github.com/namuan/whiteboard/pkg/session"
)

func main() {
	notes := flag.Int("notes", 1000, "Number of notes to generate")
	images := flag.Int("images", 25, "Number of images to generate")
	keep := flag.Bool("keep", false, "Keep the benchmark session file after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "whiteboard_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()
	path := filepath.Join(benchDir, "bench.json")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	codec := session.NewCodec(core.SceneConfig{Logger: logger})

	// 1. Build a scene: notes on a grid, a connection every fourth pair,
	// and a handful of small images.
	fmt.Printf("Generating scene (%d notes, %d images)...\n", *notes, *images)
	startGen := time.Now()

	scene := core.NewScene(core.SceneConfig{Logger: logger})
	cols := int(math.Ceil(math.Sqrt(float64(*notes))))
	if cols == 0 {
		cols = 1
	}
	ids := make([]core.EntityID, 0, *notes)
	for i := 0; i < *notes; i++ {
		pos := geom.Pt(float64(i%cols)*140, float64(i/cols)*90)
		n := scene.CreateNote(pos, fmt.Sprintf("Benchmark note %d", i))
		ids = append(ids, n.ID)
	}
	for i := 4; i < len(ids); i += 4 {
		if _, err := scene.Connect(ids[i-4], ids[i]); err != nil {
			panic(err)
		}
	}
	imgData := tinyPNG()
	for i := 0; i < *images; i++ {
		pos := geom.Pt(float64(i%cols)*140+40, float64(i/cols)*90+30)
		if _, err := scene.CreateImage(imgData, "image/png", fmt.Sprintf("bench_%d.png", i), pos); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// 2. Save: encode plus atomic write.
	fmt.Println("Running Save...")
	startSave := time.Now()
	data, err := codec.Encode(scene.Snapshot(), time.Now(), time.Now())
	if err != nil {
		panic(err)
	}
	if err := session.WriteFileAtomic(path, data, 0644); err != nil {
		panic(err)
	}
	saveDuration := time.Since(startSave)
	fmt.Printf("Save Result: %v (%d bytes)\n", saveDuration, len(data))

	// 3. Load: parse, migrate, rebuild the scene, decode images.
	fmt.Println("Running Load...")
	startLoad := time.Now()
	loaded, _, err := session.LoadFile(context.Background(), codec, path)
	if err != nil {
		panic(err)
	}
	loadDuration := time.Since(startLoad)
	fmt.Printf("Load Result: %v (Entities: %d)\n", loadDuration, loaded.EntityCount())

	// 4. Render: full PNG export at reduced scale.
	fmt.Println("Running Render...")
	exporter := export.NewExporter(export.ExporterConfig{Logger: logger})
	startRender := time.Now()
	img, err := exporter.Render(loaded.Snapshot(), export.Options{Scale: 0.5})
	if err != nil {
		panic(err)
	}
	renderDuration := time.Since(startRender)
	fmt.Printf("Render Result: %v (%dx%d)\n",
		renderDuration, img.Bounds().Dx(), img.Bounds().Dy())

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes, %d images):\n", *notes, *images)
	fmt.Printf("  Save:   %v\n", saveDuration)
	fmt.Printf("  Load:   %v\n", loadDuration)
	fmt.Printf("  Render: %v\n", renderDuration)
	fmt.Printf("--------------------------------------------------\n")
}

// tinyPNG returns a small opaque PNG for image entities.
func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
