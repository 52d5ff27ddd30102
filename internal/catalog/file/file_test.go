package file_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"

	"github.com/visualright/filterlab/internal/catalog"
	"github.com/visualright/filterlab/internal/catalog/file"

	"testing"
)

var image = catalog.Image{
	ID:     "1",
	Title:  "Gradient",
	Author: "Visual Right",
	URL:    "https://example.com/gradient",
	Width:  16,
	Height: 16,
}

var secondImage = catalog.Image{
	ID:     "2",
	Title:  "Checkerboard",
	Author: "Visual Right",
	URL:    "https://example.com/checkerboard",
	Width:  8,
	Height: 8,
}

func TestFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := file.New("../../../test/fixtures/file/metadata_multiple.json")
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Shutdown()

	t.Run("Get an image by id", func(t *testing.T) {
		got, err := provider.Get(ctx, "1")
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(got, &image) {
			t.Errorf("image data doesn't match %+v", got)
		}
	})

	t.Run("Returns error on a nonexistant image", func(t *testing.T) {
		_, err := provider.Get(ctx, "nonexistant")
		if err != catalog.ErrNotFound {
			t.Fatalf("wrong error %v", err)
		}
	})

	t.Run("Returns a random image", func(t *testing.T) {
		got, err := provider.GetRandom(ctx)
		if err != nil {
			t.Fatal(err)
		}

		if got.ID != "1" && got.ID != "2" {
			t.Error("wrong image")
		}
	})

	t.Run("Returns a random image based on the seed", func(t *testing.T) {
		for seed, expected := range map[uint64]string{0: "1", 1: "2", 2: "1", 17: "2"} {
			got, err := provider.GetRandomWithSeed(ctx, seed)
			if err != nil {
				t.Fatal(err)
			}

			if got.ID != expected {
				t.Errorf("seed %d: wrong image %s", seed, got.ID)
			}
		}
	})

	t.Run("Returns a list of all the images", func(t *testing.T) {
		images, err := provider.ListAll(ctx)
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(images, []catalog.Image{image, secondImage}) {
			t.Error("image data doesn't match")
		}
	})

	t.Run("Returns a list of images", func(t *testing.T) {
		tests := []struct {
			offset   int
			limit    int
			expected []catalog.Image
		}{
			{0, 10, []catalog.Image{image, secondImage}},
			{0, 1, []catalog.Image{image}},
			{1, 1, []catalog.Image{secondImage}},
			{2, 1, []catalog.Image{}},
			{5, 10, []catalog.Image{}},
		}

		for _, test := range tests {
			images, err := provider.List(ctx, test.offset, test.limit)
			if err != nil {
				t.Fatal(err)
			}

			if len(images) != len(test.expected) || (len(images) > 0 && !reflect.DeepEqual(images, test.expected)) {
				t.Errorf("offset %d limit %d: wrong images %+v", test.offset, test.limit, images)
			}
		}
	})

	t.Run("Returned images are copies", func(t *testing.T) {
		got, _ := provider.Get(ctx, "1")
		got.Title = "changed"

		again, _ := provider.Get(ctx, "1")
		if again.Title != "Gradient" {
			t.Error("catalog was modified through a returned image")
		}
	})
}

func TestNew(t *testing.T) {
	if _, err := file.New("nonexistant.json"); err == nil {
		t.Error("expected an error for a missing manifest")
	}

	dir := t.TempDir()
	for name, contents := range map[string]string{
		"invalid":   "{",
		"missing":   `[{"title": "no id"}]`,
		"duplicate": `[{"id": "1"}, {"id": "1"}]`,
	} {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := file.New(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	provider, err := file.New(empty)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := provider.GetRandom(context.Background()); err != catalog.ErrEmpty {
		t.Errorf("wrong error %v", err)
	}
}
