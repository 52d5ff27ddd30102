package imageapi_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/health"
	"github.com/visualright/filterlab/internal/hmac"
	"github.com/visualright/filterlab/internal/image"
	"github.com/visualright/filterlab/internal/image/native"
	"github.com/visualright/filterlab/internal/imageapi"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/params"
	"github.com/visualright/filterlab/internal/raster"
	"github.com/visualright/filterlab/internal/storage"
	"github.com/visualright/filterlab/internal/tracing/test"
	"go.uber.org/zap"

	mockProcessor "github.com/visualright/filterlab/internal/image/mock"

	fileStorage "github.com/visualright/filterlab/internal/storage/file"
	mockStorage "github.com/visualright/filterlab/internal/storage/mock"

	memoryCache "github.com/visualright/filterlab/internal/cache/memory"
)

type fixture struct {
	router              http.Handler
	mockStorageRouter   http.Handler
	mockProcessorRouter http.Handler
	smallUploadRouter   http.Handler
	hmac                *hmac.HMAC
	source              []byte
}

func setup(t *testing.T) *fixture {
	log := logger.New(zap.FatalLevel)
	tracer := test.Tracer(log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h, _ := hmac.New("test")

	registry, err := kernel.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}

	fixtures, err := fileStorage.New("../../test/fixtures/file")
	if err != nil {
		t.Fatal(err)
	}

	source, err := os.ReadFile("../../test/fixtures/file/1.png")
	if err != nil {
		t.Fatal(err)
	}

	newProcessor := func(provider storage.Provider) image.Processor {
		return native.New(ctx, log, tracer, 2, 0, image.NewCache(tracer, memoryCache.New(0), provider), memoryCache.New(0))
	}

	newRouter := func(processor image.Processor, maxUploadBytes int64) http.Handler {
		return (&imageapi.API{
			ImageProcessor: processor,
			Kernels:        registry,
			HealthChecker:  &health.Checker{Ctx: ctx, Log: log},
			Log:            log,
			Tracer:         tracer,
			HandlerTimeout: time.Minute,
			HMAC:           h,
			MaxUploadBytes: maxUploadBytes,
		}).Router()
	}

	processor := newProcessor(fixtures)

	return &fixture{
		router:              newRouter(processor, 0),
		mockStorageRouter:   newRouter(newProcessor(&mockStorage.Provider{}), 0),
		mockProcessorRouter: newRouter(&mockProcessor.Processor{}, 0),
		smallUploadRouter:   newRouter(processor, 100),
		hmac:                h,
		source:              source,
	}
}

func (f *fixture) sign(t *testing.T, path string, query url.Values) string {
	signed, err := params.HMAC(f.hmac, path, query)
	if err != nil {
		t.Fatal(err)
	}

	return signed
}

func TestAPI(t *testing.T) {
	f := setup(t)

	textHeaders := map[string]string{"Content-Type": "text/plain; charset=utf-8", "Cache-Control": "no-cache, no-store, must-revalidate"}

	tests := []struct {
		Name             string
		URL              string
		Router           http.Handler
		ExpectedStatus   int
		ExpectedResponse []byte
		ExpectedHeaders  map[string]string
	}{
		// Errors
		{"unsigned", "/id/1.png", f.router, http.StatusBadRequest, []byte("Invalid parameters\n"), textHeaders},
		{"tampered", strings.Replace(f.sign(t, "/id/1.png", url.Values{"kernel": {"blur"}}), "kernel=blur", "kernel=edge", 1), f.router, http.StatusBadRequest, []byte("Invalid parameters\n"), textHeaders},
		{"signed for another image", strings.Replace(f.sign(t, "/id/1.png", nil), "/id/1", "/id/2", 1), f.router, http.StatusBadRequest, []byte("Invalid parameters\n"), textHeaders},
		{"invalid extension", f.sign(t, "/id/1.gif", nil), f.router, http.StatusBadRequest, []byte("Invalid file extension\n"), textHeaders},
		{"invalid kernel", f.sign(t, "/id/1.png", url.Values{"kernel": {"1,1;1,1"}}), f.router, http.StatusBadRequest, nil, textHeaders},
		{"missing image", f.sign(t, "/id/404.png", nil), f.router, http.StatusNotFound, []byte("Image does not exist\n"), textHeaders},
		// Storage errors
		{"Get() storage", f.sign(t, "/id/1.png", nil), f.mockStorageRouter, http.StatusInternalServerError, []byte("Something went wrong\n"), textHeaders},
		// 404
		{"404", "/asdf", f.router, http.StatusNotFound, []byte("page not found\n"), textHeaders},
		// Processor errors
		{"processor error", f.sign(t, "/id/1.png", nil), f.mockProcessorRouter, http.StatusInternalServerError, []byte("Something went wrong\n"), textHeaders},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", test.URL, nil)
		test.Router.ServeHTTP(w, req)

		if w.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v", test.Name, w.Code)
			continue
		}

		if test.ExpectedResponse != nil && !bytes.Equal(w.Body.Bytes(), test.ExpectedResponse) {
			t.Errorf("%s: wrong response %s", test.Name, w.Body.String())
		}

		for expectedHeader, expectedValue := range test.ExpectedHeaders {
			if headerValue := w.Header().Get(expectedHeader); headerValue != expectedValue {
				t.Errorf("%s: wrong header value for %s, %#v", test.Name, expectedHeader, headerValue)
			}
		}
	}
}

func TestImage(t *testing.T) {
	f := setup(t)
	sharpen, _ := kernel.Builtin(kernel.Sharpen)

	src, err := raster.DecodeBytes(f.source)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Name                string
		Path                string
		Query               url.Values
		Chain               filter.Chain
		ExpectedContentType string
		ExpectedFilename    string
	}{
		{"unfiltered png", "/id/1.png", nil, nil, "image/png", "1.png"},
		{"sharpened png", "/id/1.png", url.Values{"kernel": {sharpen.String()}}, filter.Chain{filter.ConvolveStep{Kernel: sharpen}}, "image/png", ""},
		{"preset and adjustment", "/id/1.png", url.Values{"kernel": {"sharpen"}, "brightness": {"20"}, "grayscale": {""}},
			filter.Chain{filter.ConvolveStep{Kernel: sharpen}, filter.AdjustStep{Adjustment: filter.Adjustment{Brightness: 20, Contrast: 1, Grayscale: true}}}, "image/png", ""},
		{"bmp", "/id/1.bmp", nil, nil, "image/bmp", "1.bmp"},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", f.sign(t, test.Path, test.Query), nil)
		f.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: wrong response code, %#v %s", test.Name, w.Code, w.Body.String())
			continue
		}

		if contentType := w.Header().Get("Content-Type"); contentType != test.ExpectedContentType {
			t.Errorf("%s: wrong content type %s", test.Name, contentType)
		}

		if id := w.Header().Get(imageapi.IDHeader); id != "1" {
			t.Errorf("%s: wrong id header %s", test.Name, id)
		}

		if cacheControl := w.Header().Get("Cache-Control"); cacheControl != "public, max-age=2592000" {
			t.Errorf("%s: wrong cache header %s", test.Name, cacheControl)
		}

		disposition := w.Header().Get("Content-Disposition")
		if test.ExpectedFilename != "" && disposition != "inline; filename=\""+test.ExpectedFilename+"\"" {
			t.Errorf("%s: wrong content disposition %s", test.Name, disposition)
		}

		got, err := raster.DecodeBytes(w.Body.Bytes())
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		want, _ := test.Chain.Apply(src)
		if diff := cmp.Diff(want.Pix, got.Pix); diff != "" && test.ExpectedContentType == "image/png" {
			t.Errorf("%s: pixels differ (-want +got):\n%s", test.Name, diff)
		}
	}
}

func TestUpload(t *testing.T) {
	f := setup(t)

	tests := []struct {
		Name             string
		URL              string
		Router           http.Handler
		Body             []byte
		ExpectedStatus   int
		ExpectedResponse string
		ExpectedType     string
	}{
		{"process png", "/v1/process?kernel=blur", f.router, f.source, http.StatusOK, "", "image/png"},
		{"process jpeg", "/v1/process.jpg?contrast=2&noise=10", f.router, f.source, http.StatusOK, "", "image/jpeg"},
		{"undecodable", "/v1/process.png", f.router, []byte("not an image"), http.StatusBadRequest, "Invalid image data\n", ""},
		{"empty", "/v1/process.png", f.router, nil, http.StatusBadRequest, "Missing image data\n", ""},
		{"too large", "/v1/process.png", f.smallUploadRouter, f.source, http.StatusRequestEntityTooLarge, "Image data is larger than 100 bytes\n", ""},
		{"invalid params", "/v1/process.png?noise=-1", f.router, f.source, http.StatusBadRequest, "", ""},
		{"invalid extension", "/v1/process.gif", f.router, f.source, http.StatusBadRequest, "Invalid file extension\n", ""},
		{"processor error", "/v1/process.png", f.mockProcessorRouter, f.source, http.StatusInternalServerError, "Something went wrong\n", ""},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", test.URL, bytes.NewReader(test.Body))
		test.Router.ServeHTTP(w, req)

		if w.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v %s", test.Name, w.Code, w.Body.String())
			continue
		}

		if test.ExpectedResponse != "" && w.Body.String() != test.ExpectedResponse {
			t.Errorf("%s: wrong response %s", test.Name, w.Body.String())
		}

		if test.ExpectedType == "" {
			continue
		}

		if contentType := w.Header().Get("Content-Type"); contentType != test.ExpectedType {
			t.Errorf("%s: wrong content type %s", test.Name, contentType)
		}

		img, err := raster.DecodeBytes(w.Body.Bytes())
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
			t.Errorf("%s: wrong dimensions %v", test.Name, img.Bounds())
		}
	}
}
