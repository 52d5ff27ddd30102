package imageapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/visualright/filterlab/internal/handler"
	"github.com/visualright/filterlab/internal/image"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/params"
	"github.com/visualright/filterlab/internal/raster"
	"github.com/visualright/filterlab/internal/storage"
)

func (a *API) imageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	// Validate the hmac
	valid, err := params.ValidateHMAC(a.HMAC, r)
	if err != nil {
		a.logError(r, "error validating hmac", err)
		return handler.InternalServerError()
	}

	if !valid {
		return handler.BadRequest("Invalid parameters")
	}

	// Get the path and query parameters
	p, err := params.GetParams(r, a.Kernels)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	imageID := mux.Vars(r)["id"]

	// Build the image task
	task := image.NewTask(imageID, fmt.Sprintf("Filterlab ID: %s", imageID), p.Format).Filter(p.Chain())

	// Process the image
	processedImage, err := a.ImageProcessor.ProcessImage(r.Context(), task)
	if err != nil {
		return a.processingError(r, err)
	}

	// Set the headers
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", buildFilename(task)))
	w.Header().Set("Content-Type", p.Format.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=2592000") // Cache for a month
	w.Header().Set(IDHeader, imageID)

	// Return the image
	w.Write(processedImage)

	return nil
}

func (a *API) uploadHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	p, err := params.GetParams(r, a.Kernels)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return &handler.Error{Message: fmt.Sprintf("Image data is larger than %d bytes", limit), Code: http.StatusRequestEntityTooLarge}
		}

		return handler.BadRequest("Error reading image data")
	}

	if len(data) == 0 {
		return handler.BadRequest("Missing image data")
	}

	processedImage, err := a.ImageProcessor.ProcessUpload(r.Context(), data, p.Chain(), p.Format)
	if err != nil {
		return a.processingError(r, err)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"filtered%s\"", p.Format.Extension()))
	w.Header().Set("Content-Type", p.Format.ContentType())
	w.Header().Set("Cache-Control", "private, no-store")

	w.Write(processedImage)

	return nil
}

// processingError maps processor errors to responses
func (a *API) processingError(r *http.Request, err error) *handler.Error {
	var invalidKernel *kernel.InvalidKernelError

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return handler.NotFound(storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidID):
		return handler.BadRequest(storage.ErrInvalidID.Error())
	case errors.Is(err, image.ErrTooLarge):
		return &handler.Error{Message: image.ErrTooLarge.Error(), Code: http.StatusRequestEntityTooLarge}
	case errors.Is(err, raster.ErrImageNotLoaded) && r.Method == http.MethodPost:
		return handler.BadRequest("Invalid image data")
	case errors.As(err, &invalidKernel):
		return handler.BadRequest(err.Error())
	}

	a.logError(r, "error processing image", err)
	return handler.InternalServerError()
}

func buildFilename(task *image.Task) string {
	if len(task.Chain) == 0 {
		return task.ImageID + task.OutputFormat.Extension()
	}

	return fmt.Sprintf("%s-%s%s", task.ImageID, task.Key(), task.OutputFormat.Extension())
}
