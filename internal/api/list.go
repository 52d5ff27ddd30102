package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/visualright/filterlab/internal/catalog"
	"github.com/visualright/filterlab/internal/handler"
)

const (
	// Default number of items per page
	defaultLimit = 30
	// Max number of items per page
	maxLimit = 100
	maxPage  = math.MaxInt/maxLimit + 1
)

// ListImage contains metadata and download information about an image
type ListImage struct {
	catalog.Image
	DownloadURL string `json:"download_url"`
}

// Returns info about an image
func (a *API) infoHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	image, handlerErr := a.getImage(r, mux.Vars(r)["id"])
	if handlerErr != nil {
		return handlerErr
	}

	return a.writeJSON(w, r, a.getListImage(*image), "no-cache, no-store, must-revalidate")
}

// Paginated list, with `page` and `limit` query parameters
func (a *API) listHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	limit := getLimit(r)
	page := getPage(r)

	offset := limit * (page - 1)

	images, err := a.Catalog.List(r.Context(), offset, limit)
	if err != nil {
		a.logError(r, "error getting image list from catalog", err)
		return handler.InternalServerError()
	}

	list := make([]ListImage, 0, len(images))
	for _, image := range images {
		list = append(list, a.getListImage(image))
	}

	// If we've ran out of items, don't include the next page in the Link header
	end := len(list) < limit
	if link := a.getLinkHeader(page, limit, end); link != "" {
		w.Header().Set("Link", link)
	}

	return a.writeJSON(w, r, list, "no-cache, no-store, must-revalidate")
}

// Lists the kernel presets
func (a *API) kernelsHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return a.writeJSON(w, r, a.Kernels.Presets(), "public, max-age=3600")
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}, cacheControl string) *handler.Error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", cacheControl)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logError(r, "error encoding response", err)
		return handler.InternalServerError()
	}

	return nil
}

func getLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return limit
}

func getPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	switch {
	case errors.Is(err, strconv.ErrRange) && page > 0:
		page = maxPage
	case err != nil || page < 1:
		page = 1
	}

	// Keeps limit*(page-1) from overflowing
	if page > maxPage {
		page = maxPage
	}

	return page
}

func (a *API) getLinkHeader(page, limit int, end bool) string {
	var links []string

	if page > 1 {
		links = append(links, fmt.Sprintf("<%s/v1/list?page=%d&limit=%d>; rel=\"prev\"", a.RootURL, page-1, limit))
	}

	if !end {
		links = append(links, fmt.Sprintf("<%s/v1/list?page=%d&limit=%d>; rel=\"next\"", a.RootURL, page+1, limit))
	}

	return strings.Join(links, ", ")
}

func (a *API) getListImage(image catalog.Image) ListImage {
	return ListImage{
		Image:       image,
		DownloadURL: fmt.Sprintf("%s/id/%s.png", a.RootURL, image.ID),
	}
}
