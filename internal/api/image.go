package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/twmb/murmur3"
	"github.com/valyala/fastrand"
	"github.com/visualright/filterlab/internal/catalog"
	"github.com/visualright/filterlab/internal/handler"
	"github.com/visualright/filterlab/internal/params"
)

func (a *API) imageRedirectHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	p, err := params.GetParams(r, a.Kernels)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	image, handlerErr := a.getImage(r, mux.Vars(r)["id"])
	if handlerErr != nil {
		return handlerErr
	}

	return a.redirect(w, r, p, image)
}

func (a *API) randomImageRedirectHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	p, err := params.GetParams(r, a.Kernels)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	image, err := a.Catalog.GetRandom(r.Context())
	if err != nil {
		a.logError(r, "error getting random image from catalog", err)
		return handler.InternalServerError()
	}

	return a.redirect(w, r, p, image)
}

func (a *API) seedImageRedirectHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	p, err := params.GetParams(r, a.Kernels)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	// The same seed always picks the same image
	hash := murmur3.StringSum64(mux.Vars(r)["seed"])

	image, err := a.Catalog.GetRandomWithSeed(r.Context(), hash)
	if err != nil {
		a.logError(r, "error getting random image from catalog", err)
		return handler.InternalServerError()
	}

	return a.redirect(w, r, p, image)
}

func (a *API) getImage(r *http.Request, imageID string) (*catalog.Image, *handler.Error) {
	image, err := a.Catalog.Get(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, handler.NotFound(err.Error())
		}

		a.logError(r, "error getting image from catalog", err)
		return nil, handler.InternalServerError()
	}

	return image, nil
}

// redirect sends the client to a signed image service url for the image and filters
func (a *API) redirect(w http.ResponseWriter, r *http.Request, p *params.Params, image *catalog.Image) *handler.Error {
	// Pin unseeded noise so that the image service output is cacheable
	if p.Adjustment.Noise > 0 && p.Adjustment.Seed == 0 {
		for p.Adjustment.Seed == 0 {
			p.Adjustment.Seed = fastrand.Uint32()
		}
	}

	path := fmt.Sprintf("/id/%s%s", image.ID, p.Format.Extension())
	url, err := params.HMAC(a.HMAC, path, p.Query())
	if err != nil {
		a.logError(r, "error creating hmac", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header()["Content-Type"] = nil
	http.Redirect(w, r, a.ImageServiceURL+url, http.StatusFound)

	return nil
}
