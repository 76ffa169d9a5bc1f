package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/staysquare/api/internal/application/ingest"
	"github.com/staysquare/api/internal/application/listing"
	"github.com/staysquare/api/internal/domain"
	"github.com/staysquare/api/internal/transport/http/middleware"
)

const maxUploadBytes = 32 << 20

// ListingHandler handles the listing endpoints.
type ListingHandler struct {
	svc listing.Service
}

func NewListingHandler(svc listing.Service) *ListingHandler {
	return &ListingHandler{svc: svc}
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := domain.CreateListingRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Gender:      r.FormValue("gender"),
		City:        r.FormValue("city"),
		Area:        r.FormValue("area"),
		Phone:       r.FormValue("phone"),
		Lat:         r.FormValue("lat"),
		Lng:         r.FormValue("lng"),
		Prices:      r.FormValue("prices"),
	}

	files, err := spoolImages(r)
	if err != nil {
		ingest.Discard(files)
		writeError(w, http.StatusBadRequest, "could not read uploaded images")
		return
	}

	l, err := h.svc.Create(r.Context(), ident.IdentityID, req, files)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ListingEnvelope{Success: true, Message: "listing created successfully", Listing: l})
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListingsEnvelope{Success: true, Count: len(listings), Listings: listings})
}

func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	listings, err := h.svc.ListMine(r.Context(), ident.IdentityID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListingsEnvelope{Success: true, Count: len(listings), Listings: listings})
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListingEnvelope{Success: true, Listing: l})
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), ident.IdentityID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "listing deleted successfully"})
}

// spoolImages copies each uploaded "images" part to a local temp file so the
// ingest pipeline can stream them to object storage. On error the caller
// discards whatever was spooled so far.
func spoolImages(r *http.Request) ([]ingest.TempFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var files []ingest.TempFile
	for _, header := range r.MultipartForm.File["images"] {
		part, err := header.Open()
		if err != nil {
			return files, err
		}
		tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
		if err != nil {
			part.Close()
			return files, err
		}
		_, err = tmp.ReadFrom(part)
		part.Close()
		if cErr := tmp.Close(); err == nil {
			err = cErr
		}
		files = append(files, ingest.TempFile{
			Path:        tmp.Name(),
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		})
		if err != nil {
			return files, fmt.Errorf("spool %s: %w", header.Filename, err)
		}
	}
	return files, nil
}
