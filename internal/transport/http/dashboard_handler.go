package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "revboard/internal/errors"
	"revboard/internal/services"
	"revboard/internal/views"
)

// Default view parameters when the caller omits them.
const (
	defaultPreviewN  = 10
	defaultLocationK = 5
)

// DashboardHandler exposes the dataset and chart views over HTTP.
type DashboardHandler struct {
	service        DashboardService
	errorHandler   *apierrors.ErrorHandler
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(service DashboardService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger, maxUploadBytes int64) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("component", "dashboard.handler")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes mounts the dashboard API.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/dataset", func(r chi.Router) {
		r.Get("/preview", h.Preview)
		r.Get("/summary", h.Summary)
		r.Get("/industries", h.Industries)
		r.Get("/filter", h.Filter)
		r.Get("/locations", h.Locations)
		r.Get("/status", h.Status)
		r.Post("/upload", h.Upload)
	})

	r.Route("/charts", func(r chi.Router) {
		r.Get("/scatter", h.Scatter)
		r.Get("/bar", h.Bar)
		r.Get("/pie", h.Pie)
	})

	return r
}

// Preview handles GET /api/dataset/preview?n=10
func (h *DashboardHandler) Preview(w http.ResponseWriter, r *http.Request) {
	n, err := intQuery(r, "n", defaultPreviewN)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := h.service.Preview(r.Context(), n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// Summary handles GET /api/dataset/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// Industries handles GET /api/dataset/industries
func (h *DashboardHandler) Industries(w http.ResponseWriter, r *http.Request) {
	industries, err := h.service.Industries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   industries,
		"count":  len(industries),
	})
}

// Filter handles GET /api/dataset/filter?industries=a,b&n=10. The industries
// parameter may repeat and each value may carry comma-separated entries; no
// industries selected means an empty result, not the full table.
func (h *DashboardHandler) Filter(w http.ResponseWriter, r *http.Request) {
	n, err := intQuery(r, "n", defaultPreviewN)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var industries []string
	for _, raw := range r.URL.Query()["industries"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				industries = append(industries, part)
			}
		}
	}

	filtered, top, err := h.service.Filter(r.Context(), industries, n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"filtered": filtered,
			"top":      top,
		},
		"count": len(filtered),
	})
}

// Locations handles GET /api/dataset/locations?top=5
func (h *DashboardHandler) Locations(w http.ResponseWriter, r *http.Request) {
	top, err := intQuery(r, "top", defaultLocationK)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	locations, err := h.service.Locations(r.Context(), top)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   locations,
		"count":  len(locations),
	})
}

// Status handles GET /api/dataset/status
func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(),
	})
}

// Scatter handles GET /api/charts/scatter?width=8&height=5
func (h *DashboardHandler) Scatter(w http.ResponseWriter, r *http.Request) {
	dims, err := dimensionsQuery(r, views.DefaultDimensions())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	chart, err := h.service.Scatter(r.Context(), dims)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
	})
}

// Bar handles GET /api/charts/bar?width=8&height=5
func (h *DashboardHandler) Bar(w http.ResponseWriter, r *http.Request) {
	dims, err := dimensionsQuery(r, views.DefaultDimensions())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	chart, err := h.service.Bar(r.Context(), dims)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
	})
}

// Pie handles GET /api/charts/pie?width=6&height=5
func (h *DashboardHandler) Pie(w http.ResponseWriter, r *http.Request) {
	dims, err := dimensionsQuery(r, views.DefaultPieDimensions())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	chart, err := h.service.Pie(r.Context(), dims)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
	})
}

// Upload handles POST /api/dataset/upload with a multipart "file" part.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"UPLOAD_REJECTED",
			fmt.Sprintf("could not parse multipart form: %v", err),
		))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"UPLOAD_REJECTED",
			"multipart form must carry a \"file\" part",
		))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	ds, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFileType) || errors.Is(err, services.ErrEmptyUpload) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				"UPLOAD_REJECTED",
				err.Error(),
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"filename":    header.Filename,
			"records":     ds.Len(),
			"columns":     ds.Columns(),
			"name_column": ds.NameColumn(),
		},
	})
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.New(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			fmt.Sprintf("parameter %q must be an integer, got %q", name, raw),
		)
	}
	return v, nil
}

// dimensionsQuery parses optional width/height parameters, falling back to
// the chart's defaults. Range checks happen in the views layer.
func dimensionsQuery(r *http.Request, def views.Dimensions) (views.Dimensions, error) {
	width, err := intQuery(r, "width", def.Width)
	if err != nil {
		return views.Dimensions{}, err
	}
	height, err := intQuery(r, "height", def.Height)
	if err != nil {
		return views.Dimensions{}, err
	}
	return views.Dimensions{Width: width, Height: height}, nil
}
