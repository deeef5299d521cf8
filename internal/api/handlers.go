package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"dashboard/internal/engine"
	"dashboard/internal/logger"
	"dashboard/internal/metrics"
	"dashboard/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler serves the dashboard endpoints. Until SetData is called every
// data endpoint answers 503.
type Handler struct {
	data    atomic.Pointer[engine.Dataset]
	metrics *metrics.DashboardMetrics
	log     zerolog.Logger
}

func NewHandler(data *engine.Dataset, m *metrics.DashboardMetrics) *Handler {
	h := &Handler{metrics: m, log: logger.Get("api")}
	if data != nil {
		h.SetData(data)
	}
	return h
}

// SetData publishes the loaded dataset to the live API.
func (h *Handler) SetData(data *engine.Dataset) {
	h.data.Store(data)
	h.metrics.SetDataset(data.Len(), data.Dropped())
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/dataset", h.GetDataset)
	api.GET("/views", h.ListViews)
	api.GET("/views/:view", h.GetView)
	api.GET("/options", h.GetOptions)
	api.GET("/records", h.GetRecords)
	api.GET("/export.csv", h.ExportCSV)
	api.GET("/export.arrow", h.ExportArrow)
}

// queryParams are the filter and view parameters shared by the endpoints.
// top_n is range checked by validateQueryParams, and only for views that
// take it.
type queryParams struct {
	Search           string   `query:"search"`
	ExcludePublisher bool     `query:"exclude_publisher"`
	Genres           []string `query:"genres"`
	TopN             int      `query:"top_n"`
	Genre            string   `query:"genre"`
	Console          string   `query:"console"`
	View             string   `query:"view"`

	// view is the resolved target, from the path or the view query param.
	view engine.ViewID
}

func validateQueryParams(sl validator.StructLevel) {
	p := sl.Current().Interface().(queryParams)
	if p.TopN == 0 || !engine.TakesTopN(p.view) {
		return
	}
	switch {
	case p.TopN < engine.MinTopN:
		sl.ReportError(p.TopN, "top_n", "TopN", "min", strconv.Itoa(engine.MinTopN))
	case p.TopN > engine.MaxTopN:
		sl.ReportError(p.TopN, "top_n", "TopN", "max", strconv.Itoa(engine.MaxTopN))
	}
}

// allGenres is the multiselect's "select all" shortcut.
const allGenres = "*"

func (p queryParams) filters(ds *engine.Dataset) engine.Filters {
	var genres []string
	for _, g := range p.Genres {
		for _, part := range strings.Split(g, ",") {
			part = strings.TrimSpace(part)
			if part == allGenres {
				return engine.Filters{
					Search:           p.Search,
					ExcludePublisher: p.ExcludePublisher,
					Genres:           engine.Working(ds).Genres(),
				}
			}
			if part != "" {
				genres = append(genres, part)
			}
		}
	}
	return engine.Filters{Search: p.Search, ExcludePublisher: p.ExcludePublisher, Genres: genres}
}

// --- HELPERS ---

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) dataset() (*engine.Dataset, error) {
	ds := h.data.Load()
	if ds == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	}
	return ds, nil
}

// working binds the query and applies the filters for this request.
func (h *Handler) working(c echo.Context) (engine.WorkingDataset, queryParams, error) {
	var p queryParams
	ds, err := h.dataset()
	if err != nil {
		return engine.WorkingDataset{}, p, err
	}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return engine.WorkingDataset{}, p, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}
	p.view = engine.ViewID(c.Param("view"))
	if p.view == "" {
		p.view = engine.ViewID(p.View)
	}
	if err := c.Validate(&p); err != nil {
		return engine.WorkingDataset{}, p, err
	}
	return engine.ApplyFilters(ds, p.filters(ds)), p, nil
}

// toHTTPError maps engine errors onto HTTP status codes.
func toHTTPError(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, engine.ErrUnknownView):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidTopN):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrColumnExcluded):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"ready":  h.data.Load() != nil,
	})
}

func (h *Handler) GetDataset(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.DatasetInfo{
		Source:  ds.Source(),
		Rows:    ds.Len(),
		Dropped: ds.Dropped(),
		Columns: engine.RequiredColumns,
	})
}

func (h *Handler) ListViews(c echo.Context) error {
	return c.JSON(http.StatusOK, engine.Views())
}

// genres and consoles of the filtered rows, for the drill-down selects
func (h *Handler) GetOptions(c echo.Context) error {
	w, _, err := h.working(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Options{Genres: w.Genres(), Consoles: w.Consoles()})
}

func (h *Handler) GetView(c echo.Context) error {
	start := time.Now()
	view, err := engine.ParseView(c.Param("view"))
	if err != nil {
		return toHTTPError(err)
	}

	w, p, err := h.working(c)
	if err != nil {
		return err
	}
	res, err := engine.Resolve(w, engine.ViewRequest{
		View:    view,
		TopN:    p.TopN,
		Genre:   p.Genre,
		Console: p.Console,
	})
	h.metrics.ObserveView(string(view), time.Since(start), err)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetRecords pages through the filtered rows.
func (h *Handler) GetRecords(c echo.Context) error {
	w, _, err := h.working(c)
	if err != nil {
		return err
	}
	table := w.Table()
	total := len(table.Rows)
	limit, offset := getPaginationParams(c, total)

	rows := [][]any{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		rows = table.Rows[offset:end]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"columns": table.Columns,
		"data":    rows,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) ExportCSV(c echo.Context) error {
	w, _, err := h.working(c)
	if err != nil {
		return err
	}
	body, err := engine.ExportCSV(w)
	if err != nil {
		return toHTTPError(err)
	}
	h.metrics.IncExport("csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+engine.CSVFileName+`"`)
	return c.Blob(http.StatusOK, "text/csv", body)
}

// ExportArrow streams the filtered rows, or a view's table when ?view= is
// set, as Arrow IPC.
func (h *Handler) ExportArrow(c echo.Context) error {
	w, p, err := h.working(c)
	if err != nil {
		return err
	}

	table := w.Table()
	name := "filtered_games"
	if p.View != "" {
		view, err := engine.ParseView(p.View)
		if err != nil {
			return toHTTPError(err)
		}
		res, err := engine.Resolve(w, engine.ViewRequest{View: view, TopN: p.TopN, Genre: p.Genre, Console: p.Console})
		if err != nil {
			return toHTTPError(err)
		}
		table = res.Table
		name = string(view)
	}

	body, err := engine.ExportArrow(table)
	if err != nil {
		return toHTTPError(err)
	}
	h.metrics.IncExport("arrow")
	h.log.Debug().Str("table", name).Int("rows", len(table.Rows)).Msg("Arrow export")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`.arrows"`)
	return c.Blob(http.StatusOK, "application/vnd.apache.arrow.stream", body)
}
