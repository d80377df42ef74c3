package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/explorer"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/log"
)

// ProductInfo is the listing form of a loaded dataset.
type ProductInfo struct {
	ProductID string         `json:"product_id"`
	Filename  string         `json:"filename"`
	Rows      int            `json:"rows"`
	Columns   int            `json:"columns"`
	Domain    string         `json:"domain,omitempty"`
	Source    dataset.Source `json:"source"`
	LoadedAt  time.Time      `json:"loaded_at"`
}

// FailureInfo reports one file that was skipped.
type FailureInfo struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// LoadResponse is the reply to upload and reload.
type LoadResponse struct {
	BatchID    string        `json:"batch_id,omitempty"`
	Loaded     []ProductInfo `json:"loaded"`
	Failures   []FailureInfo `json:"failures"`
	Generation uint64        `json:"generation"`
	Total      int           `json:"total"`
}

// OverviewResponse is the reply to GET /api/overview.
type OverviewResponse struct {
	Overview aggregate.OverviewMetrics `json:"overview"`
	Domains  []aggregate.Summary       `json:"domains"`
}

// ProductDetail is the reply to GET /api/products/:id.
type ProductDetail struct {
	ProductInfo
	ColumnNames []string                `json:"column_names"`
	Fields      map[string]string       `json:"fields"`
	Describe    []aggregate.ColumnStats `json:"describe"`
	Quality     aggregate.QualityReport `json:"quality"`
}

func (s *Server) info(d *dataset.Dataset) ProductInfo {
	domain, _ := s.deps.Catalog.DomainOf(d.ProductID)
	return ProductInfo{
		ProductID: d.ProductID,
		Filename:  d.Filename,
		Rows:      d.RowCount,
		Columns:   d.ColumnCount,
		Domain:    domain,
		Source:    d.Source,
		LoadedAt:  d.LoadedAt,
	}
}

func failures(ff []loader.FileFailure) []FailureInfo {
	out := make([]FailureInfo, 0, len(ff))
	for _, f := range ff {
		out = append(out, FailureInfo{Filename: f.Filename, Error: f.Err.Error()})
	}
	return out
}

func (s *Server) overview(c echo.Context) error {
	return c.JSON(http.StatusOK, OverviewResponse{
		Overview: aggregate.Overview(s.deps.Registry, s.deps.Catalog),
		Domains:  aggregate.DomainSummaries(s.deps.Registry, s.deps.Catalog),
	})
}

func (s *Server) domains(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Views.All(c.Request().Context()))
}

func (s *Server) domain(c echo.Context) error {
	v, err := s.deps.Views.Domain(c.Request().Context(), c.Param("domain"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) products(c echo.Context) error {
	all := s.deps.Registry.All()
	out := make([]ProductInfo, 0, len(all))
	for _, d := range all {
		out = append(out, s.info(d))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) product(c echo.Context) error {
	d, err := aggregate.Product(s.deps.Registry, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProductDetail{
		ProductInfo: s.info(d),
		ColumnNames: d.Table.Columns(),
		Fields:      d.Fields,
		Describe:    aggregate.Describe(d),
		Quality:     aggregate.Quality(d),
	})
}

// export streams the filtered view of a product as CSV. Query parameters:
// columns=a,b selects columns (all when absent, repeats dropped);
// filter=col:v1|v2 or filter=col~text, repeatable up to three times. Each
// filter must fit the mode of its column after the filters before it.
func (s *Server) export(c echo.Context) error {
	d, err := aggregate.Product(s.deps.Registry, c.Param("id"))
	if err != nil {
		return err
	}

	state := explorer.State{ProductID: d.ProductID}
	if cols := c.QueryParam("columns"); cols != "" {
		for _, col := range strings.Split(cols, ",") {
			if col = strings.TrimSpace(col); col != "" {
				state.Columns = append(state.Columns, col)
			}
		}
	}
	state, err = explorer.WithFilters(state, c.QueryParams()["filter"])
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := explorer.CheckFilters(d, state); err != nil {
		return err
	}

	view, err := explorer.Apply(d, state)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := explorer.Export(&buf, view); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", explorer.ExportName(d.ProductID)))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// upload parses multipart "files" and merges the ones that parse. When no
// file parses the request fails with the first parse error.
func (s *Server) upload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.opts.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart form with files")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return withAdvice(echo.NewHTTPError(http.StatusBadRequest, "no files uploaded"),
			`Send one or more CSV files in the "files" form field.`)
	}

	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		return err
	}

	loaded, failed := s.deps.Loader.LoadUploads(req.Context(), uploads)
	if len(loaded) == 0 {
		log.Warn(log.CatServer, "upload rejected", "files", len(headers))
		return failed[0].Err
	}
	s.deps.Registry.Merge(loaded)

	resp := LoadResponse{
		Failures:   failures(failed),
		Generation: s.deps.Registry.Generation(),
		Total:      s.deps.Registry.Len(),
	}
	for _, d := range loaded {
		resp.Loaded = append(resp.Loaded, s.info(d))
	}
	return c.JSON(http.StatusOK, resp)
}

func openUploads(headers []*multipart.FileHeader) ([]loader.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]loader.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, loader.Upload{Name: fh.Filename, Reader: f})
	}
	return uploads, closeAll, nil
}

// reload replaces the session with the data directory's contents. When the
// directory is missing the session is left as is.
func (s *Server) reload(c echo.Context) error {
	res, err := s.deps.Loader.LoadAll(c.Request().Context(), s.opts.DataDir)
	if err != nil {
		return err
	}
	s.deps.Registry.ReplaceAll(res.Datasets)

	resp := LoadResponse{
		BatchID:    res.BatchID,
		Failures:   failures(res.Failures),
		Generation: s.deps.Registry.Generation(),
		Total:      s.deps.Registry.Len(),
	}
	for _, d := range res.Datasets {
		resp.Loaded = append(resp.Loaded, s.info(d))
	}
	return c.JSON(http.StatusOK, resp)
}
