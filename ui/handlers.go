package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"mixaudit/adapters/excel"
	"mixaudit/app"
	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
	"mixaudit/internal/errors"
	"mixaudit/internal/pipeline"
)

// maxUploadSize caps uploaded batch reports at 50MB
const maxUploadSize = 50 << 20

var artifactLabels = map[string]string{
	"statistics":        "Statistics (CSV)",
	"processed-batches": "Processed batches (Excel)",
	"histogram":         "Histogram (SVG)",
	"report":            "Run report (Markdown)",
}

// handleIndex renders the upload page
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "upload.html", gin.H{})
}

// handleUpload ingests an uploaded batch report, primes a session with
// the distinct filter values found in it, and redirects to the filter
// page.
func (s *Server) handleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("dataset")
	if err != nil {
		s.renderStatus(c, http.StatusBadRequest, "upload.html", gin.H{"Error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		s.renderStatus(c, http.StatusBadRequest, "upload.html", gin.H{
			"Error": fmt.Sprintf("File size (%.1f MB) exceeds the 50MB limit", float64(header.Size)/(1<<20)),
		})
		return
	}

	opts := excel.ReadOptions{
		SheetName:         s.cfg.Ingest.SheetName,
		SkipRows:          s.cfg.Ingest.SkipRows,
		RemoveFirstColumn: s.cfg.Ingest.RemoveFirstColumn,
		ColumnsToRemove:   s.cfg.Ingest.ColumnsToRemove,
	}

	var table feed.RawTable
	name := strings.ToLower(header.Filename)
	switch {
	case strings.HasSuffix(name, ".xlsx"):
		table, err = excel.NewUploadReader(file, opts).Load(c.Request.Context())
	case strings.HasSuffix(name, ".csv"):
		table, err = excel.FromCSV(file, opts)
	default:
		s.renderStatus(c, http.StatusBadRequest, "upload.html", gin.H{"Error": "Only .xlsx and .csv files are supported"})
		return
	}
	if err != nil {
		log.Printf("[handleUpload] Ingest failed for %s: %v", header.Filename, err)
		s.renderStatus(c, http.StatusUnprocessableEntity, "upload.html", gin.H{"Error": err.Error()})
		return
	}

	records, _, err := pipeline.Normalize(table, s.cfg.Columns)
	if err != nil {
		s.renderStatus(c, http.StatusUnprocessableEntity, "upload.html", gin.H{"Error": err.Error()})
		return
	}
	if len(records) == 0 {
		s.renderStatus(c, http.StatusUnprocessableEntity, "upload.html", gin.H{"Error": "No usable rows found in the uploaded file"})
		return
	}

	start, end, _ := feed.DateSpan(records)
	sess := &session{
		ID:        core.NewSessionID(),
		Filename:  header.Filename,
		Table:     table,
		Records:   records,
		Operators: feed.DistinctOperators(records),
		FoodTypes: feed.DistinctFoodTypes(records),
		DietNames: feed.DistinctDietNames(records),
		SpanStart: start,
		SpanEnd:   end,
		CreatedAt: time.Now(),
	}
	s.sessions.Put(sess)

	c.SetCookie(sessionCookie, sess.ID.String(), int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/filters")
}

// handleFilters renders the filter form primed with the values present
// in the uploaded file
func (s *Server) handleFilters(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	s.renderTemplate(c, "filters.html", s.filtersData(sess, ""))
}

// handleGenerate parses the filter form, runs the analysis and
// redirects to the results page
func (s *Server) handleGenerate(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}

	filter := feed.FilterParams{
		Operators: c.PostFormArray("operators"),
		FoodTypes: c.PostFormArray("food_types"),
		DietNames: c.PostFormArray("diet_names"),
	}
	if raw := strings.TrimSpace(c.PostForm("start_date")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.renderStatus(c, http.StatusBadRequest, "filters.html", s.filtersData(sess, "Invalid start date"))
			return
		}
		filter.Start = core.NewDay(t)
	}
	if raw := strings.TrimSpace(c.PostForm("end_date")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.renderStatus(c, http.StatusBadRequest, "filters.html", s.filtersData(sess, "Invalid end date"))
			return
		}
		filter.End = core.NewDay(t)
	}

	weights := feed.RelativeWeightMap{}
	for foodType, raw := range c.PostFormMap("weights") {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.renderStatus(c, http.StatusBadRequest, "filters.html",
				s.filtersData(sess, fmt.Sprintf("Invalid weight for %s", foodType)))
			return
		}
		weights[foodType] = w
	}

	threshold := s.cfg.Analysis.ToleranceThreshold
	if raw := c.PostForm("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.renderStatus(c, http.StatusBadRequest, "filters.html", s.filtersData(sess, "Invalid tolerance threshold"))
			return
		}
		threshold = v
	}
	bucketStep := s.cfg.Analysis.BucketStep
	if raw := c.PostForm("bucket_step"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.renderStatus(c, http.StatusBadRequest, "filters.html", s.filtersData(sess, "Invalid bucket step"))
			return
		}
		bucketStep = v
	}

	mode := analysis.ExclusionMode(c.PostForm("exclusion_mode"))
	if !mode.Valid() {
		mode = s.cfg.Analysis.Mode()
	}

	req := app.AnalysisRequest{
		Table:          sess.Table,
		Schema:         s.cfg.Columns,
		Filter:         filter,
		Weights:        weights,
		Threshold:      threshold,
		BucketStep:     bucketStep,
		Mode:           mode,
		RemoveOutliers: c.PostForm("remove_outliers") != "",
	}

	result, err := s.service.Run(c.Request.Context(), req)
	if err != nil {
		log.Printf("[handleGenerate] Analysis failed: %v", err)
		status := http.StatusInternalServerError
		if errors.GetCode(err) == errors.CodeInvalidInput {
			status = http.StatusBadRequest
		}
		s.renderStatus(c, status, "filters.html", s.filtersData(sess, err.Error()))
		return
	}

	sess.SetResult(result)
	c.Redirect(http.StatusSeeOther, "/results")
}

// handleResults renders the histogram, the report and the download
// links for the latest run of this session
func (s *Server) handleResults(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	result := sess.Result()
	if result == nil {
		c.Redirect(http.StatusSeeOther, "/filters")
		return
	}

	chart, err := s.renderArtifact("histogram", result)
	if err != nil {
		log.Printf("[handleResults] Histogram render failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Histogram rendering failed"})
		return
	}
	reportMD, err := s.renderArtifact("report", result)
	if err != nil {
		log.Printf("[handleResults] Report render failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Report rendering failed"})
		return
	}

	links := make([]artifactLink, 0, len(s.exporters))
	for _, e := range s.exporters {
		label := artifactLabels[e.Name()]
		if label == "" {
			label = e.Name()
		}
		links = append(links, artifactLink{Name: e.Name(), Label: label})
	}

	s.renderTemplate(c, "results.html", gin.H{
		"Filename":  sess.Filename,
		"Result":    result,
		"Chart":     template.HTML(chart),
		"Report":    renderMarkdown(reportMD),
		"Warnings":  result.Diagnostics.Warnings,
		"Artifacts": links,
	})
}

// handleDownload streams a rendered artifact as a file attachment
func (s *Server) handleDownload(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	result := sess.Result()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis has been generated yet"})
		return
	}

	name := c.Param("artifact")
	exp, ok := s.exporterByName(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Unknown artifact %q", name)})
		return
	}

	data, err := exp.Render(result)
	if err != nil {
		log.Printf("[handleDownload] Render %s failed: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Artifact rendering failed"})
		return
	}

	filename := fmt.Sprintf("mixaudit-%s.%s", name, exp.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentTypeFor(exp.Extension()), data)
}

type artifactLink struct {
	Name  string
	Label string
}

// filtersData assembles the template data for the filter page
func (s *Server) filtersData(sess *session, errMsg string) gin.H {
	return gin.H{
		"Filename":  sess.Filename,
		"RowCount":  len(sess.Records),
		"Operators": sess.Operators,
		"FoodTypes": sess.FoodTypes,
		"DietNames": sess.DietNames,
		"SpanStart": dayValue(sess.SpanStart),
		"SpanEnd":   dayValue(sess.SpanEnd),
		"Slider":    s.cfg.Slider,
		"Analysis":  s.cfg.Analysis,
		"Error":     errMsg,
	}
}

// renderArtifact renders one exporter's output for the given result
func (s *Server) renderArtifact(name string, result *analysis.AnalysisResult) ([]byte, error) {
	exp, ok := s.exporterByName(name)
	if !ok {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("no exporter named %q", name))
	}
	return exp.Render(result)
}

// dayValue formats a day for an <input type="date"> value attribute
func dayValue(d core.Day) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// renderMarkdown converts the run report to HTML for inline display.
// gomarkdown parsers are single-use, so each call builds a fresh one.
func renderMarkdown(src []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	html := markdown.ToHTML(bytes.TrimSpace(src), p, nil)
	return template.HTML(html)
}

func contentTypeFor(extension string) string {
	switch extension {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "svg":
		return "image/svg+xml"
	case "md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
