// Package printing uploads finished PDFs to the contest print service.
package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"scribe/internal/config"
	"scribe/internal/domain"
)

const (
	// DefaultTimeout bounds one upload including the remote response
	DefaultTimeout = 2 * time.Minute

	// maxErrorBody caps how much of a rejection body is kept for diagnosis
	maxErrorBody = 4 << 10

	submitPath = "/translation"
)

// SubmitRequest describes one print job.
type SubmitRequest struct {
	PDFPath     string
	CountryCode string
	CountryName string
	CoverPage   bool
	Copies      int
}

// Validate checks the request before anything is sent.
func (r SubmitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PDFPath, validation.Required, validation.By(fileExists)),
		validation.Field(&r.CountryCode, validation.Required, validation.Length(1, 16)),
		validation.Field(&r.Copies, validation.Required, validation.Min(1), validation.Max(config.MaxPrintCopies)),
	)
}

func fileExists(value interface{}) error {
	path, _ := value.(string)
	info, err := os.Stat(path)
	if err != nil {
		return errors.New("file does not exist")
	}
	if info.IsDir() {
		return errors.New("must be a file")
	}
	return nil
}

// Dispatcher sends PDFs to the print service. It never retries; a rejected
// job is reported to the caller.
type Dispatcher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher for the print service at address.
func NewDispatcher(address string, timeout time.Duration, logger *slog.Logger) (*Dispatcher, error) {
	base, err := url.Parse(address)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid print system address %q", address)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Dispatcher{
		endpoint: base.ResolveReference(&url.URL{Path: submitPath}).String(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Submit streams the PDF and job fields as multipart/form-data.
func (d *Dispatcher) Submit(ctx context.Context, req SubmitRequest) error {
	if err := req.Validate(); err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid print request: %v", err)}
	}

	file, err := os.Open(req.PDFPath)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, file, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		// Unblocks the writer goroutine if the transport gave up early
		pr.CloseWithError(err)
		return fmt.Errorf("print request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		d.logger.Warn("print job rejected",
			"status", resp.StatusCode,
			"country", req.CountryCode,
		)
		return &domain.PrintServiceError{RemoteStatus: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	d.logger.Info("print job submitted",
		"country", req.CountryCode,
		"copies", req.Copies,
		"cover_page", req.CoverPage,
	)
	return nil
}

func writeForm(form *multipart.Writer, file io.Reader, req SubmitRequest) error {
	part, err := form.CreateFormFile("pdf", filepath.Base(req.PDFPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	coverPage := "0"
	if req.CoverPage {
		coverPage = "1"
	}
	fields := []struct{ name, value string }{
		{"country_code", req.CountryCode},
		{"country_name", req.CountryName},
		{"cover_page", coverPage},
		{"count", strconv.Itoa(req.Copies)},
	}
	for _, f := range fields {
		if err := form.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	return form.Close()
}
