package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/uploads"
	"github.com/liteclaw/webbridge/internal/version"
	"github.com/liteclaw/webbridge/internal/web"
	"github.com/liteclaw/webbridge/pkg/types"
)

// StatusResponse represents the gateway status.
type StatusResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version"`
	Uptime    string                  `json:"uptime"`
	Memory    MemoryStats             `json:"memory"`
	Requests  RequestStats            `json:"requests"`
	Channels  []channels.DriverStatus `json:"channels"`
	ChatPath  string                  `json:"chatPath"`
	GoVersion string                  `json:"goVersion"`
	Arch      string                  `json:"arch"`
	OS        string                  `json:"os"`
}

// MemoryStats represents memory usage.
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`      // Bytes allocated and in use
	TotalAlloc uint64 `json:"totalAlloc"` // Total bytes allocated
	Sys        uint64 `json:"sys"`        // Bytes obtained from system
	NumGC      uint32 `json:"numGC"`      // Number of GC cycles
}

// RequestStats counts chat requests since start.
type RequestStats struct {
	Total  int64 `json:"total"`
	Failed int64 `json:"failed"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":     "webbridge",
		"version":  version.Version,
		"status":   "running",
		"chatPath": s.config.ChatPath,
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(c echo.Context) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	drivers := []channels.DriverStatus{}
	if s.registry != nil {
		drivers = s.registry.Status()
	}

	resp := StatusResponse{
		Status:  "running",
		Version: version.Version,
		Uptime:  s.Uptime().Round(time.Second).String(),
		Memory: MemoryStats{
			Alloc:      memStats.Alloc,
			TotalAlloc: memStats.TotalAlloc,
			Sys:        memStats.Sys,
			NumGC:      memStats.NumGC,
		},
		Requests: RequestStats{
			Total:  s.requests.Load(),
			Failed: s.failures.Load(),
		},
		Channels:  drivers,
		ChatPath:  s.config.ChatPath,
		GoVersion: runtime.Version(),
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
	}

	return c.JSON(http.StatusOK, resp)
}

// handlePreflight handles OPTIONS on the chat path.
func (s *Server) handlePreflight(c echo.Context) error {
	h := c.Response().Header()
	for k, vs := range web.ResponseHeader() {
		h[k] = vs
	}
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
	return c.NoContent(http.StatusNoContent)
}

// handleChat handles POST on the chat path: the body is handed to the engine and the
// driver's rendered response is written back unchanged.
func (s *Server) handleChat(c echo.Context) error {
	s.requests.Add(1)

	req, batch, err := s.readChatRequest(c)
	defer batch.Cleanup()
	if err != nil {
		s.failures.Add(1)
		if errors.Is(err, web.ErrAttachmentTooLarge) {
			return s.writeResponse(c, envelopeResponse(http.StatusRequestEntityTooLarge, err.Error()))
		}
		s.logger.Warn().Err(err).Msg("Invalid chat request")
		return c.JSON(http.StatusBadRequest, types.Err(types.ErrCodeInvalidInput, "invalid request body", err.Error()))
	}

	resp, err := s.engine.Handle(c.Request().Context(), req)
	if err != nil {
		s.failures.Add(1)
		if errors.Is(err, channels.ErrNoDriver) {
			return c.JSON(http.StatusNotFound, types.Err(types.ErrCodeNotFound, err.Error(), ""))
		}
		s.logger.Error().Err(err).Msg("Chat request failed")
		return c.JSON(http.StatusInternalServerError, types.Err(types.ErrCodeInternal, "chat request failed", err.Error()))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		s.failures.Add(1)
	}
	return s.writeResponse(c, resp)
}

func (s *Server) writeResponse(c echo.Context, resp *channels.Response) error {
	h := c.Response().Header()
	for k, vs := range resp.Header {
		h[k] = vs
	}
	return c.Blob(resp.StatusCode, resp.Header.Get(echo.HeaderContentType), resp.Body)
}

func envelopeResponse(status int, errorMessage string) *channels.Response {
	body, _ := json.Marshal(web.Render(status, errorMessage, nil))
	return &channels.Response{
		StatusCode: status,
		Header:     web.ResponseHeader(),
		Body:       body,
	}
}

// readChatRequest decodes a JSON object, a urlencoded form or a multipart form. Multipart
// files are spooled in the order they were posted; the returned batch owns them.
func (s *Server) readChatRequest(c echo.Context) (*channels.Request, *uploads.Batch, error) {
	r := c.Request()
	req := &channels.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   map[string]any{},
	}

	ctype := strings.ToLower(r.Header.Get(echo.HeaderContentType))
	switch {
	case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req.Body); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("decode JSON body: %w", err)
		}
		if req.Body == nil {
			req.Body = map[string]any{}
		}
		return req, nil, nil

	case strings.HasPrefix(ctype, echo.MIMEMultipartForm):
		if s.spool == nil {
			return nil, nil, fmt.Errorf("file uploads are disabled")
		}
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, nil, fmt.Errorf("read multipart body: %w", err)
		}
		fields, batch, err := s.spool.ReadMultipart(mr)
		if err != nil {
			return nil, nil, err
		}
		req.Body = fields
		req.Files = batch.Handles()
		return req, batch, nil

	default:
		if err := r.ParseForm(); err != nil {
			return nil, nil, fmt.Errorf("parse form: %w", err)
		}
		for key, values := range r.PostForm {
			if len(values) == 0 {
				continue
			}
			req.Body[strings.TrimSuffix(key, "[]")] = values[len(values)-1]
		}
		return req, nil, nil
	}
}
