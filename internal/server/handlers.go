package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/forPelevin/clipscan/internal/pipeline"
	"github.com/forPelevin/clipscan/internal/usecase"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "clipscan API is running",
		"version": "1.0",
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"configured":        s.svc.Configured(),
		"max_file_size":     humanize.Bytes(uint64(s.cfg.MaxUploadBytes)),
		"supported_formats": usecase.AllowedExtensions(),
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	upload, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	var maxDuration float64
	if raw := r.FormValue("max_duration"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "Invalid max_duration")
			return
		}
		maxDuration = v
	}

	ws, err := pipeline.NewWorkspace(s.cfg.WorkRoot)
	if err != nil {
		s.internalError(w, "scan", err)
		return
	}
	defer ws.Close()

	videoPath, err := saveUpload(ws, upload, filename)
	if err != nil {
		s.internalError(w, "scan", err)
		return
	}

	res, err := s.svc.Scan(r.Context(), videoPath, filename, maxDuration)
	if err != nil {
		s.requestError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, NewScanResponse(res))
}

func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	upload, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	start := r.FormValue("start")
	end := r.FormValue("end")

	ws, err := pipeline.NewWorkspace(s.cfg.WorkRoot)
	if err != nil {
		s.internalError(w, "clip", err)
		return
	}
	defer ws.Close()

	videoPath, err := saveUpload(ws, upload, filename)
	if err != nil {
		s.internalError(w, "clip", err)
		return
	}

	outPath := ws.Path("output.mp4")
	name, err := s.svc.Clip(r.Context(), videoPath, filename, start, end, outPath)
	if err != nil {
		s.requestError(w, "clip", err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, outPath)
}

// readUpload enforces the size limit, parses the multipart form and returns
// the uploaded file with its base filename. On failure it writes the error
// response itself and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (io.Reader, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				"File too large. Maximum: "+humanize.Bytes(uint64(s.cfg.MaxUploadBytes)))
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "Malformed upload")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}
	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		writeError(w, http.StatusBadRequest, "No file selected")
		return nil, "", false
	}
	return file, filename, true
}

// saveUpload writes the upload into the workspace as input.<ext> so the
// media tool sees the original container extension.
func saveUpload(ws *pipeline.Workspace, upload io.Reader, filename string) (string, error) {
	path := ws.Path("input" + strings.ToLower(filepath.Ext(filename)))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, upload); err != nil {
		return "", err
	}
	return path, nil
}

// requestError maps a pipeline failure to a response: client mistakes keep
// their message with a 400, everything else becomes a generic 500 so
// internal details stay in the log.
func (s *Server) requestError(w http.ResponseWriter, op string, err error) {
	var verr *usecase.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Msg)
		return
	}
	s.internalError(w, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal error during "+op)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
