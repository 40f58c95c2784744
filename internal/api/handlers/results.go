package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/feval/pkg/logger"
)

// ResultsHandler serves saved run artifacts
type ResultsHandler struct {
	outputDir string
	logger    *logger.Logger
}

// NewResultsHandler creates a results handler over outputDir
func NewResultsHandler(outputDir string, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{outputDir: outputDir, logger: log}
}

// ResultFile describes one saved CSV artifact
type ResultFile struct {
	Name     string `json:"name"`
	SizeByte int64  `json:"size_byte"`
	Modified string `json:"modified"`
}

// List returns the saved result files, newest first
// GET /api/v1/results
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			respondJSON(w, http.StatusOK, []ResultFile{})
			return
		}
		h.logger.WithError(err).Error("Failed to read output dir")
		respondError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	files := make([]ResultFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, ResultFile{
			Name:     e.Name(),
			SizeByte: info.Size(),
			Modified: info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Modified > files[j].Modified })

	respondJSON(w, http.StatusOK, files)
}

// Download streams one saved CSV file
// GET /api/v1/results/{file}
func (h *ResultsHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]

	// 경로 탈출 차단
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".csv") {
		respondError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(h.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "result file not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}
