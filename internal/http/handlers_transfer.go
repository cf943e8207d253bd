package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"budget/internal/log"
)

// handleExport buffers the CSV so a failure can still produce a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Transfer.Export(r.Context(), uid, &buf); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleImport accepts a multipart upload in field "file" or a raw CSV body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, r, log.OpImport, fmt.Errorf("%w: missing file field: %v", errBadRequest, err))
			return
		}
		defer file.Close()
		src = file
	}

	res, err := s.svc.Transfer.Import(r.Context(), uid, src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: file exceeds %d bytes", errBadRequest, tooLarge.Limit)
		}
		s.writeError(w, r, log.OpImport, err)
		return
	}
	if res.Imported > 0 {
		s.invalidate(uid)
	}
	writeJSON(w, http.StatusOK, res)
}
