package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/library"
	"github.com/starford/booker/internal/templates"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *library.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

// documentPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes (e.g. 2025%2Flog.md).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListTemplates handles GET /api/templates.
//
//	@Summary		List table templates
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	TemplateListResponse
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	names := templates.Names()
	out := make([]Template, 0, len(names))
	for _, name := range names {
		md, _ := templates.Get(name)
		out = append(out, Template{Name: name, Markdown: md})
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: out})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a document with its tables and catalogued books
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get document", path, err)
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// PutDocument handles PUT /api/documents/*.
//
//	@Summary		Create or replace a document with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"Document path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	PutDocumentRequest	true	"Document content"
//	@Success		200			{object}	DocumentDetail
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	var req PutDocumentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	doc, err := h.svc.PutDocument(r.Context(), path, []byte(req.Content), r.Header.Get("If-Match"))
	if err != nil {
		writeServiceError(w, "put document", path, err)
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/*.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), path); err != nil {
		writeServiceError(w, "delete document", path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DocumentCommand handles POST /api/documents/*/books and
// POST /api/documents/*/tables.
func (h *Handler) DocumentCommand(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	switch {
	case strings.HasSuffix(path, "/books"):
		h.InsertBook(w, r, strings.TrimSuffix(path, "/books"))
	case strings.HasSuffix(path, "/tables"):
		h.CreateTable(w, r, strings.TrimSuffix(path, "/tables"))
	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown document command"))
	}
}

// InsertBook handles POST /api/documents/*/books.
//
//	@Summary		Insert a book into the table above a block
//	@Description	The ISBN is read from the addressed block. The book fills the first empty row of the table above it and a fresh empty row is appended.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Document path"
//	@Param			body	body		InsertBookRequest	true	"Book metadata"
//	@Success		200		{object}	CommandResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	CommandResponse
//	@Security		BearerAuth
//	@Router			/documents/{path}/books [post]
func (h *Handler) InsertBook(w http.ResponseWriter, r *http.Request, path string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req InsertBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	res, err := h.svc.InsertBook(r.Context(), path, req.block(), req.metadata())
	if err != nil {
		writeCommandError(w, "insert book", path, res, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateTable handles POST /api/documents/*/tables.
//
//	@Summary		Seed an empty block with a table template
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Document path"
//	@Param			body	body		CreateTableRequest	true	"Template and block"
//	@Success		201		{object}	CommandResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	CommandResponse
//	@Security		BearerAuth
//	@Router			/documents/{path}/tables [post]
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request, path string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if _, err := templates.Get(req.Template); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown template "+strconv.Quote(req.Template)))
		return
	}

	res, err := h.svc.CreateTable(r.Context(), path, req.block(), req.Template)
	if err != nil {
		writeCommandError(w, "create table", path, res, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListBooks handles GET /api/books.
//
//	@Summary		List or search the book catalog
//	@Tags			books
//	@Produce		json
//	@Param			q		query		string	false	"Search query"
//	@Param			isbn	query		string	false	"Exact ISBN"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	BookListResponse
//	@Security		BearerAuth
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var resp BookListResponse
	var err error
	switch {
	case q.Get("isbn") != "":
		resp.Books, err = h.svc.FindByISBN(r.Context(), q.Get("isbn"))
		resp.Total = len(resp.Books)
	case q.Get("q") != "":
		resp.Books, err = h.svc.Search(r.Context(), q.Get("q"), limit)
		resp.Total = len(resp.Books)
	default:
		resp.Books, resp.Total, err = h.svc.ListBooks(r.Context(), limit, offset)
	}
	if err != nil {
		slog.Error("list books failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrBlockNotEmpty):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNoISBN), errors.Is(err, apperr.ErrNoTable), errors.Is(err, apperr.ErrNoEmptyRow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrIndexOutOfRange), errors.Is(err, apperr.ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, op, path string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

// writeCommandError reports a failed command together with the
// notifications it produced.
func writeCommandError(w http.ResponseWriter, op, path string, res *library.Result, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError || res == nil {
		writeServiceError(w, op, path, err)
		return
	}
	writeJSON(w, status, commandErrResponse{Error: err.Error(), Messages: res.Messages})
}
