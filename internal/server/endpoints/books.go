package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// maxUploadBytes bounds the in-memory part of a multipart upload.
const maxUploadBytes = 64 << 20

// BookResponse wraps a single book.
type BookResponse struct {
	Book library.Book `json:"book"`
}

// ListBooksResponse is the response for listing books.
type ListBooksResponse struct {
	Books []library.Book `json:"books"`
}

// UploadBookEndpoint handles POST /api/books/upload.
type UploadBookEndpoint struct{}

var _ api.Endpoint = (*UploadBookEndpoint)(nil)

func (e *UploadBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/upload", e.handler
}

func (e *UploadBookEndpoint) RequiresInit() bool { return true }

func (e *UploadBookEndpoint) Group() string { return "books" }

// handler godoc
//
//	@Summary		Upload a book
//	@Description	Upload an EPUB, PDF or plain-text book file
//	@Tags			books
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"Book file (.epub, .pdf, .txt)"
//	@Param			title		formData	string	false	"Book title (derived from filename if not provided)"
//	@Param			author		formData	string	false	"Book author"
//	@Param			store_id	formData	string	false	"Store identifier used for shared dedup"
//	@Param			owner		formData	string	false	"Owning account"
//	@Success		201			{object}	BookResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/books/upload [post]
func (e *UploadBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	src, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer src.Close()

	format, err := library.FormatFromPath(fh.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	books := svcctx.BooksFrom(ctx)
	homeDir := svcctx.HomeFrom(ctx)
	if books == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "book store not initialized")
		return
	}
	logger := svcctx.LoggerFrom(ctx)

	dir := homeDir.BookDir(uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create book dir: %v", err))
		return
	}
	dest := filepath.Join(dir, filepath.Base(fh.Filename))
	if err := saveFile(dest, src); err != nil {
		os.RemoveAll(dir)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	}
	book, err := books.Add(ctx, library.Book{
		Title:   title,
		Author:  r.FormValue("author"),
		StoreID: r.FormValue("store_id"),
		Format:  format,
		FileURL: dest,
		Owner:   ownerOr(r.FormValue("owner"), svcctx.ConfigFrom(ctx).Defaults.Owner),
	})
	if err != nil {
		os.RemoveAll(dir)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("book uploaded", "book_id", book.ID, "title", book.Title, "format", book.Format)
	writeJSON(w, http.StatusCreated, BookResponse{Book: book})
}

func saveFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (e *UploadBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, author, storeID, owner string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an EPUB, PDF or text book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BookResponse
			err := client.Upload(cmd.Context(), "/api/books/upload", "file", args[0], map[string]string{
				"title":    title,
				"author":   author,
				"store_id": storeID,
				"owner":    owner,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Book title (default: file name)")
	cmd.Flags().StringVar(&author, "author", "", "Book author")
	cmd.Flags().StringVar(&storeID, "store-id", "", "Store identifier for shared dedup")
	cmd.Flags().StringVar(&owner, "owner", "", "Owning account (default from config)")
	return cmd
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

func (e *ListBooksEndpoint) RequiresInit() bool { return true }

func (e *ListBooksEndpoint) Group() string { return "books" }

// handler godoc
//
//	@Summary	List books
//	@Tags		books
//	@Produce	json
//	@Param		owner	query		string	false	"Only books of this owner"
//	@Success	200		{object}	ListBooksResponse
//	@Failure	500		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse
//	@Router		/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book store not initialized")
		return
	}

	list, err := books.List(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListBooksResponse{Books: list})
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/books"
			if owner != "" {
				path += "?owner=" + owner
			}
			var resp ListBooksResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only books of this owner")
	return cmd
}

// GetBookEndpoint handles GET /api/books/{book_id}.
type GetBookEndpoint struct{}

func (e *GetBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book_id}", e.handler
}

func (e *GetBookEndpoint) RequiresInit() bool { return true }

func (e *GetBookEndpoint) Group() string { return "books" }

// handler godoc
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		book_id	path		string	true	"Book ID"
//	@Success	200		{object}	BookResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse
//	@Router		/api/books/{book_id} [get]
func (e *GetBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, ok := lookupBook(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, BookResponse{Book: book})
}

func (e *GetBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <book-id>",
		Short: "Get a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BookResponse
			if err := client.Get(cmd.Context(), "/api/books/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// lookupBook resolves the {book_id} path value, writing an error response
// when it cannot.
func lookupBook(w http.ResponseWriter, r *http.Request) (library.Book, bool) {
	books := svcctx.BooksFrom(r.Context())
	if books == nil {
		writeError(w, http.StatusServiceUnavailable, "book store not initialized")
		return library.Book{}, false
	}
	book, err := books.Get(r.Context(), r.PathValue("book_id"))
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "book not found")
		return library.Book{}, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return library.Book{}, false
	}
	return book, true
}
