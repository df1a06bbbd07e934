package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/catalog"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// CatalogSearchEndpoint handles GET /api/catalog/search.
type CatalogSearchEndpoint struct{}

func (e *CatalogSearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/catalog/search", e.handler
}

func (e *CatalogSearchEndpoint) RequiresInit() bool { return false }

func (e *CatalogSearchEndpoint) Group() string { return "catalog" }

// handler godoc
//
//	@Summary		Search the public-domain catalog
//	@Description	Searches Gutendex by title and author words
//	@Tags			catalog
//	@Produce		json
//	@Param			q		query		string	true	"Search terms"
//	@Param			page	query		int		false	"Result page (1-based)"
//	@Success		200		{object}	catalog.SearchResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/catalog/search [get]
func (e *CatalogSearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	client := svcctx.CatalogFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	res, err := client.Search(r.Context(), q, page)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (e *CatalogSearchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <terms>",
		Short: "Search public-domain books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			v := url.Values{}
			v.Set("q", strings.Join(args, " "))
			if page > 0 {
				v.Set("page", strconv.Itoa(page))
			}
			var resp catalog.SearchResult
			if err := client.Get(cmd.Context(), "/api/catalog/search?"+v.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Result page")
	return cmd
}

// ImportRequest is the optional body for a catalog import.
type ImportRequest struct {
	Owner string `json:"owner,omitempty"`
}

// CatalogImportEndpoint handles POST /api/catalog/import/{store_id}.
type CatalogImportEndpoint struct{}

func (e *CatalogImportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/catalog/import/{store_id}", e.handler
}

func (e *CatalogImportEndpoint) RequiresInit() bool { return true }

func (e *CatalogImportEndpoint) Group() string { return "catalog" }

// handler godoc
//
//	@Summary		Import a catalog book
//	@Description	Adds a Gutendex book to the library; the file is fetched when a podcast is generated
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			store_id	path		int				true	"Gutendex book id"
//	@Param			request		body		ImportRequest	false	"Owner"
//	@Success		201			{object}	BookResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Router			/api/catalog/import/{store_id} [post]
func (e *CatalogImportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := svcctx.CatalogFrom(ctx)
	books := svcctx.BooksFrom(ctx)
	if client == nil || books == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}

	id, err := strconv.Atoi(r.PathValue("store_id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "store_id must be a positive integer")
		return
	}
	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	entry, err := client.Get(ctx, id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "catalog book not found")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	book, err := entry.Book(ownerOr(req.Owner, svcctx.ConfigFrom(ctx).Defaults.Owner))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	book, err = books.Add(ctx, book)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	svcctx.LoggerFrom(ctx).Info("catalog book imported", "book_id", book.ID, "store_id", book.StoreID, "title", book.Title)
	writeJSON(w, http.StatusCreated, BookResponse{Book: book})
}

func (e *CatalogImportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import <store-id>",
		Short: "Import a public-domain book into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BookResponse
			if err := client.Post(cmd.Context(), "/api/catalog/import/"+args[0], ImportRequest{Owner: owner}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owning account (default from config)")
	return cmd
}
