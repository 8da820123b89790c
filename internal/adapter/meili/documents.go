package meili

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DocumentsQuery pages through the documents of an index.
type DocumentsQuery struct {
	Offset int
	Limit  int
	Fields []string
}

func pageQuery(offset, limit int) url.Values {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func documentsPath(indexUID string) string {
	return "/indexes/" + segment(indexUID) + "/documents"
}

// GetDocuments returns one page of documents.
func (c *Client) GetDocuments(ctx context.Context, indexUID string, q DocumentsQuery) (map[string]any, error) {
	query := pageQuery(q.Offset, q.Limit)
	if len(q.Fields) > 0 {
		query.Set("fields", strings.Join(q.Fields, ","))
	}
	return c.doObject(ctx, call{method: http.MethodGet, path: documentsPath(indexUID), query: query})
}

// GetDocument returns a single document by primary key value.
func (c *Client) GetDocument(ctx context.Context, indexUID, documentID string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: documentsPath(indexUID) + "/" + segment(documentID)})
}

// AddDocuments enqueues an add-or-replace of documents.
func (c *Client) AddDocuments(ctx context.Context, indexUID string, docs []any, primaryKey string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodPost, path: documentsPath(indexUID), query: primaryKeyQuery(primaryKey), body: docs})
}

// UpdateDocuments enqueues an add-or-update (partial merge) of documents.
func (c *Client) UpdateDocuments(ctx context.Context, indexUID string, docs []any, primaryKey string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodPut, path: documentsPath(indexUID), query: primaryKeyQuery(primaryKey), body: docs})
}

// DeleteDocument enqueues deletion of one document.
func (c *Client) DeleteDocument(ctx context.Context, indexUID, documentID string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodDelete, path: documentsPath(indexUID) + "/" + segment(documentID)})
}

// DeleteDocuments enqueues deletion of documents by id.
func (c *Client) DeleteDocuments(ctx context.Context, indexUID string, documentIDs []any) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodPost, path: documentsPath(indexUID) + "/delete-batch", body: documentIDs})
}

// DeleteAllDocuments enqueues deletion of every document of an index.
func (c *Client) DeleteAllDocuments(ctx context.Context, indexUID string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodDelete, path: documentsPath(indexUID)})
}

func primaryKeyQuery(primaryKey string) url.Values {
	if primaryKey == "" {
		return nil
	}
	return url.Values{"primaryKey": {primaryKey}}
}

// GetSettings returns every setting of an index.
func (c *Client) GetSettings(ctx context.Context, indexUID string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/indexes/" + segment(indexUID) + "/settings"})
}

// UpdateSettings enqueues a partial settings update.
func (c *Client) UpdateSettings(ctx context.Context, indexUID string, settings map[string]any) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodPatch, path: "/indexes/" + segment(indexUID) + "/settings", body: settings})
}
