package meili

import (
	"context"
	"net/http"
)

// SearchRequest is a keyword search. An empty IndexUID searches every index.
type SearchRequest struct {
	Query    string
	IndexUID string
	Limit    *int
	Offset   *int
	Filter   string
	Sort     []string
}

func (r SearchRequest) body() map[string]any {
	body := map[string]any{"q": r.Query}
	if r.Limit != nil {
		body["limit"] = *r.Limit
	}
	if r.Offset != nil {
		body["offset"] = *r.Offset
	}
	if r.Filter != "" {
		body["filter"] = r.Filter
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	return body
}

// Search runs r against one index, or against all indexes through
// /multi-search when r.IndexUID is empty. The multi-index reply is
// {"results":[{"indexUid":...,"hits":[...]},...]}.
func (c *Client) Search(ctx context.Context, r SearchRequest) (map[string]any, error) {
	if r.IndexUID != "" {
		return c.doObject(ctx, call{
			method: http.MethodPost,
			path:   "/indexes/" + segment(r.IndexUID) + "/search",
			body:   r.body(),
		})
	}

	list, err := c.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	uids := indexUIDs(list)
	if len(uids) == 0 {
		return map[string]any{"results": []any{}}, nil
	}

	queries := make([]map[string]any, 0, len(uids))
	for _, uid := range uids {
		q := r.body()
		q["indexUid"] = uid
		queries = append(queries, q)
	}
	return c.doObject(ctx, call{
		method: http.MethodPost,
		path:   "/multi-search",
		body:   map[string]any{"queries": queries},
	})
}
