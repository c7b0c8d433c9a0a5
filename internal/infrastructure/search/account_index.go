package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

// AccountsMapping is the index mapping used by EnsureIndex at startup.
const AccountsMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "email":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "name":       {"type": "text"},
      "role":       {"type": "keyword"},
      "is_banned":  {"type": "boolean"},
      "created_at": {"type": "date"}
    }
  }
}`

type accountDoc struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsBanned  bool   `json:"is_banned"`
	CreatedAt string `json:"created_at"`
}

// ESAccountIndex mirrors accounts into Elasticsearch for the admin dashboard search.
type ESAccountIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESAccountIndex(es *elasticsearch.Client, index string) *ESAccountIndex {
	return &ESAccountIndex{es: es, index: index}
}

var _ repository.AccountIndex = (*ESAccountIndex)(nil)

func (i *ESAccountIndex) Enabled() bool { return i != nil && i.es != nil }

func (i *ESAccountIndex) Index(ctx context.Context, a *entity.Account) error {
	b, err := json.Marshal(accountDoc{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      a.Role.String(),
		IsBanned:  a.IsBanned,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index account: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index account: %s", res.Status())
	}
	return nil
}

func (i *ESAccountIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove account: %s", res.Status())
	}
	return nil
}

// Search returns matching account ids, newest first.
func (i *ESAccountIndex) Search(ctx context.Context, role entity.Role, q string, limit, offset int) ([]string, error) {
	body, err := json.Marshal(buildQuery(role, q, limit, offset))
	if err != nil {
		return nil, err
	}
	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("search accounts: %s: %s", res.Status(), strings.TrimSpace(string(msg)))
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func buildQuery(role entity.Role, q string, limit, offset int) map[string]any {
	filter := []any{}
	if role != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"role": role.String()}})
	}
	must := []any{}
	if q = strings.TrimSpace(q); q != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name", "email"},
				"type":   "phrase_prefix",
			},
		})
	}
	return map[string]any{
		"from":    offset,
		"size":    limit,
		"_source": false,
		"sort":    []any{map[string]any{"created_at": "desc"}},
		"query": map[string]any{
			"bool": map[string]any{"filter": filter, "must": must},
		},
	}
}

// NoopAccountIndex is used when Elasticsearch is not configured.
type NoopAccountIndex struct{}

var _ repository.AccountIndex = NoopAccountIndex{}

func (NoopAccountIndex) Enabled() bool                                { return false }
func (NoopAccountIndex) Index(context.Context, *entity.Account) error { return nil }
func (NoopAccountIndex) Remove(context.Context, string) error         { return nil }
func (NoopAccountIndex) Search(context.Context, entity.Role, string, int, int) ([]string, error) {
	return nil, nil
}
