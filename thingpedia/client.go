package thingpedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stanford-oval/thingtalk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultPort thingpedia port to connect with.
	DefaultPort      = 8410
	DefaultUserAgent = "thingtalk-client-golang"

	defaultCacheEntries    = 1024
	defaultMaxResponseSize = 4 << 20
)

// A Client is a SchemaSource backed by a Thingpedia-style schema API.
// Fetched device signatures are kept in an LRU cache keyed by device kind,
// so repeated checks of the same functions resolve without a round trip.
type Client struct {
	client      *http.Client
	header      http.Header
	hostURL     string
	cache       *lru.Cache[string, *deviceSchemas]
	logger      *zap.Logger
	metrics     *Metrics
	maxRespSize int64
}

// deviceSchemas is the per-kind payload of the schema API.
type deviceSchemas struct {
	Queries  map[string]*schemaJSON `json:"queries"`
	Actions  map[string]*schemaJSON `json:"actions"`
	Triggers map[string]*schemaJSON `json:"triggers"`
}

type schemaJSON struct {
	Args          []string `json:"args"`
	Types         []string `json:"types"`
	IsInput       []bool   `json:"is_input"`
	Required      []bool   `json:"required"`
	ArgCanonicals []string `json:"argcanonicals,omitempty"`
	Confirmation  string   `json:"confirmation,omitempty"`
}

// NewClient creates a client with a base URL set up to talk to
// http://localhost:defaultport.
func NewClient() *Client {
	return NewClientTo("http://localhost:" + strconv.Itoa(DefaultPort))
}

// NewClientTo creates a client with a base URL derived from the hostURL
// argument.
func NewClientTo(hostURL string) *Client {
	cache, _ := lru.New[string, *deviceSchemas](defaultCacheEntries)
	return &Client{
		client:      &http.Client{},
		header:      http.Header{"User-Agent": []string{DefaultUserAgent}},
		hostURL:     hostURL,
		cache:       cache,
		logger:      zap.NewNop(),
		metrics:     newMetrics(),
		maxRespSize: defaultMaxResponseSize,
	}
}

// ClientHostURL allows us to print the host in log messages and internal
// error messages.
func (c *Client) ClientHostURL() string { return c.hostURL }

func (c *Client) SetLogger(logger *zap.Logger) { c.logger = logger }

func (c *Client) SetHTTPClient(client *http.Client) { c.client = client }

// SetMaxResponseSize bounds how many bytes of a schema response are read.
func (c *Client) SetMaxResponseSize(n int64) { c.maxRespSize = n }

// Metrics exposes the client's cache and fetch counters for registration.
func (c *Client) Metrics() *Metrics { return c.metrics }

func (c *Client) SchemaForSelector(ctx context.Context, kind, channel string, what thingtalk.FunctionKind, useMeta bool) (*thingtalk.FunctionSchema, error) {
	device, err := c.device(ctx, kind, useMeta)
	if err != nil || device == nil {
		return nil, err
	}
	var raw *schemaJSON
	switch what {
	case thingtalk.Query:
		raw = device.Queries[channel]
	case thingtalk.Action:
		raw = device.Actions[channel]
	case thingtalk.Trigger:
		raw = device.Triggers[channel]
	}
	if raw == nil {
		return nil, nil
	}
	return raw.toSchema(what)
}

func (c *Client) MemorySchema(ctx context.Context, table string, useMeta bool) (*thingtalk.FunctionSchema, error) {
	u := c.hostURL + "/api/memory/" + url.PathEscape(table)
	if useMeta {
		u += "?meta=1"
	}
	var raw schemaJSON
	found, err := c.getJSON(ctx, u, &raw)
	if err != nil || !found {
		return nil, err
	}
	return raw.toSchema(thingtalk.Query)
}

func (c *Client) AllowedSchema(ctx context.Context, kind, channel string, what thingtalk.FunctionKind, useMeta bool) (*thingtalk.FunctionSchema, error) {
	return c.SchemaForSelector(ctx, kind, channel, what, useMeta)
}

// Prefetch warms the cache for the given device kinds, aggregating the
// failures so one unreachable kind does not hide the others.
func (c *Client) Prefetch(ctx context.Context, useMeta bool, kinds ...string) error {
	var errs error
	for _, kind := range kinds {
		if _, err := c.device(ctx, kind, useMeta); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errs
}

func (c *Client) device(ctx context.Context, kind string, useMeta bool) (*deviceSchemas, error) {
	key := kind
	if useMeta {
		key += "|meta"
	}
	if device, ok := c.cache.Get(key); ok {
		c.metrics.cacheHits.Inc()
		return device, nil
	}
	c.metrics.cacheMisses.Inc()
	u := c.hostURL + "/api/schema/" + url.PathEscape(kind)
	if useMeta {
		u += "?meta=1"
	}
	var payload map[string]*deviceSchemas
	found, err := c.getJSON(ctx, u, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	device := payload[kind]
	if device == nil {
		return nil, nil
	}
	c.cache.Add(key, device)
	c.logger.Debug("fetched device schemas",
		zap.String("kind", kind),
		zap.Int("queries", len(device.Queries)),
		zap.Int("actions", len(device.Actions)),
		zap.Int("triggers", len(device.Triggers)))
	return device, nil
}

// getJSON issues a GET and decodes the body.  A 404 reports not-found
// without error; any other non-2xx status is an error.
func (c *Client) getJSON(ctx context.Context, u string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header = c.header.Clone()
	c.metrics.fetches.Inc()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.fetchErrors.Inc()
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.fetchErrors.Inc()
		return false, fmt.Errorf("%s: status code %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxRespSize))
	if err != nil {
		c.metrics.fetchErrors.Inc()
		return false, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.fetchErrors.Inc()
		return false, fmt.Errorf("%s: %w", u, err)
	}
	return true, nil
}

// toSchema converts the wire form of a signature, with its parallel args,
// types, is_input, and required arrays, into a FunctionSchema.
func (j *schemaJSON) toSchema(what thingtalk.FunctionKind) (*thingtalk.FunctionSchema, error) {
	if len(j.Types) != len(j.Args) {
		return nil, fmt.Errorf("malformed schema: %d args but %d types", len(j.Args), len(j.Types))
	}
	schema := thingtalk.NewFunctionSchema(what)
	schema.Confirmation = j.Confirmation
	if j.ArgCanonicals != nil {
		schema.ArgCanonicals = []string{}
	}
	for i, name := range j.Args {
		typ, err := thingtalk.ParseType(j.Types[i])
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		isInput := i < len(j.IsInput) && j.IsInput[i]
		if isInput {
			required := i < len(j.Required) && j.Required[i]
			if err := schema.AddInput(name, typ, required); err != nil {
				return nil, err
			}
		} else if err := schema.AddOutput(name, typ); err != nil {
			return nil, err
		}
	}
	if j.ArgCanonicals != nil && len(j.ArgCanonicals) == len(schema.Args) {
		schema.ArgCanonicals = append([]string(nil), j.ArgCanonicals...)
	}
	return schema, nil
}

var _ SchemaSource = (*Client)(nil)
