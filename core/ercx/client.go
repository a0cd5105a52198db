package ercx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/AvaProtocol/ercx-bot/model"
	"github.com/AvaProtocol/ercx-bot/pkg/graphql"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
	"github.com/AvaProtocol/ercx-bot/version"
)

const (
	DefaultBaseURL = "https://ercx.runtimeverification.com"

	levelsPath = "/api/v1/tokens/{networkId}/{address}/levels/all"
)

type Config struct {
	BaseURL    string
	GraphQLURL string
	APIKey     string

	Timeout time.Duration
	// CacheTTL keeps found reports in memory, zero disables the cache.
	CacheTTL time.Duration
}

// Client talks to the ERCx report service. It is safe for concurrent use.
type Client struct {
	baseURL string
	rest    *resty.Client
	gql     *graphql.Client
	cache   *bigcache.BigCache

	validate *validator.Validate
	logger   logger.Logger
}

func NewClient(c Config, log logger.Logger) (*Client, error) {
	log = logger.OrNop(log)

	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.GraphQLURL == "" {
		c.GraphQLURL = c.BaseURL + "/graphql"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	authHeader := "Bearer " + c.APIKey

	rest := resty.New().
		SetBaseURL(c.BaseURL).
		SetTimeout(c.Timeout).
		SetHeaders(map[string]string{
			"Accept":         "application/json",
			"Authentication": authHeader,
			"User-Agent":     "ercx-bot/" + version.Get(),
		})

	gql := graphql.NewClient(c.GraphQLURL,
		graphql.WithRestyClient(resty.New().SetTimeout(c.Timeout)),
		graphql.WithHeader("Authentication", authHeader),
		graphql.WithLog(func(s string) { log.Debug(s) }),
	)

	client := &Client{
		baseURL:  c.BaseURL,
		rest:     rest,
		gql:      gql,
		validate: validator.New(),
		logger:   log,
	}

	if c.CacheTTL > 0 {
		cacheConfig := bigcache.DefaultConfig(c.CacheTTL)
		cacheConfig.Shards = 64
		cacheConfig.MaxEntrySize = 4096
		cacheConfig.CleanWindow = time.Minute
		cacheConfig.Verbose = false

		cache, err := bigcache.New(context.Background(), cacheConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot initialize report cache: %w", err)
		}
		client.cache = cache
	}

	return client, nil
}

// BaseURL is the public site that full reports are linked to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// FetchReport returns the per-property results of an existing report. It
// returns ErrReportNotFound when ERCx has none yet.
func (c *Client) FetchReport(ctx context.Context, q model.ReportQuery) ([]model.PropertyResult, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid report query: %w", err)
	}

	if results, ok := c.cached(q); ok {
		c.logger.Debug("report served from cache", "query", q.Key())
		return results, nil
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"networkId": strconv.FormatInt(q.NetworkID(), 10),
			"address":   q.Address,
		}).
		SetQueryParam("standard", q.Standard.Code()).
		Get(levelsPath)
	if err != nil {
		return nil, &ServiceError{Op: "fetch report", Err: err}
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrReportNotFound
	}
	if !resp.IsSuccess() {
		return nil, &ServiceError{Op: "fetch report", StatusCode: resp.StatusCode(), Err: errors.New(resp.Status())}
	}

	var results []model.PropertyResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return nil, &ServiceError{Op: "fetch report", Err: fmt.Errorf("decoding report: %w", err)}
	}

	// an empty level list is what ERCx serves while a report is still running
	if len(results) == 0 {
		return nil, ErrReportNotFound
	}

	c.store(q, resp.Body())

	return results, nil
}

// RequestGeneration asks ERCx to start producing a report. It does not wait
// for the report, readiness is observed through FetchReport.
func (c *Client) RequestGeneration(ctx context.Context, q model.ReportQuery) (*model.GenerationHandle, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid report query: %w", err)
	}

	c.logger.Info("creating report", "standard", q.Standard, "address", q.Address, "network", q.NetworkID())

	req := graphql.NewRequest(createReportMutation)
	req.Var("standard", q.Standard.Code())
	req.Var("address", q.Address)
	req.Var("network", q.NetworkID())

	var resp createReportResponse
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		serviceErr := &ServiceError{Op: "create report", Err: err}

		var statusErr *graphql.StatusError
		if errors.As(err, &statusErr) {
			serviceErr.StatusCode = statusErr.StatusCode
		}
		return nil, serviceErr
	}

	if resp.CreateReport == nil {
		return nil, &ServiceError{Op: "create report", Err: errors.New("empty createReport payload")}
	}

	report := resp.CreateReport
	handle := &model.GenerationHandle{ReportID: report.ID, Progress: report.Progress}
	if task := report.ExecuteTestsTask; task != nil {
		handle.TaskID = task.ID
		handle.Status = task.Status
	}

	c.logger.Info("report requested", "query", q.Key(), "report_id", handle.ReportID, "status", handle.Status,
		"token_id", report.TokenID, "report_standard", report.Standard, "progress", report.Progress, "created_at", report.CreatedAt)

	return handle, nil
}

func (c *Client) cached(q model.ReportQuery) ([]model.PropertyResult, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(q.Key())
	if err != nil {
		return nil, false
	}

	var results []model.PropertyResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (c *Client) store(q model.ReportQuery, raw []byte) {
	if c.cache == nil {
		return
	}

	if err := c.cache.Set(q.Key(), raw); err != nil {
		c.logger.Warn("cannot cache report", "query", q.Key(), "error", err)
	}
}
