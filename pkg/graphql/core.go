// Package graphql is a small resty-backed GraphQL client used for the ERCx report mutations.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Client is a client for interacting with a GraphQL API.
type Client struct {
	endpoint    string
	restyClient *resty.Client
	headers     map[string]string

	// Log is called with various debug information.
	// To log to standard out, use:
	//  client.Log = func(s string) { log.Println(s) }
	Log func(s string)
}

// NewClient creates a new GraphQL client with the specified endpoint and options.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	client := &Client{
		endpoint:    endpoint,
		restyClient: resty.New(),
		headers:     make(map[string]string),
		Log:         func(string) {},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) logf(format string, args ...interface{}) {
	c.Log(fmt.Sprintf(format, args...))
}

// Run executes the GraphQL query and unmarshals the response data into resp.
func (c *Client) Run(ctx context.Context, req *Request, resp interface{}) error {
	requestBody := map[string]interface{}{
		"query":     req.Query(),
		"variables": req.Vars(),
	}

	c.logf(">> variables: %v", req.Vars())
	c.logf(">> query: %s", req.Query())

	response, err := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(c.headers).
		SetHeaders(req.Header).
		SetBody(requestBody).
		Post(c.endpoint)

	if err != nil {
		return err
	}

	c.logf("<< status: %d", response.StatusCode())
	c.logf("<< body: %s", response.String())

	if response.IsError() {
		return &StatusError{StatusCode: response.StatusCode(), Body: response.String()}
	}

	return c.parseResponse(response.Body(), resp)
}

func (c *Client) parseResponse(body []byte, resp interface{}) error {
	gr := &graphResponse{Data: resp}
	if err := json.Unmarshal(body, gr); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return gr.Errors[0]
	}
	return nil
}

// ClientOption defines a configuration option for the Client.
type ClientOption func(*Client)

// WithRestyClient sets a custom Resty client.
func WithRestyClient(client *resty.Client) ClientOption {
	return func(c *Client) {
		c.restyClient = client
	}
}

// WithHeader adds a header sent with every request of this client.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithLog sets the debug log callback.
func WithLog(log func(string)) ClientOption {
	return func(c *Client) {
		c.Log = log
	}
}

// Request represents a GraphQL request.
type Request struct {
	query  string
	vars   map[string]interface{}
	Header map[string]string
}

// NewRequest creates a new GraphQL request.
func NewRequest(query string) *Request {
	return &Request{
		query:  query,
		vars:   make(map[string]interface{}),
		Header: make(map[string]string),
	}
}

// Var sets a variable for the GraphQL request.
func (r *Request) Var(key string, value interface{}) {
	r.vars[key] = value
}

// Vars returns the variables of the request.
func (r *Request) Vars() map[string]interface{} {
	return r.vars
}

// Query returns the GraphQL query string.
func (r *Request) Query() string {
	return r.query
}

// StatusError is returned when the endpoint answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql: server returned a non-200 status code: %d", e.StatusCode)
}

// Error is the first entry of the "errors" array of a GraphQL response.
type Error struct {
	Message string `json:"message"`
}

func (e Error) Error() string {
	return "graphql: " + e.Message
}

type graphResponse struct {
	Data   interface{}
	Errors []Error
}
