package isy

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"isyhub/internal/rate"
	"isyhub/internal/xmldict"
)

const defaultTimeout = 10 * time.Second

// Client talks to the controller's XML REST API over HTTP basic auth.
// Every fetch decodes the document into a tagged tree with the
// document-level attributes already unwrapped; the normalizer rule-sets
// do the rest.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	limits     rate.Declaration
	logger     *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("isy host is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("isy username is required")
	}

	scheme := "http"
	transport := http.DefaultTransport
	if cfg.UseHTTPS {
		scheme = "https"
		if cfg.InsecureSkipVerify {
			// Controllers ship self-signed certificates.
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			transport = t
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limits := cfg.rateLimits()
	httpClient := rate.WrapHTTP(limits, &http.Client{
		Timeout:   timeout,
		Transport: transport,
	})

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    fmt.Sprintf("%s://%s/rest", scheme, strings.TrimRight(cfg.Host, "/")),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		limits:     limits,
		logger:     logger.With("component", "isy_client"),
	}, nil
}

// RateLimits reports the request budget the client enforces against the
// controller.
func (c *Client) RateLimits() rate.Declaration {
	return c.limits
}

// Inventory fetches and normalizes the full node tree.
func (c *Client) Inventory(ctx context.Context) (*Inventory, error) {
	doc, err := c.getTree(ctx, "nodes")
	if err != nil {
		return nil, err
	}
	inv, err := normalizeInventory(doc)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched inventory", "nodes", len(inv.Nodes), "groups", len(inv.Groups))
	return inv, nil
}

// Programs fetches and normalizes all programs, folders included.
func (c *Client) Programs(ctx context.Context) ([]*xmldict.Node, error) {
	doc, err := c.getTree(ctx, "programs?subfolders=true")
	if err != nil {
		return nil, err
	}
	programs, err := normalizePrograms(doc)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched programs", "count", len(programs))
	return programs, nil
}

// Device finds a device node by name or address in a fresh fetch.
func (c *Client) Device(ctx context.Context, ref string) (*Device, error) {
	inv, err := c.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range inv.Nodes {
		if matchesRef(rec, ref, "address") {
			return &Device{client: c, rec: rec}, nil
		}
	}
	return nil, NotFoundError{Kind: "device", Ref: ref}
}

// Scene finds a group by name or address in a fresh fetch.
func (c *Client) Scene(ctx context.Context, ref string) (*Scene, error) {
	inv, err := c.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range inv.Groups {
		if matchesRef(rec, ref, "address") {
			return &Scene{client: c, rec: rec}, nil
		}
	}
	return nil, NotFoundError{Kind: "scene", Ref: ref}
}

// Program finds a program by name or id in a fresh fetch. Folders are
// never returned; commands do not apply to them.
func (c *Client) Program(ctx context.Context, ref string) (*Program, error) {
	programs, err := c.Programs(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range programs {
		if folder := rec.Get("folder"); folder != nil && folder.Kind == xmldict.KindBool && folder.Bool {
			continue
		}
		if matchesRef(rec, ref, "id") {
			return &Program{client: c, rec: rec}, nil
		}
	}
	return nil, NotFoundError{Kind: "program", Ref: ref}
}

// NodeCommand issues a device or group command and checks the
// controller's succeeded flag.
func (c *Client) NodeCommand(ctx context.Context, address, cmd string, args ...string) error {
	parts := []string{"nodes", url.PathEscape(address), "cmd", url.PathEscape(cmd)}
	for _, arg := range args {
		parts = append(parts, url.PathEscape(arg))
	}
	if err := c.command(ctx, strings.Join(parts, "/"), address, cmd); err != nil {
		return err
	}
	c.logger.Info("node command succeeded", "address", address, "cmd", cmd)
	return nil
}

// ProgramCommand issues a program command (run, runThen, runElse) and
// checks the controller's succeeded flag.
func (c *Client) ProgramCommand(ctx context.Context, id, cmd string) error {
	path := strings.Join([]string{"programs", url.PathEscape(id), url.PathEscape(cmd)}, "/")
	if err := c.command(ctx, path, id, cmd); err != nil {
		return err
	}
	c.logger.Info("program command succeeded", "id", id, "cmd", cmd)
	return nil
}

func (c *Client) command(ctx context.Context, path, target, cmd string) error {
	doc, err := c.getTree(ctx, path)
	if err != nil {
		return err
	}
	if err := xmldict.Coerce(doc); err != nil {
		return fmt.Errorf("command response: %w", err)
	}
	succeeded := doc.Get("RestResponse").Get("succeeded")
	if succeeded == nil || succeeded.Kind != xmldict.KindBool || !succeeded.Bool {
		return CommandError{Target: target, Cmd: cmd}
	}
	return nil
}

// Fetch GETs an arbitrary REST path and returns the decoded tree with
// attributes unwrapped but no rule-set applied. Diagnostic escape hatch
// for endpoints the typed operations do not cover.
func (c *Client) Fetch(ctx context.Context, path string) (*xmldict.Node, error) {
	return c.getTree(ctx, strings.TrimPrefix(path, "/"))
}

// getTree GETs one REST path and decodes the XML document into a tree
// with document-level attributes unwrapped.
func (c *Client) getTree(ctx context.Context, path string) (*xmldict.Node, error) {
	payload, err := c.getBytes(ctx, path)
	if err != nil {
		return nil, err
	}
	doc, err := xmldict.DecodeBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	xmldict.UnwrapAttrs(doc)
	return doc, nil
}

func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	endpoint := c.baseURL + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, HTTPStatusError{Status: resp.StatusCode, Body: string(payload)}
	}

	return payload, nil
}
