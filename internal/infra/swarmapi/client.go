package swarmapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/infra/httpclient"
	"github.com/jgreely/genaistuff/internal/ports"
)

// Client drives the SwarmUI JSON API. A session is created once per run
// with NewSession and injected into every subsequent call.
type Client struct {
	baseURL   string
	client    *http.Client
	genClient *http.Client
	logger    *slog.Logger
	session   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the client used for short API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Client) { s.client = c }
}

// WithGenerateClient overrides the client used for render calls, which
// need a much longer timeout.
func WithGenerateClient(c *http.Client) Option {
	return func(s *Client) { s.genClient = c }
}

// WithLogger sets the logger (discard by default).
func WithLogger(l *slog.Logger) Option {
	return func(s *Client) { s.logger = l }
}

// New builds a Client for the server at host:port.
func New(host, port string, opts ...Option) *Client {
	s := &Client{
		baseURL: fmt.Sprintf("http://%s:%s", host, port),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = httpclient.New(httpclient.DefaultConfig())
	}
	if s.genClient == nil {
		s.genClient = httpclient.New(httpclient.GenerationConfig())
	}
	return s
}

var (
	_ ports.Generator = (*Client)(nil)
	_ ports.Catalog   = (*Client)(nil)
)

// NewSession obtains a session id and pins the server-side file settings
// so transient images come back as PNG with metadata attached.
func (s *Client) NewSession(ctx context.Context) error {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := s.post(ctx, s.client, "/API/GetNewSession", map[string]any{}, &resp); err != nil {
		return err
	}
	s.session = resp.SessionID

	// This call always reports success; failures only show up in the
	// server logs.
	return s.post(ctx, s.client, "/API/ChangeUserSettings", map[string]any{
		"session_id": s.session,
		"settings": map[string]any{
			"fileformat.reformattransientimages": true,
			"fileformat.savemetadata":            true,
		},
	}, nil)
}

// Generate submits one text-to-image request and returns the raw bytes
// of the first generated image, decoding the inline base64 form or
// fetching the server path as needed.
func (s *Client) Generate(ctx context.Context, params domain.ParameterSet) ([]byte, error) {
	wire := params.EncodeWire()
	wire.StripInternal()
	wire["session_id"] = s.session
	wire["images"] = 1
	if _, ok := wire["imageformat"]; !ok {
		wire["imageformat"] = "PNG"
	}

	var resp struct {
		Images []string `json:"images"`
	}
	if err := s.post(ctx, s.genClient, "/API/GenerateText2Image", map[string]any(wire), &resp); err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 {
		return nil, &domain.OpError{
			Op:   "swarm.generate",
			Kind: domain.KindTransport,
			Err:  fmt.Errorf("server returned no images"),
		}
	}
	return s.imageBytes(ctx, resp.Images[0])
}

// ListModels fetches the model catalog for one subtype.
func (s *Client) ListModels(ctx context.Context, kind ports.ModelKind) ([]domain.CatalogEntry, error) {
	var resp struct {
		Files []struct {
			Name         string `json:"name"`
			Title        string `json:"title"`
			Architecture string `json:"architecture"`
			CompatClass  string `json:"compat_class"`
			Resolution   string `json:"resolution"`
			Description  string `json:"description"`
		} `json:"files"`
	}
	err := s.post(ctx, s.client, "/API/ListModels", map[string]any{
		"session_id": s.session,
		"path":       "",
		"depth":      4,
		"subtype":    string(kind),
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CatalogEntry, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, domain.CatalogEntry{
			Name:         f.Name,
			Title:        f.Title,
			Architecture: f.Architecture,
			CompatClass:  f.CompatClass,
			Resolution:   f.Resolution,
			Description:  f.Description,
		})
	}
	return out, nil
}

// ListLUTs returns the PostRender extension's LUT names, exposed as the
// values of the lutname parameter.
func (s *Client) ListLUTs(ctx context.Context) ([]string, error) {
	var resp struct {
		List []struct {
			ID     string   `json:"id"`
			Values []string `json:"values"`
		} `json:"list"`
	}
	err := s.post(ctx, s.client, "/API/ListT2IParams", map[string]any{
		"session_id": s.session,
	}, &resp)
	if err != nil {
		return nil, err
	}
	for _, p := range resp.List {
		if p.ID == "lutname" {
			return p.Values, nil
		}
	}
	return nil, nil
}

// Status returns the server and backend status documents verbatim.
func (s *Client) Status(ctx context.Context) (status, backends json.RawMessage, err error) {
	var resp struct {
		Status        json.RawMessage `json:"status"`
		BackendStatus json.RawMessage `json:"backend_status"`
	}
	err = s.post(ctx, s.client, "/API/GetCurrentStatus", map[string]any{
		"session_id": s.session,
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return resp.Status, resp.BackendStatus, nil
}

func (s *Client) imageBytes(ctx context.Context, ref string) ([]byte, error) {
	if strings.Contains(ref, "base64") {
		_, b64, found := strings.Cut(ref, ",")
		if !found {
			b64 = ref
		}
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, &domain.OpError{
				Op:   "swarm.download",
				Kind: domain.KindTransport,
				Err:  fmt.Errorf("inline image: %w", err),
			}
		}
		return data, nil
	}

	data, err := httpclient.GetBytes(ctx, s.client, s.baseURL+"/"+strings.TrimPrefix(ref, "/"))
	if err != nil {
		return nil, &domain.OpError{
			Op:   "swarm.download",
			Kind: domain.KindTransport,
			Path: ref,
			Err:  err,
		}
	}
	return data, nil
}

// post wraps the shared JSON helper, surfacing the API's in-band error
// field and classifying failures as transport errors.
func (s *Client) post(ctx context.Context, client *http.Client, call string, payload, out any) error {
	s.logger.Debug("swarm.call", "call", call)

	var probe map[string]json.RawMessage
	if err := httpclient.PostJSON(ctx, client, s.baseURL+call, payload, &probe); err != nil {
		return &domain.OpError{
			Op:   "swarm" + strings.ToLower(strings.TrimPrefix(call, "/API")),
			Kind: domain.KindTransport,
			Err:  err,
		}
	}
	if raw, ok := probe["error"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return &domain.OpError{
			Op:   "swarm" + strings.ToLower(strings.TrimPrefix(call, "/API")),
			Kind: domain.KindTransport,
			Err:  fmt.Errorf("%s failed: %s", call, msg),
		}
	}

	if out == nil {
		return nil
	}
	merged, err := json.Marshal(probe)
	if err != nil {
		return &domain.OpError{Op: "swarm.decode", Kind: domain.KindTransport, Err: err}
	}
	if err := json.Unmarshal(merged, out); err != nil {
		return &domain.OpError{Op: "swarm.decode", Kind: domain.KindTransport, Err: err}
	}
	return nil
}
