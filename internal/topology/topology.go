// Package topology fetches the server config document: maintenance state,
// client update requirements, and the current login server list. The
// endpoint is plain XML over HTTP and sits outside the game protocol.
package topology

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yntha/castleclash/internal/core"
)

var (
	// ErrMaintenance is returned when the server reports an active
	// maintenance window. Fatal; there is no point connecting.
	ErrMaintenance = errors.New("server is in maintenance mode")

	// ErrVersionRejected is returned when the server demands a client update
	// and the version override is not set.
	ErrVersionRejected = errors.New("client version rejected by server")

	// ErrNoLoginServers is returned when the config document lists no login
	// servers.
	ErrNoLoginServers = errors.New("no login servers advertised")
)

const maintainTimeLayout = "2006-01-02 15:04"

// Server config responses rarely change; hold on to them briefly so
// repeated startups (or tools sharing a Client) don't hammer the endpoint.
const (
	cacheKey = "server_config"
	cacheTTL = 5 * time.Minute
)

// LoginServer is one advertised login server address.
type LoginServer struct {
	Host string
	Port int
}

// Update is the maintenance/update block of the config document.
type Update struct {
	Maintenance    bool
	MaintainStart  time.Time
	MaintainEnd    time.Time
	UpdateRequired bool
	Version        string
	Size           string
}

// ServerConfig is the parsed config document.
type ServerConfig struct {
	Update       Update
	LoginServers []LoginServer
}

// Client fetches and caches the server config document.
type Client struct {
	config *core.Config
	logger *logrus.Logger
	http   *http.Client
	cache  *gocache.Cache
}

func NewClient(cfg *core.Config, logger *logrus.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger,
		http:   &http.Client{Timeout: 10 * time.Second},
		cache:  gocache.New(cacheTTL, 10*time.Second),
	}
}

// Fetch returns the current server config, enforcing the maintenance and
// update gates. Responses are cached for a few minutes; the gates are
// re-evaluated on every call.
func (c *Client) Fetch(ctx context.Context) (*ServerConfig, error) {
	if cached, ok := c.cache.Get(cacheKey); ok {
		return c.gate(cached.(*ServerConfig))
	}

	sc, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey, sc, gocache.DefaultExpiration)
	return c.gate(sc)
}

func (c *Client) fetch(ctx context.Context) (*ServerConfig, error) {
	endpoint, err := url.Parse(c.config.ServerConfig.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid server config url: %w", err)
	}
	query := endpoint.Query()
	query.Set("v", strconv.Itoa(c.config.ServerConfig.Version))
	query.Set("rnd_t", strconv.Itoa(rand.Intn(100000)))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building server config request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching server config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching server config: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading server config response: %w", err)
	}
	return parseServerConfig(body)
}

func (c *Client) gate(sc *ServerConfig) (*ServerConfig, error) {
	if sc.Update.Maintenance {
		window := fmt.Sprintf("maintenance from %s to %s",
			sc.Update.MaintainStart.Format(maintainTimeLayout),
			sc.Update.MaintainEnd.Format(maintainTimeLayout))
		return nil, fmt.Errorf("%w: %s", ErrMaintenance,
			cases.Title(language.English).String(window))
	}

	if sc.Update.UpdateRequired {
		if !c.config.Client.VersionOverride {
			return nil, fmt.Errorf("%w: have %s, server wants %s",
				ErrVersionRejected, c.config.Client.VersionString, sc.Update.Version)
		}
		c.logger.Warnf("client is outdated (%s / %s), continuing due to version override",
			c.config.Client.VersionString, sc.Update.Version)
	}
	return sc, nil
}

// ChooseLoginServer picks a random login server from the advertised list.
func (c *Client) ChooseLoginServer(sc *ServerConfig) (LoginServer, error) {
	if len(sc.LoginServers) == 0 {
		return LoginServer{}, ErrNoLoginServers
	}
	return sc.LoginServers[rand.Intn(len(sc.LoginServers))], nil
}

type xmlDocument struct {
	XMLName xml.Name `xml:"root"`
	Update  struct {
		IsMaintain    string `xml:"isMaintain,attr"`
		MaintainStart string `xml:"maintainStart,attr"`
		MaintainEnd   string `xml:"maintainEnd,attr"`
		IsUpdate      string `xml:"isUpdate,attr"`
		Version       string `xml:"version,attr"`
		Size          string `xml:"size,attr"`
	} `xml:"Update"`
	LoginServer struct {
		Servers []struct {
			IP   string `xml:"IP,attr"`
			Port int    `xml:"PORT,attr"`
		} `xml:"array"`
	} `xml:"LoginServer"`
}

func parseServerConfig(data []byte) (*ServerConfig, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}

	sc := &ServerConfig{
		Update: Update{
			Maintenance:    doc.Update.IsMaintain == "1",
			UpdateRequired: doc.Update.IsUpdate == "1",
			Version:        doc.Update.Version,
			Size:           doc.Update.Size,
		},
	}

	// The maintenance timestamps are informational; a malformed one should
	// not block parsing the rest of the document.
	if t, err := time.Parse(maintainTimeLayout, doc.Update.MaintainStart); err == nil {
		sc.Update.MaintainStart = t
	}
	if t, err := time.Parse(maintainTimeLayout, doc.Update.MaintainEnd); err == nil {
		sc.Update.MaintainEnd = t
	}

	for _, server := range doc.LoginServer.Servers {
		sc.LoginServers = append(sc.LoginServers, LoginServer{
			Host: server.IP,
			Port: server.Port,
		})
	}
	return sc, nil
}
