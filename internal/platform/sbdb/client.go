// Package sbdb is a client for the JPL Small-Body Database lookup API,
// used as the orbital-element source for designation-based analyses.
package sbdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// DefaultURL is the public SBDB endpoint.
const DefaultURL = "https://ssd-api.jpl.nasa.gov/sbdb.api"

// Values substituted for fields the database leaves out.
var (
	defaultElements = domain.OrbitalElements{
		SemiMajorAxisAU: 2.0,
		Eccentricity:    0.2,
		InclinationDeg:  5.0,
		NodeDeg:         45.0,
		PerihelionDeg:   30.0,
		MeanAnomalyDeg:  0.0,
		EpochJD:         domain.J2000JD,
	}
	defaultPhysical = domain.PhysicalProperties{
		DiameterKm:        1.0,
		AbsoluteMagnitude: 20.0,
		Albedo:            0.14,
	}
)

// Client resolves designations such as "99942" or "Apophis" to orbits.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates an SBDB client. An empty baseURL selects DefaultURL and a
// zero timeout selects 15 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type namedValue struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// lookupResponse is the subset of the sbdb.api payload we read.
type lookupResponse struct {
	Object *struct {
		FullName string `json:"fullname"`
		NEO      bool   `json:"neo"`
		PHA      bool   `json:"pha"`
	} `json:"object"`
	Orbit *struct {
		Elements []namedValue `json:"elements"`
	} `json:"orbit"`
	PhysPar []namedValue `json:"phys_par"`
	Message string       `json:"message"`
}

// Lookup implements domain.ElementSource.
func (c *Client) Lookup(ctx context.Context, designation string) (domain.SmallBody, error) {
	designation = strings.TrimSpace(designation)
	if designation == "" {
		return domain.SmallBody{}, domain.Validation("designation", designation, "must not be empty")
	}

	params := url.Values{}
	params.Set("sstr", designation)
	params.Set("full-prec", "true")
	params.Set("phys-par", "true")

	var resp lookupResponse
	status, err := c.doGet(ctx, params, &resp)
	if status == http.StatusNotFound {
		return domain.SmallBody{}, domain.NotFound("designation", designation)
	}
	if err != nil {
		return domain.SmallBody{}, domain.Unavailable("sbdb", fmt.Errorf("sbdb: lookup %q: %w", designation, err))
	}
	if resp.Object == nil {
		return domain.SmallBody{}, domain.NotFound("designation", designation)
	}

	body := domain.SmallBody{
		Designation: designation,
		Name:        resp.Object.FullName,
		NEO:         resp.Object.NEO,
		PHA:         resp.Object.PHA,
		Elements:    defaultElements,
		Physical:    defaultPhysical,
		Source:      domain.SourceLive,
		FetchedAt:   c.now().UTC(),
	}
	if body.Name == "" {
		body.Name = designation
	}
	if resp.Orbit != nil {
		applyElements(&body.Elements, resp.Orbit.Elements)
	}
	applyPhysical(&body.Physical, resp.PhysPar)
	return body, nil
}

func applyElements(el *domain.OrbitalElements, values []namedValue) {
	for _, v := range values {
		f, ok := parseValue(v.Value)
		if !ok {
			continue
		}
		switch v.Name {
		case "a":
			el.SemiMajorAxisAU = f
		case "e":
			el.Eccentricity = f
		case "i":
			el.InclinationDeg = f
		case "om":
			el.NodeDeg = f
		case "w":
			el.PerihelionDeg = f
		case "ma":
			el.MeanAnomalyDeg = f
		case "epoch":
			el.EpochJD = f
		}
	}
}

func applyPhysical(p *domain.PhysicalProperties, values []namedValue) {
	for _, v := range values {
		f, ok := parseValue(v.Value)
		if !ok {
			continue
		}
		switch v.Name {
		case "diameter":
			p.DiameterKm = f
		case "H":
			p.AbsoluteMagnitude = f
		case "albedo":
			p.Albedo = f
		}
	}
}

// parseValue accepts both the quoted strings SBDB emits and bare numbers.
func parseValue(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// doGet performs a GET request against the lookup endpoint and decodes the
// response. The HTTP status is returned alongside any error.
func (c *Client) doGet(ctx context.Context, params url.Values, v any) (int, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
