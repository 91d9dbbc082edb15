package sbdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

const apophisPayload = `{
  "object": {"fullname": "99942 Apophis (2004 MN4)", "neo": true, "pha": true},
  "orbit": {"elements": [
    {"name": "e", "value": "0.1914"},
    {"name": "a", "value": "0.9224"},
    {"name": "i", "value": "3.339"},
    {"name": "om", "value": "203.96"},
    {"name": "w", "value": "126.6"},
    {"name": "ma", "value": "not-a-number"},
    {"name": "q", "value": "0.746"}
  ]},
  "phys_par": [
    {"name": "diameter", "value": "0.34"},
    {"name": "H", "value": 19.09}
  ]
}`

func TestLookupParsesPayload(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{"sstr": q.Get("sstr"), "phys-par": q.Get("phys-par"), "full-prec": q.Get("full-prec")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(apophisPayload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	body, err := c.Lookup(context.Background(), "Apophis")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotQuery["sstr"] != "Apophis" || gotQuery["phys-par"] != "true" || gotQuery["full-prec"] != "true" {
		t.Errorf("query = %v", gotQuery)
	}
	if body.Name != "99942 Apophis (2004 MN4)" || !body.NEO || !body.PHA {
		t.Errorf("object = %q neo=%v pha=%v", body.Name, body.NEO, body.PHA)
	}
	el := body.Elements
	if el.SemiMajorAxisAU != 0.9224 || el.Eccentricity != 0.1914 || el.InclinationDeg != 3.339 {
		t.Errorf("elements = %+v", el)
	}
	// Unparseable and missing elements keep their defaults.
	if el.MeanAnomalyDeg != 0 || el.EpochJD != domain.J2000JD {
		t.Errorf("defaults not applied: %+v", el)
	}
	if body.Physical.DiameterKm != 0.34 || body.Physical.AbsoluteMagnitude != 19.09 || body.Physical.Albedo != 0.14 {
		t.Errorf("physical = %+v", body.Physical)
	}
	if body.Source != domain.SourceLive {
		t.Errorf("source = %v", body.Source)
	}
}

func TestLookupMissingSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object": {}}`))
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "2024 XY")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if body.Name != "2024 XY" {
		t.Errorf("name = %q, want designation", body.Name)
	}
	if body.Elements != defaultElements || body.Physical != defaultPhysical {
		t.Errorf("defaults not applied: %+v %+v", body.Elements, body.Physical)
	}
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		want    error
	}{
		{"not found status", http.StatusNotFound, `{"message":"specified object was not found"}`, domain.ErrNotFound},
		{"no object", http.StatusOK, `{"message":"specified object was not found"}`, domain.ErrNotFound},
		{"server error", http.StatusInternalServerError, `oops`, domain.ErrExternalUnavailable},
		{"bad json", http.StatusOK, `{`, domain.ErrExternalUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "nothing")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLookupEmptyDesignation(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", time.Second).Lookup(context.Background(), "  ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`"1.5"`, 1.5, true},
		{`2`, 2, true},
		{`" 3e2 "`, 300, true},
		{`null`, 0, false},
		{`"abc"`, 0, false},
		{``, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseValue([]byte(tt.raw))
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseValue(%s) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
