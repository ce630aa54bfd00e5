package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSharedPerTier(t *testing.T) {
	if Client(TierMedium) != Client(TierMedium) {
		t.Error("same tier must return the same client")
	}
	if Client(TierFast) == Client(TierSlow) {
		t.Error("different tiers must return different clients")
	}
	if Client(TimeoutTier(99)) != Client(TierMedium) {
		t.Error("unknown tier falls back to medium")
	}
}

func TestClientTimeouts(t *testing.T) {
	tests := []struct {
		client *http.Client
		want   time.Duration
	}{
		{FastClient(), 5 * time.Second},
		{MediumClient(), 30 * time.Second},
		{SlowClient(), 60 * time.Second},
	}
	for _, tt := range tests {
		if tt.client.Timeout != tt.want {
			t.Errorf("timeout = %v, want %v", tt.client.Timeout, tt.want)
		}
	}
}

func TestReadResponseBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxSize int64
		wantLen int
	}{
		{"normal read", "hello world", 1024, 11},
		{"truncated at bound", strings.Repeat("x", 1000), 100, 100},
		{"zero max uses default", "test", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadResponseBody(strings.NewReader(tt.input), tt.maxSize)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestReadErrorBodyCapped(t *testing.T) {
	large := strings.Repeat("error details ", 100000)
	got, err := ReadErrorBody(strings.NewReader(large))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) > 1024*1024 {
		t.Errorf("error body must cap at 1MB, got %d bytes", len(got))
	}
}

type trackingReader struct {
	io.Reader
	fullyRead bool
}

func (r *trackingReader) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	if err == io.EOF {
		r.fullyRead = true
	}
	return
}

func TestDrainAndClose(t *testing.T) {
	r := &trackingReader{Reader: bytes.NewReader([]byte("test data"))}
	DrainAndClose(io.NopCloser(r))
	if !r.fullyRead {
		t.Error("body must be drained so the connection can be reused")
	}

	DrainAndClose(nil) // must not panic
}

func TestClientRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := MediumClient()
	for i := 0; i < 5; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		DrainAndClose(resp.Body)
	}
}
