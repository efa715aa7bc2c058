package timeconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"reflect"
	"sync"
	"testing"

	"github.com/muurk/wledbackup/internal/wled"
)

func ptr(s string) *string { return &s }

func TestSettings_FormData(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     url.Values
	}{
		{
			name:     "nothing supplied",
			settings: Settings{},
			want:     url.Values{},
		},
		{
			name:     "lat and lon only",
			settings: Settings{Lat: ptr("52.37"), Lon: ptr("4.90")},
			want:     url.Values{"LT": {"52.37"}, "LN": {"4.90"}},
		},
		{
			name:     "ntp server",
			settings: Settings{NTPServer: ptr("pool.ntp.org")},
			want:     url.Values{"NT": {"on"}, "NS": {"pool.ntp.org"}},
		},
		{
			name:     "timezone index",
			settings: Settings{TimeZoneIndex: ptr("7")},
			want:     url.Values{"CF": {"on"}, "TZ": {"7"}, "UO": {"0"}},
		},
		{
			name: "everything",
			settings: Settings{
				NTPServer:     ptr("ntp.example.com"),
				Lat:           ptr("-33.87"),
				Lon:           ptr("151.21"),
				TimeZoneIndex: ptr("12"),
			},
			want: url.Values{
				"NT": {"on"}, "NS": {"ntp.example.com"},
				"LT": {"-33.87"}, "LN": {"151.21"},
				"CF": {"on"}, "TZ": {"12"}, "UO": {"0"},
			},
		},
		{
			name:     "empty string is still supplied",
			settings: Settings{Lat: ptr("")},
			want:     url.Values{"LT": {""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.FormData(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FormData() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettings_Empty(t *testing.T) {
	if !(Settings{}).Empty() {
		t.Error("zero Settings is not Empty")
	}
	if (Settings{Lon: ptr("1")}).Empty() {
		t.Error("Settings with Lon is Empty")
	}
}

// recorder is a device that records every posted form.
type recorder struct {
	mu    sync.Mutex
	forms []url.Values
}

func (r *recorder) handler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost || req.URL.Path != wled.TimeSettingsPath {
			http.NotFound(w, req)
			return
		}
		if err := req.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.mu.Lock()
		r.forms = append(r.forms, req.PostForm)
		r.mu.Unlock()
		w.WriteHeader(status)
	})
}

func TestPusher_Push(t *testing.T) {
	good := &recorder{}
	goodServer := httptest.NewServer(good.handler(http.StatusOK))
	defer goodServer.Close()

	bad := &recorder{}
	badServer := httptest.NewServer(bad.handler(http.StatusInternalServerError))
	defer badServer.Close()

	gone := httptest.NewServer(http.NotFoundHandler())
	goneURL := gone.URL
	gone.Close()

	hosts := []netip.Addr{
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.2"),
		netip.MustParseAddr("10.0.0.3"),
		netip.MustParseAddr("10.0.0.4"),
	}
	urls := map[netip.Addr]string{
		hosts[0]: goneURL,
		hosts[1]: goodServer.URL,
		hosts[2]: badServer.URL,
		hosts[3]: goodServer.URL,
	}

	pusher := NewPusher(Settings{Lat: ptr("52.37"), Lon: ptr("4.90")}, nil)
	pusher.NewClient = func(host netip.Addr) *wled.Client { return wled.NewClientWithURL(urls[host]) }

	report := pusher.Push(context.Background(), hosts)

	if !reflect.DeepEqual(report.Applied, []netip.Addr{hosts[1], hosts[3]}) {
		t.Errorf("Applied = %v", report.Applied)
	}
	if len(report.Failed) != 2 || report.Failed[0].Host != hosts[0] || report.Failed[1].Host != hosts[2] {
		t.Fatalf("Failed = %+v", report.Failed)
	}
	if !wled.IsNetworkError(report.Failed[0].Err) {
		t.Errorf("unreachable host error = %v, want network error", report.Failed[0].Err)
	}
	if !wled.IsHTTPError(report.Failed[1].Err) {
		t.Errorf("500 host error = %v, want HTTP error", report.Failed[1].Err)
	}

	want := url.Values{"LT": {"52.37"}, "LN": {"4.90"}}
	if len(good.forms) != 2 {
		t.Fatalf("good device got %d posts, want 2", len(good.forms))
	}
	for _, form := range good.forms {
		if !reflect.DeepEqual(form, want) {
			t.Errorf("posted form = %v, want %v", form, want)
		}
	}
}

func TestPusher_EmptySettingsStillPosted(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(http.StatusOK))
	defer server.Close()

	pusher := NewPusher(Settings{}, nil)
	pusher.NewClient = func(netip.Addr) *wled.Client { return wled.NewClientWithURL(server.URL) }

	report := pusher.Push(context.Background(), []netip.Addr{netip.MustParseAddr("10.0.0.1")})

	if len(report.Applied) != 1 {
		t.Fatalf("Applied = %v, want one host", report.Applied)
	}
	if len(rec.forms) != 1 || len(rec.forms[0]) != 0 {
		t.Errorf("forms = %v, want one empty form", rec.forms)
	}
}

func TestPusher_Cancelled(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(http.StatusOK))
	defer server.Close()

	pusher := NewPusher(Settings{Lat: ptr("1")}, nil)
	pusher.NewClient = func(netip.Addr) *wled.Client { return wled.NewClientWithURL(server.URL) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := pusher.Push(ctx, []netip.Addr{netip.MustParseAddr("10.0.0.1")})
	if len(report.Applied)+len(report.Failed) != 0 {
		t.Errorf("report = %+v, want no hosts attempted", report)
	}
	if len(rec.forms) != 0 {
		t.Error("device contacted after cancellation")
	}
}

func TestNewPusher_Defaults(t *testing.T) {
	pusher := NewPusher(Settings{}, nil)
	if pusher.Port != wled.DefaultPort || pusher.Timeout != DefaultTimeout {
		t.Errorf("Port = %d, Timeout = %v", pusher.Port, pusher.Timeout)
	}

	client := pusher.NewClient(netip.MustParseAddr("192.168.1.40"))
	if client.BaseURL != "http://192.168.1.40:80" {
		t.Errorf("BaseURL = %s", client.BaseURL)
	}
	if client.Timeout() != DefaultTimeout {
		t.Errorf("client timeout = %v", client.Timeout())
	}
}
