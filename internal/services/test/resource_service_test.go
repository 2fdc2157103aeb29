package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/api"
	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"
	"github.com/bionicotaku/lingo-media-dashboard/internal/services"
	"github.com/bionicotaku/lingo-media-dashboard/internal/tasks/polling"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

type stubPollers struct {
	started []string
}

func (s *stubPollers) Start(_ context.Context, kind po.ResourceKind, id string) (*polling.Handle, error) {
	s.started = append(s.started, string(kind)+"/"+id)
	return nil, nil
}

func newResourceService(t *testing.T, handler http.Handler) (*services.ResourceService, *repositories.StoreRegistry, *stubPollers) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, cleanup, err := api.NewHTTPClient(loader.APIConfig{Endpoint: srv.URL, Token: "jwt", Timeout: 5 * time.Second}, nil, log.DefaultLogger)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	t.Cleanup(cleanup)

	stores := repositories.NewStoreRegistry()
	pollers := &stubPollers{}
	svc, err := services.NewResourceService(api.NewClients(client, log.DefaultLogger), stores, pollers, log.DefaultLogger)
	if err != nil {
		t.Fatalf("NewResourceService: %v", err)
	}
	return svc, stores, pollers
}

func documentHandler(state *atomic.Value, calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/documents/44/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "44",
			"upload_state": state.Load().(string),
			"title":        "foo.pdf",
		})
	})
}

func TestResourceService_RefreshWritesStore(t *testing.T) {
	var state atomic.Value
	state.Store("processing")
	var calls atomic.Int32
	svc, stores, _ := newResourceService(t, documentHandler(&state, &calls))

	var notified []po.UploadState
	unsubscribe, err := svc.Subscribe(po.KindDocuments, "44", func(v po.Uploadable) {
		notified = append(notified, v.State())
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	got, err := svc.Refresh(context.Background(), po.KindDocuments, "44")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got.State() != po.UploadStateProcessing {
		t.Fatalf("unexpected state %s", got.State())
	}
	if doc, ok := stores.Documents.Get(po.KindDocuments, "44"); !ok || doc.Title != "foo.pdf" {
		t.Fatalf("expected document cached, got %+v", doc)
	}
	if len(notified) != 1 || notified[0] != po.UploadStateProcessing {
		t.Fatalf("unexpected notifications: %v", notified)
	}
}

func TestResourceService_WatchFetchesOnlyWhenNotCached(t *testing.T) {
	var state atomic.Value
	state.Store("processing")
	var calls atomic.Int32
	svc, _, pollers := newResourceService(t, documentHandler(&state, &calls))

	if _, err := svc.Watch(context.Background(), po.KindDocuments, "44"); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if _, err := svc.Watch(context.Background(), po.KindDocuments, "44"); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single priming fetch, got %d", calls.Load())
	}
	if len(pollers.started) != 2 || pollers.started[0] != "documents/44" {
		t.Fatalf("unexpected poll starts: %v", pollers.started)
	}
}

func TestResourceService_WatchMissingResource(t *testing.T) {
	var state atomic.Value
	state.Store("processing")
	var calls atomic.Int32
	svc, _, pollers := newResourceService(t, documentHandler(&state, &calls))

	_, err := svc.Watch(context.Background(), po.KindDocuments, "45")
	if !kerrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(pollers.started) != 0 {
		t.Fatalf("poller must not start for a missing resource")
	}
}

func TestResourceService_UnknownKind(t *testing.T) {
	var state atomic.Value
	state.Store("processing")
	var calls atomic.Int32
	svc, _, _ := newResourceService(t, documentHandler(&state, &calls))

	if _, err := svc.Refresh(context.Background(), po.ResourceKind("playlists"), "1"); !kerrors.IsBadRequest(err) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestResourceService_CreateCachesResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/thumbnails/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "t9", "upload_state": "pending", "video": "v1"})
	})
	svc, stores, _ := newResourceService(t, mux)

	created, err := svc.Create(context.Background(), po.KindThumbnails, map[string]string{"video": "v1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ResourceID() != "t9" {
		t.Fatalf("unexpected id %s", created.ResourceID())
	}
	if _, ok := stores.Thumbnails.Get(po.KindThumbnails, "t9"); !ok {
		t.Fatalf("expected created thumbnail cached")
	}
}
