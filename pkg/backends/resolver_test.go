package backends

import (
	"testing"

	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/models"
)

func TestResolveDefaults(t *testing.T) {
	r := New("https://api.example.com/v1/images/", "tok-1", nil)
	ep := r.Resolve(models.ModelGemini)
	if ep.URL != "https://api.example.com/v1/images" {
		t.Errorf("expected trimmed base URL, got %s", ep.URL)
	}
	if ep.AuthToken != "tok-1" {
		t.Errorf("expected tok-1, got %s", ep.AuthToken)
	}
}

func TestResolveOverride(t *testing.T) {
	r := New("https://api.example.com", "tok-1", []config.BackendConfig{
		{Model: models.ModelUltra, URL: "https://ultra.example.com/", AuthToken: "tok-ultra"},
	})

	ep := r.Resolve(models.ModelUltra)
	if ep.URL != "https://ultra.example.com" || ep.AuthToken != "tok-ultra" {
		t.Errorf("unexpected override endpoint: %+v", ep)
	}

	// Non-overridden models keep the defaults.
	ep = r.Resolve(models.ModelImagen)
	if ep.URL != "https://api.example.com" || ep.AuthToken != "tok-1" {
		t.Errorf("unexpected default endpoint: %+v", ep)
	}
}

func TestResolvePartialOverride(t *testing.T) {
	r := New("https://api.example.com", "tok-1", []config.BackendConfig{
		{Model: models.ModelUltra, URL: "https://ultra.example.com"},
	})
	ep := r.Resolve(models.ModelUltra)
	if ep.AuthToken != "tok-1" {
		t.Errorf("expected shared token fallback, got %s", ep.AuthToken)
	}
}

func TestSetters(t *testing.T) {
	r := New("https://old.example.com", "old-tok", nil)
	r.SetBaseURL("https://new.example.com/")
	r.SetAuthToken("new-tok")

	ep := r.Resolve(models.ModelGemini)
	if ep.URL != "https://new.example.com" {
		t.Errorf("expected new base URL, got %s", ep.URL)
	}
	if ep.AuthToken != "new-tok" {
		t.Errorf("expected new token, got %s", ep.AuthToken)
	}
}
