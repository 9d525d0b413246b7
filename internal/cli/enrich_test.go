package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadPlanJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	body := `{"system_name":"shop","zones":{"clients":["Browser"],"data_stores":["PostgreSQL"]}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	plan, err := readPlan(path)
	if err != nil {
		t.Fatalf("readPlan() error = %v", err)
	}
	if plan.SystemName != "shop" {
		t.Errorf("SystemName = %q, want shop", plan.SystemName)
	}
	if componentCount(plan) != 2 {
		t.Errorf("componentCount() = %d, want 2", componentCount(plan))
	}
}

func TestReadPlanYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	body := `system_name: shop
zones:
  clients:
    - Browser
  core_services:
    - Auth Service
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	plan, err := readPlan(path)
	if err != nil {
		t.Fatalf("readPlan() error = %v", err)
	}
	if len(plan.Zones.Clients) != 1 || plan.Zones.Clients[0] != "Browser" {
		t.Errorf("Zones.Clients = %v", plan.Zones.Clients)
	}
	if len(plan.Zones.CoreServices) != 1 {
		t.Errorf("Zones.CoreServices = %v", plan.Zones.CoreServices)
	}
}

func TestReadPlanMissingFile(t *testing.T) {
	if _, err := readPlan(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("readPlan() should fail on a missing file")
	}
}
