package cliconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/meshlog/internal/domain"
)

func TestLoadNodeInfo(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "node.json")
	jsonDoc := `{
  "name": "reviews-v1-7d8f",
  "workload_name": "reviews-v1",
  "namespace": "bookinfo",
  "mesh_id": "mesh-1",
  "labels": {"app": "reviews", "version": "v1"},
  "platform_metadata": {"gcp_project": "demo", "gcp_gke_cluster_name": "prod"}
}`
	if err := os.WriteFile(jsonPath, []byte(jsonDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	tomlPath := filepath.Join(dir, "node.toml")
	tomlDoc := `
name = "reviews-v1-7d8f"
workload_name = "reviews-v1"
namespace = "bookinfo"
mesh_id = "mesh-1"

[labels]
app = "reviews"
version = "v1"

[platform_metadata]
gcp_project = "demo"
gcp_gke_cluster_name = "prod"
`
	if err := os.WriteFile(tomlPath, []byte(tomlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			node, err := LoadNodeInfo(path)
			if err != nil {
				t.Fatalf("LoadNodeInfo() error = %v", err)
			}
			if node.Name != "reviews-v1-7d8f" || node.WorkloadName != "reviews-v1" || node.MeshID != "mesh-1" {
				t.Errorf("node = %+v", node)
			}
			if v, _ := node.Label(domain.AppLabel); v != "reviews" {
				t.Errorf("app label = %q", v)
			}
			if v, ok := node.Metadata(domain.GCPClusterNameKey); !ok || v != "prod" {
				t.Errorf("cluster metadata = %q %v", v, ok)
			}
		})
	}
}

func TestLoadNodeInfo_EmptyPath(t *testing.T) {
	node, err := LoadNodeInfo("")
	if err != nil {
		t.Fatalf("LoadNodeInfo(\"\") error = %v", err)
	}
	host, _ := os.Hostname()
	if node.Name != host {
		t.Errorf("Name = %q, want hostname %q", node.Name, host)
	}
}

func TestLoadNodeInfo_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "node.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadNodeInfo(bad); err == nil {
		t.Error("LoadNodeInfo() accepted malformed JSON")
	}
	if _, err := LoadNodeInfo(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadNodeInfo() accepted a missing file")
	}
}
