package app

import (
	"testing"

	"github.com/bft-labs/meshlog/internal/domain"
)

func TestNewTemplate_ContainerResource(t *testing.T) {
	tmpl, projectID := NewTemplate(localNode())

	if projectID != "demo-project" {
		t.Errorf("projectID = %q, want demo-project", projectID)
	}
	if tmpl.LogName != "projects/demo-project/logs/server-accesslog-stackdriver" {
		t.Errorf("LogName = %q", tmpl.LogName)
	}
	if tmpl.Resource.Type != domain.ContainerResourceType {
		t.Fatalf("resource type = %q, want %q", tmpl.Resource.Type, domain.ContainerResourceType)
	}

	want := map[string]string{
		"project_id":     "demo-project",
		"location":       "us-central1-a",
		"cluster_name":   "prod-cluster",
		"namespace_name": "bookinfo",
		"pod_name":       "reviews-v1-7d8f",
		"container_name": "istio-proxy",
	}
	assertLabels(t, "resource", tmpl.Resource.Labels, want)
}

func TestNewTemplate_InstanceResourceWithoutCluster(t *testing.T) {
	local := localNode()
	delete(local.PlatformMetadata, domain.GCPClusterNameKey)
	local.PlatformMetadata[domain.GCPInstanceIDKey] = "8812345"

	tmpl, _ := NewTemplate(local)

	if tmpl.Resource.Type != domain.InstanceResourceType {
		t.Fatalf("resource type = %q, want %q", tmpl.Resource.Type, domain.InstanceResourceType)
	}
	assertLabels(t, "resource", tmpl.Resource.Labels, map[string]string{
		"project_id":  "demo-project",
		"instance_id": "8812345",
		"zone":        "us-central1-a",
	})
}

func TestNewTemplate_MissingProject(t *testing.T) {
	local := localNode()
	local.PlatformMetadata = nil

	tmpl, projectID := NewTemplate(local)

	if projectID != "" {
		t.Errorf("projectID = %q, want empty", projectID)
	}
	if tmpl.LogName != "projects//logs/server-accesslog-stackdriver" {
		t.Errorf("LogName = %q", tmpl.LogName)
	}
	if tmpl.Resource.Type != domain.InstanceResourceType {
		t.Errorf("resource type = %q, want %q", tmpl.Resource.Type, domain.InstanceResourceType)
	}
}

func TestNewTemplate_CommonLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   map[string]string
	}{
		{
			name:   "app and version",
			labels: map[string]string{"app": "reviews", "version": "v1"},
			want: map[string]string{
				"destination_name":      "reviews-v1-7d8f",
				"destination_workload":  "reviews-v1",
				"destination_namespace": "bookinfo",
				"mesh_uid":              "mesh-1",
				"destination_version":   "v1",
				"destination_app":       "reviews",
			},
		},
		{
			name:   "no optional labels",
			labels: map[string]string{"tier": "backend"},
			want: map[string]string{
				"destination_name":      "reviews-v1-7d8f",
				"destination_workload":  "reviews-v1",
				"destination_namespace": "bookinfo",
				"mesh_uid":              "mesh-1",
			},
		},
		{
			name:   "empty version is still present",
			labels: map[string]string{"version": ""},
			want: map[string]string{
				"destination_name":      "reviews-v1-7d8f",
				"destination_workload":  "reviews-v1",
				"destination_namespace": "bookinfo",
				"mesh_uid":              "mesh-1",
				"destination_version":   "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := localNode()
			local.Labels = tt.labels
			tmpl, _ := NewTemplate(local)
			assertLabels(t, "common", tmpl.Labels, tt.want)
		})
	}
}

func assertLabels(t *testing.T, what string, got, want map[string]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s labels = %v, want %v", what, got, want)
		return
	}
	for k, v := range want {
		gv, ok := got[k]
		if !ok || gv != v {
			t.Errorf("%s label %q = %q (present=%v), want %q", what, k, gv, ok, v)
		}
	}
}
