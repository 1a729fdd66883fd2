package domain

// Platform metadata keys read from the local node.
const (
	GCPProjectKey      = "gcp_project"
	GCPClusterNameKey  = "gcp_gke_cluster_name"
	GCPLocationKey     = "gcp_location"
	GCPInstanceIDKey   = "gcp_gce_instance_id"
	ProxyContainerName = "istio-proxy"
	VersionLabel       = "version"
	AppLabel           = "app"
)

// NodeInfo describes a mesh workload: either the local node the logger runs
// on or the peer that issued a request.
type NodeInfo struct {
	Name         string `json:"name" toml:"name"`
	WorkloadName string `json:"workload_name" toml:"workload_name"`
	Namespace    string `json:"namespace" toml:"namespace"`
	MeshID       string `json:"mesh_id" toml:"mesh_id"`

	// Labels are the workload labels. Only "app" and "version" are read.
	Labels map[string]string `json:"labels,omitempty" toml:"labels"`

	// PlatformMetadata carries cloud identity such as the project id,
	// cluster name, location and instance id.
	PlatformMetadata map[string]string `json:"platform_metadata,omitempty" toml:"platform_metadata"`
}

// Label returns the workload label value and whether it is present.
func (n NodeInfo) Label(key string) (string, bool) {
	v, ok := n.Labels[key]
	return v, ok
}

// Metadata returns the platform metadata value and whether it is present.
func (n NodeInfo) Metadata(key string) (string, bool) {
	v, ok := n.PlatformMetadata[key]
	return v, ok
}
