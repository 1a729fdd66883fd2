package app

import "github.com/bft-labs/meshlog/internal/domain"

// AccessLogName is the log id of the server access log.
const AccessLogName = "server-accesslog-stackdriver"

// NewTemplate derives the per-lifetime batch template from the local node
// and returns it along with the project id used for log and trace names.
//
// Missing metadata is never an error: an absent project yields an empty
// project segment and an absent cluster name selects the instance resource.
func NewTemplate(local domain.NodeInfo) (domain.Template, string) {
	projectID, _ := local.Metadata(domain.GCPProjectKey)

	resourceType := domain.ContainerResourceType
	if _, ok := local.Metadata(domain.GCPClusterNameKey); !ok {
		resourceType = domain.InstanceResourceType
	}

	labels := map[string]string{
		"destination_name":      local.Name,
		"destination_workload":  local.WorkloadName,
		"destination_namespace": local.Namespace,
		"mesh_uid":              local.MeshID,
	}
	if v, ok := local.Label(domain.VersionLabel); ok {
		labels["destination_version"] = v
	}
	// app correlates the workload with its logs in the console
	if v, ok := local.Label(domain.AppLabel); ok {
		labels["destination_app"] = v
	}

	return domain.Template{
		LogName:  "projects/" + projectID + "/logs/" + AccessLogName,
		Resource: monitoredResource(resourceType, projectID, local),
		Labels:   labels,
	}, projectID
}

func monitoredResource(resourceType, projectID string, local domain.NodeInfo) domain.MonitoredResource {
	location, _ := local.Metadata(domain.GCPLocationKey)

	if resourceType == domain.InstanceResourceType {
		instanceID, _ := local.Metadata(domain.GCPInstanceIDKey)
		return domain.MonitoredResource{
			Type: resourceType,
			Labels: map[string]string{
				"project_id":  projectID,
				"instance_id": instanceID,
				"zone":        location,
			},
		}
	}

	cluster, _ := local.Metadata(domain.GCPClusterNameKey)
	return domain.MonitoredResource{
		Type: resourceType,
		Labels: map[string]string{
			"project_id":     projectID,
			"location":       location,
			"cluster_name":   cluster,
			"namespace_name": local.Namespace,
			"pod_name":       local.Name,
			"container_name": domain.ProxyContainerName,
		},
	}
}
