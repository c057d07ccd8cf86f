package util

import "strings"

// ShortClusterName returns the trailing resource name of an ARN
// EKS contexts are often named after the cluster ARN
// (arn:aws:eks:region:account:cluster/name), which is too long for a record column.
// Names that are not ARNs are returned unchanged.
func ShortClusterName(name string) string {
	if !strings.HasPrefix(name, "arn:") {
		return name
	}

	if _, short, ok := strings.Cut(name, ":cluster/"); ok {
		return short
	}
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		return name[i+1:]
	}
	return name
}
