package jobs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aryankumar/fleetexport/internal/cluster"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const nodeRolePrefix = "node-role.kubernetes.io/"

func listNodes(ctx context.Context, c *cluster.Client, now time.Time) ([][]string, error) {
	list, err := c.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	name := clusterLabel(c)
	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		node := &list.Items[i]
		rows = append(rows, []string{
			name,
			node.Name,
			nodeStatus(node),
			nodeRoles(node),
			node.Status.NodeInfo.KubeletVersion,
			age(node.CreationTimestamp.Time, now),
		})
	}
	return rows, nil
}

func listNamespaces(ctx context.Context, c *cluster.Client, now time.Time) ([][]string, error) {
	list, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	name := clusterLabel(c)
	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		ns := &list.Items[i]
		rows = append(rows, []string{
			name,
			ns.Name,
			string(ns.Status.Phase),
			age(ns.CreationTimestamp.Time, now),
		})
	}
	return rows, nil
}

func listPods(ctx context.Context, c *cluster.Client, now time.Time) ([][]string, error) {
	list, err := c.Clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	name := clusterLabel(c)
	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		pod := &list.Items[i]
		rows = append(rows, []string{
			name,
			pod.Namespace,
			pod.Name,
			string(pod.Status.Phase),
			strconv.Itoa(int(podRestarts(pod))),
			pod.Spec.NodeName,
			age(pod.CreationTimestamp.Time, now),
		})
	}
	return rows, nil
}

func listDeployments(ctx context.Context, c *cluster.Client, now time.Time) ([][]string, error) {
	list, err := c.Clientset.AppsV1().Deployments(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	name := clusterLabel(c)
	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		deploy := &list.Items[i]
		// an unset replica count means the API server default of one
		desired := int32(1)
		if deploy.Spec.Replicas != nil {
			desired = *deploy.Spec.Replicas
		}
		rows = append(rows, []string{
			name,
			deploy.Namespace,
			deploy.Name,
			strconv.Itoa(int(deploy.Status.ReadyReplicas)),
			strconv.Itoa(int(desired)),
			age(deploy.CreationTimestamp.Time, now),
		})
	}
	return rows, nil
}

func listServices(ctx context.Context, c *cluster.Client, now time.Time) ([][]string, error) {
	list, err := c.Clientset.CoreV1().Services(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	name := clusterLabel(c)
	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		svc := &list.Items[i]
		rows = append(rows, []string{
			name,
			svc.Namespace,
			svc.Name,
			string(svc.Spec.Type),
			svc.Spec.ClusterIP,
			servicePorts(svc),
		})
	}
	return rows, nil
}

func nodeStatus(node *corev1.Node) string {
	for _, cond := range node.Status.Conditions {
		if cond.Type != corev1.NodeReady {
			continue
		}
		if cond.Status == corev1.ConditionTrue {
			return "Ready"
		}
		return "NotReady"
	}
	return "Unknown"
}

// nodeRoles joins the node-role labels, sorted, with ";" so the record keeps one field
func nodeRoles(node *corev1.Node) string {
	var roles []string
	for key := range node.Labels {
		if role, ok := strings.CutPrefix(key, nodeRolePrefix); ok && role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "<none>"
	}
	sort.Strings(roles)
	return strings.Join(roles, ";")
}

func podRestarts(pod *corev1.Pod) int32 {
	var restarts int32
	for _, status := range pod.Status.ContainerStatuses {
		restarts += status.RestartCount
	}
	return restarts
}

// servicePorts renders ports as port[:nodePort]/protocol joined with ";"
func servicePorts(svc *corev1.Service) string {
	if len(svc.Spec.Ports) == 0 {
		return "<none>"
	}

	ports := make([]string, 0, len(svc.Spec.Ports))
	for _, p := range svc.Spec.Ports {
		port := strconv.Itoa(int(p.Port))
		if p.NodePort != 0 {
			port += ":" + strconv.Itoa(int(p.NodePort))
		}
		protocol := p.Protocol
		if protocol == "" {
			protocol = corev1.ProtocolTCP
		}
		ports = append(ports, port+"/"+string(protocol))
	}
	return strings.Join(ports, ";")
}
