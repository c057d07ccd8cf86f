package util

import "testing"

func TestShortClusterName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "eks arn", input: "arn:aws:eks:us-east-1:123456789012:cluster/my-cluster", expected: "my-cluster"},
		{name: "govcloud arn", input: "arn:aws-us-gov:eks:us-gov-east-1:144418179842:cluster/gov-dev-eks", expected: "gov-dev-eks"},
		{name: "other resource arn", input: "arn:aws:eks:us-east-1:123456789012:nodegroup/my-nodegroup", expected: "my-nodegroup"},
		{name: "arn without slash", input: "arn:aws:iam::123456789012:root", expected: "root"},
		{name: "plain name", input: "kind-fleet", expected: "kind-fleet"},
		{name: "plain name with slash", input: "team/prod", expected: "team/prod"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortClusterName(tt.input); got != tt.expected {
				t.Errorf("ShortClusterName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
