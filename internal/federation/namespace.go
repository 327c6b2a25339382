package federation

import (
	"sort"
	"strings"
)

// PrefixToolName qualifies a downstream-local tool name with its
// namespace.
func PrefixToolName(namespace, name string) string {
	return namespace + "." + name
}

// StripNamespace removes a namespace prefix from a fully qualified tool
// name. It reports false when the name is not under that namespace.
func StripNamespace(namespace, name string) (string, bool) {
	local, ok := strings.CutPrefix(name, namespace+".")
	if !ok || local == "" {
		return "", false
	}
	return local, true
}

// ResolveNamespace finds the namespace owning a qualified tool name.
// Namespaces may contain dots, so the longest matching prefix wins:
// with namespaces "linux" and "linux.docker" registered, the name
// "linux.docker.status" resolves to "linux.docker" and local "status".
func ResolveNamespace(namespaces []string, name string) (namespace, local string, ok bool) {
	sorted := make([]string, len(namespaces))
	copy(sorted, namespaces)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, ns := range sorted {
		if l, match := StripNamespace(ns, name); match {
			return ns, l, true
		}
	}
	return "", "", false
}
