package h5typed

import (
	"fmt"
	"strings"
)

// CleanPath normalizes a path, ensuring it starts with "/" and has no
// trailing slash.
func CleanPath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(path, "/")
}

// SplitPath splits a path into its components. Leading and trailing
// slashes are handled, empty components are removed.
//
// Examples:
//   - "/" -> []string{}
//   - "/foo" -> []string{"foo"}
//   - "/foo/bar" -> []string{"foo", "bar"}
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// BaseName returns the last component of a path, or "/" for the root.
func BaseName(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return parts[len(parts)-1]
}

// ParentPath returns the containing group's path.
func ParentPath(path string) string {
	parts := SplitPath(path)
	if len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/")
}

// ParseAttrPath parses an attribute path into object path and attribute
// name. Path format: /group/object@attribute_name.
//
// Examples:
//   - "/@root_attr" -> objectPath="/", attrName="root_attr"
//   - "/data@units" -> objectPath="/data", attrName="units"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	atIdx := strings.LastIndex(path, "@")
	if atIdx == -1 {
		return "", "", fmt.Errorf("attribute path must contain '@' separator: %s", path)
	}
	objectPath = path[:atIdx]
	attrName = path[atIdx+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("attribute name cannot be empty: %s", path)
	}
	return CleanPath(objectPath), attrName, nil
}

// JoinAttrPath creates an attribute path from object path and attribute
// name.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return CleanPath(objectPath) + "@" + attrName
}
