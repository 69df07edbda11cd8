package database

import "strings"

// ConstructDatabaseURL joins a base connection URL with a database name,
// preserving any query parameters and defaulting sslmode to disable. An empty
// database name leaves the base URL untouched.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	url := strings.TrimRight(baseURL, "/")
	if base, query, found := strings.Cut(url, "?"); found {
		url = base + "/" + databaseName + "?" + query
	} else {
		url = base + "/" + databaseName
	}

	if !strings.Contains(url, "sslmode=") {
		if strings.Contains(url, "?") {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}

	return url
}
