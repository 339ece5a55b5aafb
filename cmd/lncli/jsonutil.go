package main

import "encoding/json"

// parseJSON decodes a JSON-encoded flag value, for the handful of
// commands (permuteroute) whose input is structured enough that a
// flat comma-separated flag would be unreadable.
func parseJSON(s string, v interface{}) error {
	return json.Unmarshal([]byte(s), v)
}
