package icp

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultReplicaURL is the stock dfx local replica endpoint.
const DefaultReplicaURL = "http://127.0.0.1:4943"

// networkEntry is the subset of a dfx networks.json entry we read.
type networkEntry struct {
	Bind string `json:"bind"`
}

// ResolveReplicaURL determines the replica endpoint. An explicitly
// configured URL wins; otherwise DFX_REPLICA_URL, then
// DFX_REPLICA_PORT, then the bind address of the selected network in
// dfx's networks.json, then the stock local endpoint.
func ResolveReplicaURL(configured string) string {
	if configured != "" {
		return configured
	}
	if u := os.Getenv("DFX_REPLICA_URL"); u != "" {
		return u
	}
	if port := os.Getenv("DFX_REPLICA_PORT"); port != "" {
		return "http://127.0.0.1:" + port
	}
	if bind := networksJSONBind(); bind != "" {
		return "http://" + bind
	}
	return DefaultReplicaURL
}

func networksJSONBind() string {
	data, err := os.ReadFile(filepath.Join(DfxConfigRoot(), "networks.json"))
	if err != nil {
		return ""
	}
	var networks map[string]networkEntry
	if err := json.Unmarshal(data, &networks); err != nil {
		return ""
	}
	name := os.Getenv("DFX_NETWORK")
	if name == "" {
		name = "local"
	}
	return networks[name].Bind
}
