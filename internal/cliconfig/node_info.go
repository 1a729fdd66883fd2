package cliconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/meshlog/internal/domain"
)

// LoadNodeInfo reads the local node description from a JSON or TOML file,
// chosen by extension. An empty path yields a node named after the host so
// that the agent can run without mesh metadata.
func LoadNodeInfo(path string) (domain.NodeInfo, error) {
	if path == "" {
		host, _ := os.Hostname()
		return domain.NodeInfo{Name: host}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return domain.NodeInfo{}, fmt.Errorf("read node file: %w", err)
	}

	var node domain.NodeInfo
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, &node)
	default:
		err = json.Unmarshal(b, &node)
	}
	if err != nil {
		return domain.NodeInfo{}, fmt.Errorf("decode node file %s: %w", path, err)
	}
	return node, nil
}
