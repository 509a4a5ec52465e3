package logging

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// New creates a logger that writes to <root>/logs/<component>.log and
// returns it with a cleanup. root is the server's configured data
// directory (config.Config.DataRoot), not the process's working directory:
// the server is typically launched over stdio by an MCP client from an
// arbitrary cwd, so logs are co-located with the datasets and series cache
// instead of wherever the client happened to start the process.
func New(root, component string) (*logrus.Entry, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dir := filepath.Join(root, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	path := filepath.Join(dir, component+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger.SetOutput(f)
	entry := logger.WithFields(logrus.Fields{"service": "fred-mcp-server", "component": component})
	return entry, func() { _ = f.Close() }, nil
}
