package tpchgen

import (
	"os"

	"github.com/gizmodata/tpch-datagen/internal/logs"
)

// Version is printed by the --version flag
var Version = "0.1.0"

//log
var logger logs.Logger = logs.NewLogger(os.Stdout, logs.Info)

//SetLogger set the logger used by the datagen job
func SetLogger(l logs.Logger) {
	logger = l
}

//process-wide defaults, copied into DefaultConfig
const (
	DefaultDataDirectory   = "data"
	DefaultWorkDirectory   = "/tmp"
	DefaultNumChunks       = 10
	DefaultCompression     = CompressionZstd
	DefaultFileSize        = "100m"
	DefaultPerThreadOutput = true
)
