package logshard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

func ExampleSharder_Run() {
	dir, _ := os.MkdirTemp("", "logshard-example")
	defer os.RemoveAll(dir)

	s, _ := New(dir, WithLogger(zap.NewNop()))

	input := strings.NewReader(`{"ServiceName":"api","StartUTC":"2024-01-15T10:30:00Z","Status":200}
{"ServiceName":"api","StartUTC":"2024-01-15T18:02:11Z","Status":500}
{"ServiceName":"web","StartUTC":"2024-01-16T00:00:01Z","Status":304}
{"StartUTC":"2024-01-16T07:45:00Z"}
not json
`)
	_ = s.Run(context.Background(), input)

	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && info.Mode().IsRegular() {
			rel, _ := filepath.Rel(dir, path)
			fmt.Println(filepath.ToSlash(rel))
		}
		return nil
	})

	// Output:
	// api/2024-01-15.log
	// unknown/2024-01-16.log
	// web/2024-01-16.log
}
