package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	toml := `depth = 4
db-engine = "leveldb"
tip-request-interval = "2s"
neighbors = ["udp://10.0.0.2:14600"]
`
	if err := os.WriteFile(filepath.Join(dir, "tangle.toml"), []byte(toml), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := NewRunCmd()
	if err := cmd.ParseFlags([]string{"--datadir", dir, "--rating-threshold", "60"}); err != nil {
		t.Fatal(err)
	}

	if err := loadConfig(cmd, nil); err != nil {
		t.Fatal(err)
	}

	c := _config.Tangle

	if c.DataDir != dir {
		t.Fatalf("DataDir should be %s, not %s", dir, c.DataDir)
	}
	if c.DatabaseDir != filepath.Join(dir, "tangle_db") {
		t.Fatalf("DatabaseDir should follow DataDir, not %s", c.DatabaseDir)
	}
	if c.RatingThreshold != 60 {
		t.Fatalf("RatingThreshold should be 60, not %d", c.RatingThreshold)
	}
	if c.Depth != 4 {
		t.Fatalf("Depth should be 4, not %d", c.Depth)
	}
	if c.DatabaseEngine != "leveldb" {
		t.Fatalf("DatabaseEngine should be leveldb, not %s", c.DatabaseEngine)
	}
	if c.Node.TipRequestInterval != 2*time.Second {
		t.Fatalf("TipRequestInterval should be 2s, not %v", c.Node.TipRequestInterval)
	}
	if len(c.Neighbors) != 1 || c.Neighbors[0] != "udp://10.0.0.2:14600" {
		t.Fatalf("Neighbors should be [udp://10.0.0.2:14600], not %v", c.Neighbors)
	}
}
