package acceptance

import (
	"fmt"
	"os"
	"testing"
)

const binaryPath = "../../bin/skilldeck"

// TestMain runs setup and teardown for acceptance tests. The suite needs a
// prebuilt binary: go build -o bin/skilldeck ./cmd/skilldeck
func TestMain(m *testing.M) {
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		fmt.Printf("skipping acceptance tests: %s not found\n", binaryPath)
		os.Exit(0)
	}
	code := m.Run()
	os.Exit(code)
}
