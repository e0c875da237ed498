package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	classgraph "github.com/classgraph/classgraph-go"
	"github.com/classgraph/classgraph-go/internal/diagnostics"
	"github.com/stretchr/testify/assert"
)

func TestValidQueryKind(t *testing.T) {
	assert.True(t, validQueryKind("all-classes"))
	assert.True(t, validQueryKind("subclasses-of"))
	assert.False(t, validQueryKind("bogus-kind"))
}

func TestClassInfoNames(t *testing.T) {
	infos := []*classgraph.ClassInfo{
		{Name: "com.acme.A"},
		{Name: "com.acme.B"},
	}
	assert.Equal(t, []string{"com.acme.A", "com.acme.B"}, classInfoNames(infos))
}

func buildQueryFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	classDir := filepath.Join(dir, "com", "acme")
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(classDir, "Widget.class"),
		buildMinimalClass(t, "com/acme/Widget", "java/lang/Object"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunQueryAllClasses(t *testing.T) {
	dir := buildQueryFixtureDir(t)
	scanner := classgraph.NewScanner(diagnostics.New(diagnostics.LevelDefault))
	result, err := scanner.Scan(context.Background(), dir)
	assert.NoError(t, err)
	names, infos := runQuery(result.Query, "all-classes", "")
	assert.Equal(t, []string{"com.acme.Widget"}, names)
	assert.Nil(t, infos)
}

func TestQueryCmdRequiresName(t *testing.T) {
	_ = queryCmd.Flags().Set("kind", "subclasses-of")
	_ = queryCmd.Flags().Set("name", "")
	err := queryCmd.RunE(queryCmd, []string{"."})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires --name")
}

func TestQueryCmdRejectsUnknownKind(t *testing.T) {
	_ = queryCmd.Flags().Set("kind", "bogus")
	err := queryCmd.RunE(queryCmd, []string{"."})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown --kind")
}

func TestQueryCmdAllClasses(t *testing.T) {
	dir := buildQueryFixtureDir(t)

	_ = queryCmd.Flags().Set("kind", "all-classes")
	_ = queryCmd.Flags().Set("name", "")
	_ = queryCmd.Flags().Set("output", "json")

	output := captureOutput(func() {
		err := queryCmd.RunE(queryCmd, []string{dir})
		assert.NoError(t, err)
	})

	var names []string
	assert.NoError(t, json.Unmarshal(bytes.TrimSpace([]byte(output)), &names))
	assert.Equal(t, []string{"com.acme.Widget"}, names)
}

func TestQueryCmdFlags(t *testing.T) {
	flag := queryCmd.Flag("kind")
	assert.NotNil(t, flag)
	flag = queryCmd.Flag("name")
	assert.NotNil(t, flag)
	flag = queryCmd.Flag("output")
	assert.NotNil(t, flag)
	assert.Equal(t, "text", flag.DefValue)
}
