package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/vk/conceptc/internal/app"
	"github.com/vk/conceptc/internal/registry"
	"github.com/vk/conceptc/modules/common"
)

// IntegrationResult holds the outcome of a full application run.
type IntegrationResult struct {
	LogOutput string
	Output    string
	Err       error
	App       *app.App
}

// RunIntegrationTest writes files into a temporary directory and runs the
// whole application over it: every .rhe file is a source and every .hcl
// file a manifest. The standard concept types are always registered;
// modules are added to them. A nil cfg uses JSON output.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg *app.Config, modules ...registry.Module) *IntegrationResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg, modules...)
}

// RunIntegrationTestWithContext is RunIntegrationTest with an explicit
// context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg *app.Config, modules ...registry.Module) (result *IntegrationResult) {
	t.Helper()
	root := WriteFiles(t, files)

	base := app.Config{OutputFormat: "json"}
	if cfg != nil {
		base = *cfg
	}
	base.Sources = []string{root}
	base.Manifests = []string{root}
	base.LogLevel = "debug"

	logs := &SafeBuffer{}
	out := &bytes.Buffer{}
	result = &IntegrationResult{}
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("application startup panicked: %v", r)
		}
		result.LogOutput = logs.String()
		result.Output = out.String()
		if os.Getenv("CONCEPTC_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
		}
	}()

	config, err := app.NewConfig(base)
	if err != nil {
		result.Err = err
		return result
	}
	a, err := app.NewApp(out, logs, config, append([]registry.Module{&common.Module{}}, modules...)...)
	if err != nil {
		result.Err = err
		return result
	}
	result.App = a
	result.Err = a.Run(ctx)
	return result
}
