//go:build unit

package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// runController wires ctrl into a throwaway command carrying the root's
// persistent flags and executes it with args.
func runController(t *testing.T, ctrl entities.Controller, args ...string) (string, error) {
	t.Helper()

	//nolint:exhaustruct // test command
	cmd := &cobra.Command{Use: ctrl.GetBind().Use}
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	ctrl.AddFlags(cmd)

	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ParseFlags(args))

	err := ctrl.Execute(cmd, cmd.Flags().Args())
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const publishConfig = `
source_repository: app-repo
bucket: scan-bucket
build_project: scan-project
package_repository:
  domain: my-domain
  repository: pypi-store
`
