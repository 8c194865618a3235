package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/cli/config"
)

func TestSlackChannel(t *testing.T) {
	gt.Value(t, config.NewSlackForTest("xoxb-test", "C1", "").Channel("C2")).Equal("C1")
	gt.Value(t, config.NewSlackForTest("xoxb-test", "", "").Channel("C2")).Equal("C2")
}

func TestSlackConfigure(t *testing.T) {
	t.Run("without token", func(t *testing.T) {
		svc, err := config.NewSlackForTest("", "C1", "").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, svc).Nil()
	})

	t.Run("with token", func(t *testing.T) {
		svc, err := config.NewSlackForTest("xoxb-test", "C1", "http://127.0.0.1:1/api/").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, svc).NotNil()
	})
}

func TestExportConfigure(t *testing.T) {
	t.Run("no destination", func(t *testing.T) {
		svc, closer, err := config.NewExportForTest("", "", "").Configure(t.Context(), config.ExportConfig{})
		gt.NoError(t, err).Required()
		defer closer()
		gt.Value(t, svc).Nil()
	})

	t.Run("local output", func(t *testing.T) {
		svc, closer, err := config.NewExportForTest("bucket", "", "-").Configure(t.Context(), config.ExportConfig{})
		gt.NoError(t, err).Required()
		defer closer()
		gt.Value(t, svc).NotNil()
	})
}
