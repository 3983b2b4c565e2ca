package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/chainguard-dev/clog"
	"github.com/stretchr/testify/assert"
)

func TestSetupDebug(t *testing.T) {
	prev := L
	defer func() { L = prev }()

	var buf bytes.Buffer
	ctx := WithContext(context.Background(), Setup(&buf, true))

	clog.FromContext(ctx).Debug("describing instances", "region", "us-west-2")

	out := buf.String()
	assert.Contains(t, out, "describing instances")
	assert.Contains(t, out, "region=us-west-2")
}

func TestSetupQuiet(t *testing.T) {
	prev := L
	defer func() { L = prev }()

	var buf bytes.Buffer
	ctx := WithContext(context.Background(), Setup(&buf, false))

	log := clog.FromContext(ctx)
	log.Info("launched instance", "id", "i-1")
	assert.Empty(t, buf.String())

	log.Warn("continuing without key pair")
	assert.Contains(t, buf.String(), "continuing without key pair")
}
