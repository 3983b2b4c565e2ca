package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/types"
)

func instances() []types.Instance {
	return []types.Instance{
		{ID: "i-1", Name: "free-tier", State: types.InstanceStateRunning},
		{ID: "i-2", Name: "other", State: types.InstanceStateRunning},
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"\n", true, true},
		{"\n", false, false},
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"maybe\n", true, false},
		{"y", false, true}, // last line without newline
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := NewInteractive(strings.NewReader(tt.input), &out)

		got, err := p.Confirm("Proceed?", tt.defaultYes)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Proceed?")
	}
}

func TestConfirmClosedInput(t *testing.T) {
	for _, defaultYes := range []bool{true, false} {
		p := NewInteractive(strings.NewReader(""), &bytes.Buffer{})

		got, err := p.Confirm("Terminate instance i-1?", defaultYes)
		assert.ErrorIs(t, err, ErrNoInput)
		assert.False(t, got)
	}
}

func TestInputClosedInput(t *testing.T) {
	p := NewInteractive(strings.NewReader(""), &bytes.Buffer{})

	got, err := p.Input("New key pair name", "aws_ec2_free-1")
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Empty(t, got)
}

func TestInput(t *testing.T) {
	var out bytes.Buffer
	p := NewInteractive(strings.NewReader("\nnewkey\n"), &out)

	got, err := p.Input("Key name", "aws_ec2_free")
	require.NoError(t, err)
	assert.Equal(t, "aws_ec2_free", got)

	got, err = p.Input("Key name", "aws_ec2_free")
	require.NoError(t, err)
	assert.Equal(t, "newkey", got)
	assert.Contains(t, out.String(), "[aws_ec2_free]")
}

func TestSelectInstanceNumbered(t *testing.T) {
	var out bytes.Buffer
	p := NewInteractive(strings.NewReader("2\n"), &out)

	got, err := p.SelectInstance("Running instances", instances())
	require.NoError(t, err)
	assert.Equal(t, "i-2", got.ID)
	assert.Contains(t, out.String(), "1) i-1")

	p = NewInteractive(strings.NewReader("7\n"), &out)
	_, err = p.SelectInstance("Running instances", instances())
	assert.ErrorContains(t, err, "invalid selection")

	p = NewInteractive(strings.NewReader("\n"), &out)
	_, err = p.SelectInstance("Running instances", instances())
	assert.ErrorIs(t, err, ui.ErrSelectionCancelled)
}

func TestAuto(t *testing.T) {
	var out bytes.Buffer
	a := NewAuto(&out)

	ok, err := a.Confirm("Delete?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := a.Input("Key name", "aws_ec2_free")
	require.NoError(t, err)
	assert.Equal(t, "aws_ec2_free", v)

	_, err = a.Input("New name", "")
	assert.Error(t, err)

	one := instances()[:1]
	got, err := a.SelectInstance("", one)
	require.NoError(t, err)
	assert.Equal(t, "i-1", got.ID)

	_, err = a.SelectInstance("", instances())
	assert.True(t, errors.Is(err, ErrAmbiguous))
	assert.Contains(t, err.Error(), "i-2")
}
