package command_test

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txrelay/internal/util/command"
)

func TestNewSubcommandGroup(t *testing.T) {
	var ran bool
	child := &cobra.Command{
		Use: "list",
		RunE: func(_ *cobra.Command, _ []string) error {
			ran = true
			return nil
		},
	}

	group := command.NewSubcommandGroup("queue", child)
	assert.Equal(t, "queue", group.Use)
	require.Len(t, group.Commands(), 1)

	group.SetArgs([]string{"list"})
	require.NoError(t, group.Execute())
	assert.True(t, ran)
}

func TestNewSubcommandGroupPrintsHelp(t *testing.T) {
	group := command.NewSubcommandGroup("db", &cobra.Command{Use: "migrate", Run: func(*cobra.Command, []string) {}})

	var out bytes.Buffer
	group.SetOut(&out)
	group.SetArgs([]string{})
	require.NoError(t, group.Execute())
	assert.Contains(t, out.String(), "migrate")
}
